// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"bytes"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbench/internal/resp"
)

// countCommands counts the commands in p: a "*N" line starts a RESP array
// whose 2*N bulk-string lines follow it; any other line is one inline command.
func countCommands(p []byte) int {
	lines := bytes.Split(bytes.TrimSuffix(p, []byte("\r\n")), []byte("\r\n"))
	count := 0
	for i := 0; i < len(lines); i++ {
		count++
		if len(lines[i]) > 0 && lines[i][0] == '*' {
			n, _ := strconv.Atoi(string(lines[i][1:]))
			i += 2 * n
		}
	}
	return count
}

// okServer accepts every connection on ln and replies "+OK\r\n" once per
// command received, until ln is closed. Each read is taken to hold whole
// commands, which holds for the small buffers these tests write.
func okServer(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if err != nil {
						return
					}
					reply := bytes.Repeat([]byte("+OK\r\n"), countCommands(buf[:n]))
					if _, err := c.Write(reply); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
}

func TestEngineRunEndToEnd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	okServer(t, ln)

	cfg := NewConfig(WithClients(4), WithRequests(50), WithPipeline(1))
	engine, err := NewEngine(cfg, "tcp", ln.Addr().String(), nil)
	require.NoError(t, err)
	defer engine.Close()

	tmpl := NewTemplate(resp.PingInline, resp.TemplateConfig{KeyPrefix: cfg.KeyPrefix})

	samples, _, err := engine.Run("PING_INLINE", tmpl)
	require.NoError(t, err)

	assert.Equal(t, cfg.Requests, engine.requestsFinished, "every issued request should be completed against an always-+OK server")
	assert.Len(t, samples, cfg.Requests, "one latency sample per finished request")
	for _, s := range samples {
		assert.GreaterOrEqual(t, s, int64(0), "latency sample must not be negative")
	}
}

func TestEngineRunDiscardsSelectReply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	okServer(t, ln)

	cfg := NewConfig(WithClients(2), WithRequests(20), WithPipeline(1), WithDBNum(3))
	engine, err := NewEngine(cfg, "tcp", ln.Addr().String(), nil)
	require.NoError(t, err)
	defer engine.Close()

	tmpl := NewTemplate(resp.PingInline, resp.TemplateConfig{KeyPrefix: cfg.KeyPrefix})

	samples, _, err := engine.Run("PING_INLINE", tmpl)
	require.NoError(t, err)

	assert.Equal(t, cfg.Requests, engine.requestsFinished, "the SELECT ack must not count toward requestsFinished")
	assert.Len(t, samples, cfg.Requests, "the SELECT ack must not produce a latency sample")
}

func TestEngineRunCompletesWithoutHanging(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	okServer(t, ln)

	cfg := NewConfig(WithClients(1), WithRequests(1))
	engine, err := NewEngine(cfg, "tcp", ln.Addr().String(), nil)
	require.NoError(t, err)
	defer engine.Close()

	tmpl := NewTemplate(resp.PingInline, resp.TemplateConfig{KeyPrefix: cfg.KeyPrefix})

	done := make(chan struct{})
	go func() {
		_, _, _ = engine.Run("PING_INLINE", tmpl)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not complete against a responsive server")
	}
}
