// Copyright (c) 2022 The rcproxy Authors
// Copyright (c) 2019 Andy Pan
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
	"errors"
	"math/rand"
	"os"
	"time"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"

	"rbench/internal/logging"
	"rbench/internal/netconn"
	"rbench/internal/netpoll"
	"rbench/internal/rerrors"
	"rbench/internal/resp"
	"rbench/internal/unsafestr"
)

// readBufferSize bounds one unix.Read call; the teacher's eventloop reuses
// a single scratch buffer the same way (core/eventloop.go's el.buffer).
const readBufferSize = 64 * 1024

// scratchPool recycles each Engine's read buffer across successive
// NewEngine/Close pairs (driver.go's Run opens and closes one Engine per
// call; its loop-mode restarts keep using that same Engine), the same
// pooled-buffer discipline the teacher applies to its own connection
// buffers via bytebufferpool.
var scratchPool bytebufferpool.Pool

// Engine is the C5 event-loop host: it owns the poller, the live connection
// table, the global counters and the latency array, and is the single
// mutator of all of them (spec.md §5 "Scheduling model").
type Engine struct {
	cfg     *Config
	poller  *netpoll.Poller
	metrics *Metrics

	connections map[int]*Client
	scratchBB   *bytebufferpool.ByteBuffer
	scratch     []byte
	rng         *rand.Rand

	network, addr string
	tmpl          *Template
	title         string

	requestsIssued   int
	requestsFinished int
	liveClients      int

	latencies []int64

	lastErrPrintSec  int64
	lastTickPrintSec int64
	startWall        time.Time
}

// NewEngine creates an Engine bound to one target endpoint.
func NewEngine(cfg *Config, network, addr string, metrics *Metrics) (*Engine, error) {
	poller, err := netpoll.OpenPoller()
	if err != nil {
		return nil, err
	}
	bb := scratchPool.Get()
	if cap(bb.B) < readBufferSize {
		bb.B = make([]byte, readBufferSize)
	}
	bb.B = bb.B[:readBufferSize]
	return &Engine{
		cfg:         cfg,
		poller:      poller,
		metrics:     metrics,
		connections: make(map[int]*Client),
		scratchBB:   bb,
		scratch:     bb.B,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		network:     network,
		addr:        addr,
	}, nil
}

// Close releases the poller and returns the scratch buffer to the pool.
func (e *Engine) Close() error {
	scratchPool.Put(e.scratchBB)
	return e.poller.Close()
}

// Run drives one workload to completion: connects cfg.Clients clients,
// pumps the event loop until requestsFinished == cfg.Requests (or idle mode
// just holds connections open), and returns the samples recorded
// (spec.md §4.5 "Benchmark driver").
func (e *Engine) Run(title string, tmpl *Template) ([]int64, time.Duration, error) {
	e.title = title
	e.tmpl = tmpl
	e.requestsIssued = 0
	e.requestsFinished = 0
	e.liveClients = 0
	e.lastErrPrintSec = 0
	e.lastTickPrintSec = 0

	if e.cfg.Idle {
		e.latencies = nil
	} else {
		e.latencies = make([]int64, 0, e.cfg.Requests)
	}

	if e.cfg.Requests == 0 && !e.cfg.Idle {
		return e.latencies, 0, nil
	}

	if err := e.createMissingClients(); err != nil {
		return nil, 0, err
	}

	e.startWall = time.Now()
	err := e.poller.Polling(e.callback, e.tick)
	elapsed := time.Since(e.startWall)
	if err == rerrors.ErrAllClientsDisconnected || err == errDone {
		err = nil
	}
	e.closeAll()
	return e.latencies, elapsed, err
}

// errDone signals a clean run completion up through Polling's error return;
// Run() strips it back out before handing the result to the driver.
var errDone = errors.New("benchmark run complete")

func (e *Engine) callback(fd int, ev netpoll.IOEvent) error {
	c, ok := e.connections[fd]
	if !ok {
		return nil
	}

	if c.connecting {
		if ev&(netpoll.OutEvents|netpoll.ErrEvents) != 0 {
			if err := netconn.ConnectError(fd); err != nil {
				return e.handleConnectFailure(c, err)
			}
			c.connecting = false
			if c.idle {
				return e.poller.ModRead(fd)
			}
			c.beginRound()
			return e.onWritable(c)
		}
		return nil
	}

	// Same ordering discipline as the teacher's default reactors: check
	// writable before readable so partially-flushed output is retried
	// before we process whatever just arrived.
	if ev&netpoll.OutEvents != 0 {
		if err := e.onWritable(c); err != nil {
			return err
		}
	}
	if ev&netpoll.InEvents != 0 {
		return e.onReadable(c)
	}
	return nil
}

func (e *Engine) handleConnectFailure(c *Client, err error) error {
	logging.Errorf("connect %s failed: %v", e.addr, err)
	delete(e.connections, c.fd)
	_ = e.poller.Delete(c.fd)
	_ = netconn.Close(c.fd)
	e.liveClients--
	if e.metrics != nil {
		e.metrics.ObserveConnectError()
		e.metrics.SetLiveClients(e.liveClients)
	}
	return err
}

func (e *Engine) onWritable(c *Client) error {
	if c.idle {
		return nil
	}
	if c.written == 0 {
		if e.requestsIssued >= e.cfg.Requests {
			return e.disposeClient(c, disposeFinal)
		}
		e.requestsIssued++
		if e.metrics != nil {
			e.metrics.ObserveIssued()
		}
		if e.cfg.RandomKeys {
			c.randomize(e.rng)
		}
		c.startUs = nowUs()
		c.latencyUs = -1
	}

	n, err := unix.Write(c.fd, c.buf[c.written:])
	if err != nil {
		if err == unix.EAGAIN {
			return nil
		}
		if e.metrics != nil {
			e.metrics.ObserveIOError()
		}
		if err == unix.EPIPE {
			return e.disposeClient(c, disposeError)
		}
		logging.Errorf("write(%d) failed: %v", c.fd, err)
		return e.disposeClient(c, disposeError)
	}
	c.written += n

	if c.written == len(c.buf) {
		return e.poller.ModRead(c.fd)
	}
	return nil
}

func (e *Engine) onReadable(c *Client) error {
	if c.latencyUs < 0 {
		c.latencyUs = nowUs() - c.startUs
	}

	n, err := unix.Read(c.fd, e.scratch)
	if err != nil || n == 0 {
		if err == unix.EAGAIN {
			return nil
		}
		if e.metrics != nil {
			e.metrics.ObserveIOError()
		}
		if n == 0 {
			logging.Errorf("connection %d closed by peer", c.fd)
		} else {
			logging.Errorf("read(%d) failed: %v", c.fd, err)
		}
		return rerrors.ErrReadFailed
	}
	c.reader.Feed(e.scratch[:n])

	for {
		reply, perr := c.reader.ParseReply()
		if perr == rerrors.ErrIncompletePacket {
			return nil
		}
		if perr != nil {
			logging.Errorf("protocol error on connection %d: %v (read: %s)", c.fd, perr, unsafestr.Escape(e.scratch[:n]))
			return perr
		}

		if reply.IsError() {
			e.maybePrintServerError(reply.Raw)
		}

		if c.prefixPending > 0 {
			c.prefixPending--
			c.pending--
			if c.prefixLen > 0 {
				c.trimPrefix()
			}
			continue
		}

		if e.requestsFinished < e.cfg.Requests {
			e.latencies = append(e.latencies, c.latencyUs)
			e.requestsFinished++
			if e.metrics != nil {
				e.metrics.ObserveFinished()
			}
		}
		c.pending--

		if c.pending == 0 {
			if done, err := e.finishRound(c); done || err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// finishRound applies spec.md §4.1 "Round termination". done reports that
// the whole benchmark run should stop (Polling's caller treats that as a
// clean exit via errDone).
func (e *Engine) finishRound(c *Client) (done bool, err error) {
	if e.requestsFinished >= e.cfg.Requests {
		_ = e.disposeClient(c, disposeFinal)
		return true, errDone
	}
	if e.cfg.Keepalive {
		c.beginRound()
		if err := e.poller.ModReadWrite(c.fd); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := e.disposeClient(c, disposeClone); err != nil {
		return false, err
	}
	return false, nil
}

func (e *Engine) maybePrintServerError(msg string) {
	if !e.cfg.ShowErrors {
		return
	}
	sec := nowMs() / 1000
	if sec == e.lastErrPrintSec {
		return
	}
	e.lastErrPrintSec = sec
	// A server error reply is attacker/server-controlled and could in
	// principle carry raw CR/LF; escape it before it hits one log line.
	logging.Warnf("server error: %s", unsafestr.Escape(unsafestr.S2B(msg)))
}

// tick is the C5 250ms throughput ticker (spec.md §4.8). It is invoked once
// per Polling wait iteration, which bounds its own wait timeout to 200ms, so
// it self-throttles to roughly the requested period. A non-nil return stops
// the event loop (spec.md §7 "All-clients-disconnected").
func (e *Engine) tick() error {
	now := nowMs()
	if now-e.lastTickPrintSec < 250 {
		return nil
	}
	e.lastTickPrintSec = now

	if e.liveClients == 0 && (e.cfg.Idle || e.requestsFinished < e.cfg.Requests) {
		logging.Errorf("All clients disconnected")
		return rerrors.ErrAllClientsDisconnected
	}

	if e.cfg.Idle {
		printProgress(e.title, "clients: %d", e.liveClients)
		return nil
	}
	if e.cfg.Quiet || e.cfg.CSV {
		return nil
	}
	elapsed := time.Since(e.startWall).Seconds()
	rps := 0.0
	if elapsed > 0 {
		rps = float64(e.requestsFinished) / elapsed
	}
	printProgress(e.title, "%d requests completed, %.2f requests/sec", e.requestsFinished, rps)
	return nil
}

func (e *Engine) closeAll() {
	for fd, c := range e.connections {
		_ = e.poller.Delete(fd)
		_ = netconn.Close(c.fd)
		delete(e.connections, fd)
	}
	e.liveClients = 0
}

// disposeReason selects how (or whether) disposeClient replaces the
// connection it just tore down.
type disposeReason int

const (
	// disposeFinal: the benchmark has no more work for this client.
	disposeFinal disposeReason = iota
	// disposeClone: a successful round completed with keepalive off
	// (spec.md §4.1 "create a replacement cloned from it").
	disposeClone
	// disposeError: an I/O failure; replenished in bulk through the pool
	// (spec.md §4.4), not cloned from the failed client.
	disposeError
)

// disposeClient tears down one connection and, per reason, replaces it.
func (e *Engine) disposeClient(c *Client, reason disposeReason) error {
	delete(e.connections, c.fd)
	_ = e.poller.Delete(c.fd)
	_ = netconn.Close(c.fd)
	e.liveClients--
	if e.metrics != nil {
		e.metrics.SetLiveClients(e.liveClients)
	}

	if e.requestsFinished >= e.cfg.Requests {
		return nil
	}
	switch reason {
	case disposeClone:
		return e.connectClone(c)
	case disposeError:
		return e.createMissingClients()
	default:
		return nil
	}
}

func (e *Engine) connectClone(src *Client) error {
	fd, inProgress, err := netconn.DialNonblocking(e.network, e.addr)
	if err != nil {
		logging.Errorf("reconnect to %s failed: %v", e.addr, err)
		return os.NewSyscallError("connect", err)
	}
	nc := cloneClient(fd, inProgress, src, e.tmpl, e.cfg)
	if !inProgress {
		nc.beginRound()
	}
	return e.registerClient(nc)
}

func (e *Engine) registerClient(c *Client) error {
	e.connections[c.fd] = c
	e.liveClients++
	if e.metrics != nil {
		e.metrics.SetLiveClients(e.liveClients)
	}
	if c.connecting {
		return e.poller.AddReadWrite(c.fd)
	}
	if c.idle {
		return e.poller.AddRead(c.fd)
	}
	return e.poller.AddReadWrite(c.fd)
}
