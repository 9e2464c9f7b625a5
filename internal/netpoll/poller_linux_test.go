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

//go:build linux
// +build linux

package netpoll

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPollerReadWriteReadiness(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := OpenPoller()
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.AddReadWrite(fds[0]))

	var sawWrite, sawRead bool
	stop := errors.New("stop")
	err = p.Polling(func(fd int, ev IOEvent) error {
		if fd != fds[0] {
			return nil
		}
		if ev&OutEvents != 0 {
			sawWrite = true
			_, werr := unix.Write(fds[1], []byte("hi"))
			require.NoError(t, werr)
		}
		if ev&InEvents != 0 {
			sawRead = true
			return stop
		}
		return nil
	}, func() error { return nil })

	assert.Equal(t, stop, err)
	assert.True(t, sawWrite)
	assert.True(t, sawRead)
}

func TestPollerTickStopsTheLoop(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := OpenPoller()
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.AddRead(fds[0]))

	stop := errors.New("tick stop")
	err = p.Polling(func(fd int, ev IOEvent) error { return nil }, func() error { return stop })
	assert.Equal(t, stop, err)
}
