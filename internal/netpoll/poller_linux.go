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

//go:build linux
// +build linux

package netpoll

import (
	"os"

	"golang.org/x/sys/unix"
)

const initialEventCap = 128

// Poller is an epoll-backed event source.
type Poller struct {
	fd     int
	events []unix.EpollEvent
}

// OpenPoller creates the underlying epoll instance.
func OpenPoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &Poller{fd: fd, events: make([]unix.EpollEvent, initialEventCap)}, nil
}

// Close releases the epoll instance.
func (p *Poller) Close() error {
	return os.NewSyscallError("close", unix.Close(p.fd))
}

func (p *Poller) ctl(op int, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return os.NewSyscallError("epoll_ctl", unix.EpollCtl(p.fd, op, fd, &ev))
}

// AddRead registers fd for read readiness only.
func (p *Poller) AddRead(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN)
}

// AddReadWrite registers fd for both read and write readiness, used while a
// non-blocking connect() is still in flight (spec.md §4.2).
func (p *Poller) AddReadWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN|unix.EPOLLOUT)
}

// ModReadWrite re-arms fd for both directions, e.g. once a WRITING client has
// partial output still queued.
func (p *Poller) ModReadWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN|unix.EPOLLOUT)
}

// ModRead drops write interest once a connection has nothing left to flush.
func (p *Poller) ModRead(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN)
}

// Delete removes fd from the interest set.
func (p *Poller) Delete(fd int) error {
	return p.ctl(unix.EPOLL_CTL_DEL, fd, 0)
}

// Polling blocks the calling goroutine, invoking cb for every ready fd and
// tick once per wait iteration so the caller can drive its own low-rate
// timers (spec.md §4.8's 250ms throughput tick) without a second goroutine.
// A non-nil error from tick stops the loop, mirroring a callback error.
func (p *Poller) Polling(cb Callback, tick func() error) error {
	for {
		if err := tick(); err != nil {
			return err
		}

		n, err := unix.EpollWait(p.fd, p.events, 200)
		if n == 0 || (n < 0 && err == unix.EINTR) {
			continue
		} else if err != nil {
			return os.NewSyscallError("epoll_wait", err)
		}

		for i := 0; i < n; i++ {
			ev := p.events[i]
			var ioev IOEvent
			if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				ioev |= ErrEvents
			}
			if ev.Events&unix.EPOLLOUT != 0 {
				ioev |= OutEvents
			}
			if ev.Events&unix.EPOLLIN != 0 {
				ioev |= InEvents
			}
			if err := cb(int(ev.Fd), ioev); err != nil {
				return err
			}
		}

		if n == len(p.events) {
			p.events = make([]unix.EpollEvent, len(p.events)*2)
		}
	}
}
