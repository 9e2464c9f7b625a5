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

//go:build darwin || freebsd || dragonfly
// +build darwin freebsd dragonfly

package netpoll

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const initialEventCap = 128

// Poller is a kqueue-backed event source.
type Poller struct {
	fd     int
	events []unix.Kevent_t
}

// OpenPoller creates the underlying kqueue instance.
func OpenPoller() (*Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	return &Poller{fd: fd, events: make([]unix.Kevent_t, initialEventCap)}, nil
}

// Close releases the kqueue instance.
func (p *Poller) Close() error {
	return os.NewSyscallError("close", unix.Close(p.fd))
}

func (p *Poller) change(fd int, filter int16, flags uint16) error {
	ev := unix.Kevent_t{Ident: uint64(fd), Filter: filter, Flags: flags}
	_, err := unix.Kevent(p.fd, []unix.Kevent_t{ev}, nil, nil)
	return os.NewSyscallError("kevent", err)
}

// AddRead registers fd for read readiness only.
func (p *Poller) AddRead(fd int) error {
	return p.change(fd, unix.EVFILT_READ, unix.EV_ADD)
}

// AddReadWrite registers fd for both read and write readiness, used while a
// non-blocking connect() is still in flight (spec.md §4.2).
func (p *Poller) AddReadWrite(fd int) error {
	if err := p.AddRead(fd); err != nil {
		return err
	}
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD)
}

// ModReadWrite re-arms fd for both directions, e.g. once a WRITING client has
// partial output still queued.
func (p *Poller) ModReadWrite(fd int) error {
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD)
}

// ModRead drops write interest once a connection has nothing left to flush.
func (p *Poller) ModRead(fd int) error {
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
}

// Delete removes fd from the interest set.
func (p *Poller) Delete(fd int) error {
	_ = p.change(fd, unix.EVFILT_READ, unix.EV_DELETE)
	_ = p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	return nil
}

// Polling blocks the calling goroutine, invoking cb for every ready fd and
// tick once per wait iteration so the caller can drive its own low-rate
// timers (spec.md §4.8's 250ms throughput tick) without a second goroutine.
// A non-nil error from tick stops the loop, mirroring a callback error.
func (p *Poller) Polling(cb Callback, tick func() error) error {
	timeout := unix.NsecToTimespec(int64(200 * time.Millisecond))
	for {
		if err := tick(); err != nil {
			return err
		}

		n, err := unix.Kevent(p.fd, nil, p.events, &timeout)
		if n == 0 || (n < 0 && err == unix.EINTR) {
			continue
		} else if err != nil {
			return os.NewSyscallError("kevent", err)
		}

		for i := 0; i < n; i++ {
			ev := p.events[i]
			var ioev IOEvent
			if ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0 {
				ioev |= ErrEvents
			}
			switch ev.Filter {
			case unix.EVFILT_READ:
				ioev |= InEvents
			case unix.EVFILT_WRITE:
				ioev |= OutEvents
			}
			if err := cb(int(ev.Ident), ioev); err != nil {
				return err
			}
		}

		if n == len(p.events) {
			p.events = make([]unix.Kevent_t, len(p.events)*2)
		}
	}
}
