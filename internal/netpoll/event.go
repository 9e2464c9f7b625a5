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

// Package netpoll wraps the platform poller (epoll on Linux, kqueue on the
// BSDs) behind one fd-indexed callback API. It is grounded on the teacher's
// "default" (non-poll_opt) reactor style — core/reactor_default_linux.go and
// core/reactor_default_bsd.go look fds up in a connections map kept by the
// caller rather than carrying a pointer through the kernel — rather than the
// Udata-attachment trick in core/internal/netpoll/kqueue_optimized_poller.go,
// since epoll's EpollEvent has no free pointer field to carry one anyway.
package netpoll

// IOEvent is a bitmask of readiness conditions a poller reports for an fd.
type IOEvent uint32

const (
	InEvents  IOEvent = 1 << iota // readable, or a ready listening socket
	OutEvents                     // writable
	ErrEvents                     // hangup or error; treat as InEvents/OutEvents having failed
)

// Callback is invoked once per ready fd during a Polling pass.
type Callback func(fd int, ev IOEvent) error
