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

// Package netconn opens the non-blocking client-side sockets the load
// generator's connection pool (C4) drives through the poller. The teacher
// only ever accept()s (core/acceptor.go); there is no client-dial
// counterpart in the pack, so this is built from the same primitives —
// unix.Socket/SetNonblock/the SO_ERROR-after-EINPROGRESS idiom — applied to
// connect() instead of accept().
package netconn

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	"rbench/internal/rerrors"
)

// DialNonblocking creates a non-blocking TCP or unix-domain socket and
// issues connect(2) on it without waiting for completion. The caller must
// register fd for write-readiness and call ConnectError once the poller
// reports it; until then the connection is "in progress".
//
// network is "tcp" or "unix"; for "unix", addr is a filesystem path.
func DialNonblocking(network, addr string) (fd int, inProgress bool, err error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
		return dialTCP(addr)
	case "unix", "unixgram":
		return dialUnix(addr)
	default:
		return -1, false, rerrors.ErrUnsupportedProtocol
	}
}

func dialTCP(addr string) (int, bool, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, false, err
	}
	domain := unix.AF_INET
	var sa unix.Sockaddr
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		sa4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		domain = unix.AF_INET6
		sa6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP.To16())
		sa = sa6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, false, os.NewSyscallError("socket", err)
	}
	if err := prepare(fd); err != nil {
		_ = unix.Close(fd)
		return -1, false, err
	}
	return finishConnect(fd, sa)
}

func dialUnix(path string) (int, bool, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, false, os.NewSyscallError("socket", err)
	}
	if err := prepare(fd); err != nil {
		_ = unix.Close(fd)
		return -1, false, err
	}
	return finishConnect(fd, &unix.SockaddrUnix{Name: path})
}

func prepare(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return os.NewSyscallError("setnonblock", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return nil
}

func finishConnect(fd int, sa unix.Sockaddr) (int, bool, error) {
	err := unix.Connect(fd, sa)
	switch err {
	case nil:
		return fd, false, nil
	case unix.EINPROGRESS:
		return fd, true, nil
	default:
		_ = unix.Close(fd)
		return -1, false, os.NewSyscallError("connect", err)
	}
}

// ConnectError reads and clears SO_ERROR to discover whether a non-blocking
// connect that the poller reported write-ready for actually succeeded.
func ConnectError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if errno != 0 {
		return os.NewSyscallError("connect", unix.Errno(errno))
	}
	return nil
}

// Close closes fd, ignoring EBADF (already closed).
func Close(fd int) error {
	if err := unix.Close(fd); err != nil && err != unix.EBADF {
		return os.NewSyscallError("close", err)
	}
	return nil
}
