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

// Package rerrors collects the sentinel errors shared across rbench's
// event-loop, codec and dialing packages.
package rerrors

import "errors"

var (
	// ErrEngineShutdown occurs when the event-loop host has been told to stop.
	ErrEngineShutdown = errors.New("event loop is shutting down")
	// ErrAcceptSocket occurs when the poller hands back a listener-only event, which rbench never registers.
	ErrAcceptSocket = errors.New("accept a new connection error")
	// ErrUnsupportedProtocol occurs when dialing a network other than tcp/tcp4/tcp6/unix/unixgram.
	ErrUnsupportedProtocol = errors.New("only tcp/tcp4/tcp6/unix are supported")

	// ErrIncompletePacket occurs when the reply parser needs more bytes than have arrived so far.
	ErrIncompletePacket = errors.New("incomplete packet")
	// ErrInvalidResp occurs when the byte stream does not follow RESP framing.
	ErrInvalidResp = errors.New("invalid resp")

	// ErrAllClientsDisconnected occurs when the 250ms ticker observes zero live clients with work remaining.
	ErrAllClientsDisconnected = errors.New("all clients disconnected")

	// ErrReadFailed occurs when a connection's socket read fails or the
	// peer closes it; the benchmark cannot trust results past this point
	// and treats it as fatal (spec.md §7 "Read/framing errors").
	ErrReadFailed = errors.New("connection read failed")
)
