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

// Package resp implements the slice of the Redis wire protocol rbench
// needs: building pipelined command byte strings (the C6 "command
// templates" of the load generator) and incrementally decoding the
// replies that come back over a non-blocking socket.
package resp

// ReplyType classifies one parsed RESP reply.
type ReplyType byte

const (
	TypeStatus ReplyType = '+'
	TypeError  ReplyType = '-'
	TypeInt    ReplyType = ':'
	TypeBulk   ReplyType = '$'
	TypeArray  ReplyType = '*'
)

// Reply is one fully-parsed top-level RESP value. Nested array elements are
// not individually materialized; a Reply holds only the reply's type and,
// for status/error/integer replies, the text. The parser advances the read
// cursor past the whole encoded reply itself.
type Reply struct {
	Type ReplyType
	// Raw is the first line's payload, e.g. "OK" for a status reply or
	// "ERR wrong number of arguments" for an error reply. Unset for
	// bulk/array replies, whose payloads rbench never needs to inspect.
	Raw string
}

// IsError reports whether this reply is a RESP error reply ('-').
func (r Reply) IsError() bool { return r.Type == TypeError }
