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

package resp

import (
	"rbench/internal/rerrors"
)

const maxNestingDepth = 32

// ParseReply consumes and returns exactly one top-level reply from the
// buffer. It returns rerrors.ErrIncompletePacket (leaving the buffer
// untouched) when the reply isn't fully arrived yet, and
// rerrors.ErrInvalidResp when the bytes don't follow RESP framing at all —
// the caller (the client's READING handler, spec.md §4.1) treats the
// latter as fatal and the former as "stop and await more readiness".
func (b *Buffer) ParseReply() (Reply, error) {
	return b.parseValue(0)
}

func (b *Buffer) parseValue(depth int) (Reply, error) {
	if depth > maxNestingDepth {
		return Reply{}, rerrors.ErrInvalidResp
	}

	line, n, err := b.peekLine()
	switch err {
	case nil:
	case errShortLine, errEmptyLine:
		return Reply{}, rerrors.ErrIncompletePacket
	default:
		return Reply{}, rerrors.ErrInvalidResp
	}
	if len(line) == 0 {
		return Reply{}, rerrors.ErrInvalidResp
	}

	typ := ReplyType(line[0])
	switch typ {
	case TypeStatus, TypeError, TypeInt:
		b.advance(n)
		return Reply{Type: typ, Raw: string(line[1:])}, nil

	case TypeBulk:
		length, perr := parseLen(line[1:])
		if perr != nil {
			return Reply{}, rerrors.ErrInvalidResp
		}
		if length < 0 {
			b.advance(n)
			return Reply{Type: typ}, nil
		}
		total := n + length + 2
		if _, ok := b.peekN(total); !ok {
			return Reply{}, rerrors.ErrIncompletePacket
		}
		b.advance(total)
		return Reply{Type: typ}, nil

	case TypeArray:
		count, perr := parseLen(line[1:])
		if perr != nil {
			return Reply{}, rerrors.ErrInvalidResp
		}
		mark := b.r
		b.advance(n)
		if count < 0 {
			return Reply{Type: typ}, nil
		}
		for i := 0; i < count; i++ {
			if _, err := b.parseValue(depth + 1); err != nil {
				b.r = mark
				return Reply{}, err
			}
		}
		return Reply{Type: typ}, nil

	default:
		return Reply{}, rerrors.ErrInvalidResp
	}
}

// parseLen parses a RESP bulk-string or array length field, allowing the
// -1 sentinel used for null bulk strings / null arrays.
func parseLen(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, rerrors.ErrInvalidResp
	}
	neg := false
	if p[0] == '-' {
		neg = true
		p = p[1:]
		if len(p) == 0 {
			return 0, rerrors.ErrInvalidResp
		}
	}
	n := 0
	for _, c := range p {
		if c < '0' || c > '9' {
			return 0, rerrors.ErrInvalidResp
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
