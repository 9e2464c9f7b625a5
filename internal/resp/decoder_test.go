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
	"testing"

	"github.com/stretchr/testify/assert"

	"rbench/internal/rerrors"
)

func TestParseReplySimpleTypes(t *testing.T) {
	var cases = [...]struct {
		Input string
		Type  ReplyType
		Raw   string
	}{
		{Input: "+OK\r\n", Type: TypeStatus, Raw: "OK"},
		{Input: "-ERR bad\r\n", Type: TypeError, Raw: "ERR bad"},
		{Input: ":42\r\n", Type: TypeInt, Raw: "42"},
	}

	for _, v := range cases {
		var b Buffer
		b.Feed([]byte(v.Input))
		reply, err := b.ParseReply()
		assert.NoError(t, err, "input: %s", v.Input)
		assert.Equal(t, v.Type, reply.Type, "input: %s", v.Input)
		assert.Equal(t, v.Raw, reply.Raw, "input: %s", v.Input)
		assert.Equal(t, 0, b.Len(), "input: %s", v.Input)
	}
}

func TestParseReplyBulkAndArray(t *testing.T) {
	var b Buffer
	b.Feed([]byte("$3\r\nfoo\r\n"))
	_, err := b.ParseReply()
	assert.NoError(t, err)
	assert.Equal(t, 0, b.Len())

	b.Feed([]byte("*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))
	_, err = b.ParseReply()
	assert.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestParseReplyNullBulkAndArray(t *testing.T) {
	var b Buffer
	b.Feed([]byte("$-1\r\n"))
	reply, err := b.ParseReply()
	assert.NoError(t, err)
	assert.Equal(t, TypeBulk, reply.Type)

	b.Feed([]byte("*-1\r\n"))
	reply, err = b.ParseReply()
	assert.NoError(t, err)
	assert.Equal(t, TypeArray, reply.Type)
}

func TestParseReplyIncomplete(t *testing.T) {
	var b Buffer
	b.Feed([]byte("$6\r\nfoo"))
	_, err := b.ParseReply()
	assert.Equal(t, rerrors.ErrIncompletePacket, err)
	assert.Equal(t, 7, b.Len(), "buffer must be untouched on incomplete reply")

	b.Feed([]byte("bar\r\n"))
	reply, err := b.ParseReply()
	assert.NoError(t, err)
	assert.Equal(t, TypeBulk, reply.Type)
	assert.Equal(t, 0, b.Len())
}

func TestParseReplyInvalidFraming(t *testing.T) {
	var b Buffer
	b.Feed([]byte("@bad\r\n"))
	_, err := b.ParseReply()
	assert.Equal(t, rerrors.ErrInvalidResp, err)
}

func TestParseReplyMultipleInOneFeed(t *testing.T) {
	var b Buffer
	b.Feed([]byte("+OK\r\n+OK\r\n"))
	for i := 0; i < 2; i++ {
		reply, err := b.ParseReply()
		assert.NoError(t, err)
		assert.Equal(t, TypeStatus, reply.Type)
	}
	assert.Equal(t, 0, b.Len())
}
