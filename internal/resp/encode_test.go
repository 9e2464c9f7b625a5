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
)

func TestAppendCommand(t *testing.T) {
	var cases = [...]struct {
		Name   string
		Args   []string
		Expect string
	}{
		{Name: "PING", Expect: "*1\r\n$4\r\nPING\r\n"},
		{Name: "GET", Args: []string{"foo"}, Expect: "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"},
		{Name: "SET", Args: []string{"foo", "bar"}, Expect: "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"},
	}

	for _, v := range cases {
		got := AppendCommand(nil, v.Name, v.Args...)
		assert.Equal(t, v.Expect, string(got), "command: %s", v.Name)
	}
}

func TestInlinePing(t *testing.T) {
	assert.Equal(t, "PING\r\n", string(InlinePing(nil)))
}
