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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPingAndGetSet(t *testing.T) {
	cfg := TemplateConfig{KeyPrefix: "__rand_int__", PayloadSize: 3}

	assert.Equal(t, "PING\r\n", string(Build(PingInline, cfg)))
	assert.Contains(t, string(Build(PingBulk, cfg)), "PING")
	assert.Contains(t, string(Build(Get, cfg)), "__rand_int__")

	set := string(Build(Set, cfg))
	assert.Contains(t, set, "__rand_int__")
	assert.Contains(t, set, "xxx")
}

func TestKeyArgRandomizedSlotLength(t *testing.T) {
	var cases = [...]struct {
		Name     string
		Cfg      TemplateConfig
		WantText string
		WantLen  int
	}{
		{
			Name:     "no randomization keeps sentinel as-is",
			Cfg:      TemplateConfig{KeyPrefix: "__rand_int__"},
			WantText: "__rand_int__",
			WantLen:  len("__rand_int__"),
		},
		{
			Name:     "explicit size shorter than sentinel truncates",
			Cfg:      TemplateConfig{KeyPrefix: "__rand_int__", RandomKeys: true, KeySize: 4},
			WantText: "__ra",
			WantLen:  4,
		},
		{
			Name:     "explicit size longer than sentinel pads with z",
			Cfg:      TemplateConfig{KeyPrefix: "__rand_int__", RandomKeys: true, KeySize: 20},
			WantText: "__rand_int__zzzzzzzz",
			WantLen:  20,
		},
		{
			Name:     "zero size disables the slot",
			Cfg:      TemplateConfig{KeyPrefix: "__rand_int__", RandomKeys: true, KeySize: 0},
			WantText: "",
			WantLen:  0,
		},
	}

	for _, v := range cases {
		text, slotLen := v.Cfg.keyArg()
		assert.Equal(t, v.WantText, text, v.Name)
		assert.Equal(t, v.WantLen, slotLen, v.Name)
		assert.Equal(t, v.WantLen, SlotLength(v.Cfg), v.Name)
	}
}

func TestParseWorkloadAndTitle(t *testing.T) {
	w, ok := ParseWorkload("SET")
	assert.True(t, ok)
	assert.Equal(t, Set, w)
	assert.Equal(t, "SET", Title(w))

	_, ok = ParseWorkload("not_a_workload")
	assert.False(t, ok)

	assert.Equal(t, "CUSTOM", Title(Workload("custom")))
}

func TestDefaultSuiteCoversAllTitles(t *testing.T) {
	for _, w := range DefaultSuite {
		assert.NotEmpty(t, Title(w))
	}
	assert.True(t, strings.Contains(Title(Lrange100), "LRANGE"))
}
