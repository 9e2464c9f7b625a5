// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"): you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

// Package unsafestr holds the zero-copy string/byte-slice conversions used
// on the hot path of the event loop, where the allocations from a plain
// []byte(s) / string(b) conversion would show up in a pipelined benchmark.
package unsafestr

import (
	"reflect"
	"unsafe"
)

// S2B reinterprets a string's backing array as a []byte without copying.
// The returned slice must never be mutated, and must not outlive s.
func S2B(s string) []byte {
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{Data: sh.Data, Len: sh.Len, Cap: sh.Len}
	return *(*[]byte)(unsafe.Pointer(&bh))
}

// B2S reinterprets a []byte as a string without copying. The caller must
// not mutate b afterward.
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// Escape renders RESP control bytes as dots so a reply can be logged on one line.
func Escape(resp []byte) string {
	bs := make([]byte, len(resp))
	for i, v := range resp {
		if v == '\r' || v == '\n' {
			bs[i] = '.'
			continue
		}
		bs[i] = v
	}
	return B2S(bs)
}
