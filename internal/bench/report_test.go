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

package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportRpsIsDerivedFromSummedLatency(t *testing.T) {
	r := &Report{Samples: []int64{1_000_000, 1_000_000}} // 2 requests over 2s of summed latency -> 1 req/s
	sorted := append([]int64(nil), r.Samples...)
	rps := r.rps(sorted)
	assert.InDelta(t, 1.0, rps, 0.001)
}

func TestReportRpsEmptySamples(t *testing.T) {
	r := &Report{}
	assert.Equal(t, float64(0), r.rps(nil))
}

func TestReportTotalOrLenPrefersRequests(t *testing.T) {
	r := &Report{Requests: 100, Samples: []int64{1, 2, 3}}
	assert.Equal(t, 100, r.totalOrLen(r.Samples))

	r2 := &Report{Samples: []int64{1, 2, 3}}
	assert.Equal(t, 3, r2.totalOrLen(r2.Samples))
}

func TestReportPrintModesDoNotPanic(t *testing.T) {
	r := &Report{Title: "GET", Samples: []int64{100, 200, 300}, Requests: 3, MaxLatencyMs: 10}

	r.Print(&Config{Quiet: true})
	r.Print(&Config{CSV: true})
	r.Print(&Config{})
}
