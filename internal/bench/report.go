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
	"fmt"
	"os"
	"sort"
)

// printProgress writes the C5 throughput ticker's carriage-return-terminated
// progress line (spec.md §4.8). This is benchmark output, not a diagnostic,
// so it goes straight to stdout rather than through internal/logging.
func printProgress(title, format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "\r%s: %s", title, fmt.Sprintf(format, args...))
}

// Report is the C8 reporter: it sorts one workload's recorded latencies and
// prints a percentile histogram, RPS, and an outlier count (spec.md §4.7).
type Report struct {
	Title        string
	Samples      []int64 // microseconds, finishing order
	Requests     int
	MaxLatencyMs int
}

// Print renders the report for one completed (or empty) workload run
// according to cfg's output mode.
func (r *Report) Print(cfg *Config) {
	sorted := append([]int64(nil), r.Samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rps := r.rps(sorted)

	switch {
	case cfg.CSV:
		fmt.Printf("%q,%q\n", r.Title, fmt.Sprintf("%.2f", rps))
	case cfg.Quiet:
		fmt.Printf("%s: %.2f requests per second\n", r.Title, rps)
	default:
		r.printVerbose(sorted, rps)
	}
}

func (r *Report) rps(sorted []int64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	var sumUs int64
	for _, us := range sorted {
		sumUs += us
	}
	seconds := float64(sumUs) / 1e6
	if seconds <= 0 {
		return 0
	}
	return float64(len(sorted)) / seconds
}

func (r *Report) printVerbose(sorted []int64, rps float64) {
	fmt.Printf("====== %s ======\n", r.Title)
	if len(sorted) == 0 {
		fmt.Printf("  %d requests completed\n\n", 0)
		return
	}
	fmt.Printf("  %d requests completed\n", len(sorted))

	lastMs := int64(-1)
	outliers := 0
	for i, us := range sorted {
		ms := us / 1000
		if ms != lastMs || i == len(sorted)-1 {
			pct := float64(i+1) * 100 / float64(r.totalOrLen(sorted))
			fmt.Printf("%.2f%% <= %d milliseconds\n", pct, ms)
			lastMs = ms
		}
		if ms > int64(r.MaxLatencyMs) {
			outliers++
		}
	}
	if outliers > 0 {
		fmt.Printf("%d requests (%.2f%%) exceeded %d ms\n", outliers, float64(outliers)*100/float64(len(sorted)), r.MaxLatencyMs)
	}
	fmt.Printf("%.2f requests per second\n\n", rps)
}

// totalOrLen uses the target request count for the percentile denominator
// when it's known (spec.md §4.7 "(i+1)*100/requests"), falling back to the
// sample count for a Report built without Requests.
func (r *Report) totalOrLen(sorted []int64) int {
	if r.Requests > 0 {
		return r.Requests
	}
	return len(sorted)
}
