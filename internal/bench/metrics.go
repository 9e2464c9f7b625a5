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

import "github.com/prometheus/client_golang/prometheus"

// Metrics publishes the handful of gauges/counters an operator watching a
// long rbench run (SPEC_FULL.md §4.9) would want, in the style of
// core/stats.go's ProxyStats — a small struct of plain Counter/Gauge
// metrics registered once at process start and updated from the single
// event-loop goroutine.
type Metrics struct {
	requestsIssued   prometheus.Counter
	requestsFinished prometheus.Counter
	liveClients      prometheus.Gauge
	connectErrors    prometheus.Counter
	ioErrors         prometheus.Counter
}

// NewMetrics builds and registers the rbench metric set under r. Pass a
// fresh prometheus.Registry (not the global default) so tests can create
// independent Metrics instances.
func NewMetrics(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rbench",
			Name:      "requests_issued_total",
			Help:      "request rounds (one pipeline of commands each) started on a connection",
		}),
		requestsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rbench",
			Name:      "requests_finished_total",
			Help:      "replies recorded as completed requests",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rbench",
			Name:      "live_clients",
			Help:      "currently connected benchmark clients",
		}),
		connectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rbench",
			Name:      "connect_errors_total",
			Help:      "failed non-blocking connect attempts",
		}),
		ioErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rbench",
			Name:      "io_errors_total",
			Help:      "read/write failures on a benchmark connection",
		}),
	}
	r.MustRegister(m.requestsIssued, m.requestsFinished, m.liveClients, m.connectErrors, m.ioErrors)
	return m
}

// ObserveIssued records one request round started: the client's whole
// pipeline of commands is about to be written.
func (m *Metrics) ObserveIssued() {
	if m == nil {
		return
	}
	m.requestsIssued.Inc()
}

// ObserveIOError records a read failure (fatal to the run) or a write
// failure (which disposes only that client).
func (m *Metrics) ObserveIOError() {
	if m == nil {
		return
	}
	m.ioErrors.Inc()
}

// ObserveFinished records one completed request.
func (m *Metrics) ObserveFinished() {
	if m == nil {
		return
	}
	m.requestsFinished.Inc()
}

// SetLiveClients publishes the current live client count.
func (m *Metrics) SetLiveClients(n int) {
	if m == nil {
		return
	}
	m.liveClients.Set(float64(n))
}

// ObserveConnectError records a failed connect attempt.
func (m *Metrics) ObserveConnectError() {
	if m == nil {
		return
	}
	m.connectErrors.Inc()
}
