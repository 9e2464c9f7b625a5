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

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserveIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveIssued()
	m.ObserveFinished()
	m.ObserveFinished()
	m.SetLiveClients(7)
	m.ObserveConnectError()
	m.ObserveIOError()

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		values[f.GetName()] = counterOrGaugeValue(f.GetMetric()[0])
	}

	assert.Equal(t, 1.0, values["rbench_requests_issued_total"])
	assert.Equal(t, 2.0, values["rbench_requests_finished_total"])
	assert.Equal(t, 7.0, values["rbench_live_clients"])
	assert.Equal(t, 1.0, values["rbench_connect_errors_total"])
	assert.Equal(t, 1.0, values["rbench_io_errors_total"])
}

func TestNilMetricsMethodsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIssued()
		m.ObserveFinished()
		m.SetLiveClients(3)
		m.ObserveConnectError()
		m.ObserveIOError()
	})
}

func counterOrGaugeValue(m *dto.Metric) float64 {
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}
