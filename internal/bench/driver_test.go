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
	"github.com/stretchr/testify/require"

	"rbench/internal/resp"
)

func TestSelectWorkloadsDefaultsToFullSuite(t *testing.T) {
	cfg := NewConfig()
	specs, err := selectWorkloads(cfg)
	require.NoError(t, err)
	assert.Len(t, specs, len(resp.DefaultSuite))
}

func TestSelectWorkloadsHonorsDashT(t *testing.T) {
	cfg := NewConfig(WithTests([]string{"set", "get"}))
	specs, err := selectWorkloads(cfg)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, resp.Set, specs[0].w)
	assert.Equal(t, resp.Get, specs[1].w)
}

func TestSelectWorkloadsRejectsUnknownName(t *testing.T) {
	cfg := NewConfig(WithTests([]string{"not_a_workload"}))
	_, err := selectWorkloads(cfg)
	assert.Error(t, err)
}

func TestSelectWorkloadsTrailingLiteralCommandWins(t *testing.T) {
	cfg := NewConfig(WithTests([]string{"set"}))
	cfg.LiteralCommand = []string{"EXPIRE", "foo", "10"}

	specs, err := selectWorkloads(cfg)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, []string{"EXPIRE", "foo", "10"}, specs[0].literal)
	assert.Equal(t, "EXPIRE", specs[0].title)
}

func TestWorkloadSpecBuildTemplate(t *testing.T) {
	cfg := NewConfig()
	spec := workloadSpec{w: resp.Get, title: "GET"}
	tmpl := spec.buildTemplate(cfg)
	assert.NotNil(t, tmpl)
	assert.NotEmpty(t, tmpl.cmdBytes)
}
