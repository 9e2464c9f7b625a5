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
	"strings"

	"github.com/pkg/errors"

	"rbench/internal/resp"
)

// workloadSpec names one run the driver should perform: either a built-in
// workload or a literal trailing-argument command (spec.md §6).
type workloadSpec struct {
	w       resp.Workload
	title   string
	literal []string
}

// selectWorkloads resolves -t/trailing-args into the ordered run list
// (spec.md §4.6, §6 "Trailing non-flag arguments").
func selectWorkloads(cfg *Config) ([]workloadSpec, error) {
	if len(cfg.LiteralCommand) > 0 {
		return []workloadSpec{{literal: cfg.LiteralCommand, title: strings.ToUpper(cfg.LiteralCommand[0])}}, nil
	}
	if len(cfg.Tests) > 0 {
		specs := make([]workloadSpec, 0, len(cfg.Tests))
		for _, name := range cfg.Tests {
			w, ok := resp.ParseWorkload(name)
			if !ok {
				return nil, errors.Errorf("unknown workload %q", name)
			}
			specs = append(specs, workloadSpec{w: w, title: resp.Title(w)})
		}
		return specs, nil
	}
	specs := make([]workloadSpec, len(resp.DefaultSuite))
	for i, w := range resp.DefaultSuite {
		specs[i] = workloadSpec{w: w, title: resp.Title(w)}
	}
	return specs, nil
}

func (s workloadSpec) buildTemplate(cfg *Config) *Template {
	tcfg := resp.TemplateConfig{
		KeyPrefix:   cfg.KeyPrefix,
		RandomKeys:  cfg.RandomKeys,
		KeySize:     cfg.KeySize,
		PayloadSize: cfg.DataSize,
		IncrBy:      cfg.IncrBy,
		SubFields:   cfg.SubFields,
	}
	if s.literal != nil {
		return NewLiteralTemplate(s.literal, tcfg)
	}
	return NewTemplate(s.w, tcfg)
}

// Run is the C7 benchmark driver: for idle mode it just holds cfg.Clients
// connections open; otherwise it runs every selected workload to
// completion, printing a Report after each, repeating forever if cfg.Loop
// is set (spec.md §4.5).
func Run(cfg *Config, network, addr string, metrics *Metrics) error {
	engine, err := NewEngine(cfg, network, addr, metrics)
	if err != nil {
		return errors.Wrap(err, "open poller")
	}
	defer engine.Close()

	if cfg.Idle {
		_, _, err := engine.Run("IDLE", nil)
		return err
	}

	specs, err := selectWorkloads(cfg)
	if err != nil {
		return err
	}

	for {
		for _, spec := range specs {
			tmpl := spec.buildTemplate(cfg)
			samples, _, err := engine.Run(spec.title, tmpl)
			if err != nil {
				return errors.Wrapf(err, "workload %s", spec.title)
			}
			(&Report{
				Title:        spec.title,
				Samples:      samples,
				Requests:     cfg.Requests,
				MaxLatencyMs: cfg.MaxLatencyMs,
			}).Print(cfg)
		}
		if !cfg.Loop {
			return nil
		}
	}
}
