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

package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rbench/internal/bench"
	"rbench/internal/logging"
	"rbench/internal/metricsrv"
)

var (
	CommitSHA string
	Tag       string
	BuildTime string
)

func init() {
	if len(Tag) < 1 {
		Tag = "unknown"
	}
	if len(CommitSHA) < 1 {
		CommitSHA = "unknown"
	}
	if len(BuildTime) < 1 {
		BuildTime = "unknown"
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run implements spec.md §6's exit codes: 0 on successful completion or
// --help (-h is the host flag), 1 on option error, connect failure, or I/O
// error.
func run(args []string) int {
	cfg, _, err := bench.ParseArgs(args)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logging.SetLevel(cfg.LogLevel)

	// A benchmark client has no terminal to hang up from and no pipe reader
	// of its own output; both signals would otherwise kill the run (spec.md
	// §5, §9): broken peers must surface as EPIPE returns, not SIGPIPE.
	signal.Ignore(syscall.SIGHUP, syscall.SIGPIPE)

	network, addr := dialTarget(cfg)

	var metrics *bench.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		metrics = bench.NewMetrics(registry)
		srv := metricsrv.New(cfg.MetricsAddr, registry)
		go func() {
			if err := <-srv.Start(); err != nil {
				logging.Errorf("metrics server stopped: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if err := bench.Run(cfg, network, addr, metrics); err != nil {
		logging.Errorf("%v", err)
		return 1
	}
	return 0
}

func dialTarget(cfg *bench.Config) (network, addr string) {
	if cfg.UnixSocket != "" {
		return "unix", cfg.UnixSocket
	}
	return "tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
