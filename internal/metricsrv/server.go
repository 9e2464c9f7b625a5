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

// Package metricsrv is the optional debug/metrics HTTP surface
// (SPEC_FULL.md §4.9). It is additive: nothing in the benchmark core reads
// from or depends on it, and when --metrics-addr is unset rbench never
// constructs one. Adapted from web/init.go, trimmed to the two routes that
// still make sense for a client-only load generator.
package metricsrv

import (
	"context"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is a minimal gin HTTP server exposing /metrics and /debug/pprof/*.
type Server struct {
	httpSrv *http.Server
}

// New builds a Server bound to addr, collecting from registry.
func New(addr string, registry *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	pprof.Register(g)
	g.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return &Server{httpSrv: &http.Server{Addr: addr, Handler: g}}
}

// Start runs the server on its own goroutine; errCh receives exactly one
// error (nil on a clean Shutdown) when it stops.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
