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

// Package bench implements the load-generator core: configuration (C9),
// the client state machine and pool (C3/C4), the event-loop host (C5), the
// benchmark driver (C7) and the reporter (C8).
package bench

import (
	"flag"
	"strings"

	"github.com/pkg/errors"
)

// Config is the process-wide, read-only-after-parse configuration (spec.md
// §3 "Configuration"). Fields mirror the CLI flag table in spec.md §6.
type Config struct {
	Host       string
	Port       int
	UnixSocket string

	Clients  int
	Requests int

	Keepalive bool
	DataSize  int
	Pipeline  int

	RandomKeys bool
	KeySize    int

	Quiet      bool
	CSV        bool
	Loop       bool
	Idle       bool
	ShowErrors bool

	IncrBy       int
	MaxLatencyMs int

	Tests []string

	DBNum     int
	KeyPrefix string
	SubFields int

	// MetricsAddr, when non-empty, starts the optional debug/metrics HTTP
	// surface (SPEC_FULL.md §4.9). Empty keeps rbench exactly as spec.md
	// describes it: a pure CLI load generator with nothing listening.
	MetricsAddr string
	LogLevel    string

	// LiteralCommand is set when trailing non-flag arguments were given;
	// it replaces the default workload suite with exactly this command
	// (spec.md §6 "Trailing non-flag arguments").
	LiteralCommand []string
}

// Option mirrors the teacher's functional-options convention
// (core/options.go) for programmatic construction, e.g. from tests.
type Option func(*Config)

func WithHost(h string) Option       { return func(c *Config) { c.Host = h } }
func WithPort(p int) Option          { return func(c *Config) { c.Port = p } }
func WithUnixSocket(s string) Option { return func(c *Config) { c.UnixSocket = s } }
func WithClients(n int) Option       { return func(c *Config) { c.Clients = n } }
func WithRequests(n int) Option      { return func(c *Config) { c.Requests = n } }
func WithKeepalive(v bool) Option    { return func(c *Config) { c.Keepalive = v } }
func WithDataSize(n int) Option      { return func(c *Config) { c.DataSize = n } }
func WithPipeline(n int) Option      { return func(c *Config) { c.Pipeline = n } }
func WithRandomKeys(n int) Option {
	return func(c *Config) { c.RandomKeys = true; c.KeySize = n }
}
func WithQuiet(v bool) Option      { return func(c *Config) { c.Quiet = v } }
func WithCSV(v bool) Option        { return func(c *Config) { c.CSV = v } }
func WithLoop(v bool) Option       { return func(c *Config) { c.Loop = v } }
func WithIdle(v bool) Option       { return func(c *Config) { c.Idle = v } }
func WithShowErrors(v bool) Option { return func(c *Config) { c.ShowErrors = v } }
func WithIncrBy(n int) Option      { return func(c *Config) { c.IncrBy = n } }
func WithMaxLatencyMs(n int) Option {
	return func(c *Config) { c.MaxLatencyMs = n }
}
func WithTests(tests []string) Option    { return func(c *Config) { c.Tests = tests } }
func WithDBNum(n int) Option             { return func(c *Config) { c.DBNum = n } }
func WithKeyPrefix(s string) Option      { return func(c *Config) { c.KeyPrefix = s } }
func WithSubFields(n int) Option         { return func(c *Config) { c.SubFields = n } }
func WithMetricsAddr(addr string) Option { return func(c *Config) { c.MetricsAddr = addr } }
func WithLogLevel(l string) Option       { return func(c *Config) { c.LogLevel = l } }

// NewConfig builds a Config at its documented defaults (spec.md §6), then
// applies opts.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Host:         "127.0.0.1",
		Port:         6379,
		Clients:      50,
		Requests:     100000,
		Keepalive:    true,
		DataSize:     3,
		Pipeline:     1,
		IncrBy:       1,
		MaxLatencyMs: 10,
		DBNum:        0,
		KeyPrefix:    "__rand_int__",
		SubFields:    10,
		LogLevel:     "warn",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseArgs parses argv (excluding the program name) into a Config. It
// never calls os.Exit; the caller decides how to react to a non-nil error
// or a requested usage print (spec.md §7 "configuration errors").
func ParseArgs(args []string) (cfg *Config, fs *flag.FlagSet, err error) {
	cfg = NewConfig()

	fs = flag.NewFlagSet("rbench", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "h", cfg.Host, "TCP host")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "TCP port")
	fs.StringVar(&cfg.UnixSocket, "s", "", "UNIX socket path (overrides -h/-p)")
	fs.IntVar(&cfg.Clients, "c", cfg.Clients, "parallel clients")
	fs.IntVar(&cfg.Requests, "n", cfg.Requests, "total requests")
	keepalive := fs.Int("k", 1, "keepalive (0 or 1)")
	fs.IntVar(&cfg.DataSize, "d", cfg.DataSize, "payload size in bytes")
	fs.IntVar(&cfg.Pipeline, "P", cfg.Pipeline, "pipeline depth")
	random := fs.Int("r", -1, "enable random keys; length of randomization slot")
	fs.BoolVar(&cfg.Quiet, "q", false, "quiet output")
	fs.BoolVar(&cfg.CSV, "csv", false, "CSV output")
	fs.BoolVar(&cfg.Loop, "l", false, "loop tests forever")
	fs.BoolVar(&cfg.Idle, "I", false, "idle mode: connect and never write")
	fs.BoolVar(&cfg.ShowErrors, "e", false, "print server-side error replies")
	fs.IntVar(&cfg.IncrBy, "v", cfg.IncrBy, "integer argument for INCRBY/HINCRBY")
	fs.IntVar(&cfg.MaxLatencyMs, "m", cfg.MaxLatencyMs, "max-latency threshold in ms")
	tests := fs.String("t", "", "comma-separated workload selection")
	fs.IntVar(&cfg.DBNum, "dbnum", cfg.DBNum, "SELECT database")
	fs.StringVar(&cfg.KeyPrefix, "kp", cfg.KeyPrefix, "key-prefix sentinel")
	fs.IntVar(&cfg.SubFields, "sk", cfg.SubFields, "sub-fields for ZADD/HMSET/HMGET")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "optional debug/metrics HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "diagnostic log level: debug|info|warn|error")

	if err = fs.Parse(args); err != nil {
		return nil, fs, err
	}

	cfg.Keepalive = *keepalive != 0
	if *random >= 0 {
		cfg.RandomKeys = true
		cfg.KeySize = *random
	}
	if *tests != "" {
		for _, t := range strings.Split(*tests, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Tests = append(cfg.Tests, t)
			}
		}
	}
	cfg.LiteralCommand = fs.Args()

	if err = cfg.validate(); err != nil {
		return nil, fs, err
	}
	return cfg, fs, nil
}

func (c *Config) validate() error {
	if c.KeyPrefix == "" {
		return errors.New("key-prefix must not be empty")
	}
	if c.Clients < 1 {
		return errors.New("-c must be >= 1")
	}
	if c.Pipeline < 1 {
		return errors.New("-P must be >= 1")
	}
	if c.DataSize < 1 {
		return errors.New("-d must be >= 1")
	}
	if c.DataSize > 1<<30 {
		return errors.New("-d must be <= 1073741824")
	}
	if c.SubFields < 1 {
		c.SubFields = 10
	}
	return nil
}
