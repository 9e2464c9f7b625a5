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
	"bytes"
	"math/rand"
	"strconv"

	"rbench/internal/resp"
	"rbench/internal/unsafestr"
)

// randAlphabet is the 70-character set random-keys mode draws from
// (spec.md §4.1: "0-9!@#$%^&*A-Za-z (length 70)").
const randAlphabet = "0123456789!@#$%^&*ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// randSlot is an (offset, length) pair into a Client's output buffer, per
// spec.md §9's explicit redesign guidance away from raw pointers: storing
// offsets rather than slice aliases means the buffer can be reallocated
// without invalidating them, though rbench (like the source) never does.
type randSlot struct {
	offset int
	length int
}

// Template is the immutable, per-workload command shape that every Client
// built for one benchmark run copies from (C6's output feeding into C3,
// spec.md §2 "Data flow").
type Template struct {
	cmdBytes []byte // one RESP command, from resp.Build
	keyPrefix string
	slotLen  int // randomization slot length, from resp.SlotLength
}

// NewTemplate renders the command bytes for workload w under cfg.
func NewTemplate(w resp.Workload, cfg resp.TemplateConfig) *Template {
	slotLen := resp.SlotLength(cfg)
	keyPrefix := cfg.KeyPrefix
	if cfg.RandomKeys && slotLen < len(keyPrefix) {
		// Build truncated the sentinel to slotLen bytes; scan for that text.
		keyPrefix = keyPrefix[:slotLen]
	}
	return &Template{
		cmdBytes:  resp.Build(w, cfg),
		keyPrefix: keyPrefix,
		slotLen:   slotLen,
	}
}

// NewLiteralTemplate builds a template from a trailing-argument literal
// command (spec.md §6 "Trailing non-flag arguments").
func NewLiteralTemplate(args []string, cfg resp.TemplateConfig) *Template {
	if len(args) == 0 {
		return &Template{cmdBytes: resp.InlinePing(nil)}
	}
	return &Template{
		cmdBytes:  resp.AppendCommand(nil, args[0], args[1:]...),
		keyPrefix: cfg.KeyPrefix,
		slotLen:   resp.SlotLength(cfg),
	}
}

// Client is the C3 state machine: one non-blocking connection plus the
// prebuilt, pipeline-repeated output buffer and its randomization slots.
type Client struct {
	fd int

	buf           []byte
	prefixLen     int
	prefixPending int
	written       int
	pending       int

	startUs   int64
	latencyUs int64

	randSlots []randSlot

	reader resp.Buffer

	pipeline   int
	connecting bool // non-blocking connect() still in flight

	// idle is true for -I clients: they register for read readiness only
	// and never enter the WRITING state (spec.md §6 "-I idle mode").
	idle bool
}

// newOutputBuffer assembles the prefix + pipeline-repeated body (spec.md
// §4.3 steps 2-4) and returns the buffer along with the prefix length and
// the randomization slots found in it.
func newOutputBuffer(tmpl *Template, cfg *Config) (buf []byte, prefixLen int, slots []randSlot) {
	if cfg.DBNum != 0 {
		buf = resp.AppendCommand(buf, "SELECT", strconv.Itoa(cfg.DBNum))
		prefixLen = len(buf)
	}
	if tmpl == nil {
		return buf, prefixLen, nil
	}
	bodyStart := len(buf)
	for i := 0; i < cfg.Pipeline; i++ {
		buf = append(buf, tmpl.cmdBytes...)
	}
	if cfg.RandomKeys && tmpl.keyPrefix != "" && tmpl.slotLen > 0 {
		slots = scanSentinels(buf[bodyStart:], tmpl.keyPrefix, tmpl.slotLen, bodyStart)
	}
	return buf, prefixLen, slots
}

// scanSentinels finds every occurrence of sentinel in body, recording an
// (offset, slotLen) pair for each and advancing the scan by slotLen so the
// randomization region itself is never re-scanned (spec.md §4.3 step 4).
// The slot array starts at capacity 8 and grows geometrically, exactly as
// spec.md describes, even though Go's append already does this for us past
// the initial allocation.
func scanSentinels(body []byte, sentinel string, slotLen, baseOffset int) []randSlot {
	slots := make([]randSlot, 0, 8)
	// sentinel (cfg.KeyPrefix) outlives this scan and is only ever read here,
	// so reinterpreting it avoids copying it on every pipelined template build.
	needle := unsafestr.S2B(sentinel)
	i := 0
	for {
		idx := bytes.Index(body[i:], needle)
		if idx == -1 {
			break
		}
		pos := i + idx
		slots = append(slots, randSlot{offset: baseOffset + pos, length: slotLen})
		i = pos + slotLen
		if i >= len(body) {
			break
		}
	}
	return slots
}

// newFreshClient constructs a Client from the template (spec.md §4.3
// "Constructing from a template").
func newFreshClient(fd int, connecting bool, tmpl *Template, cfg *Config) *Client {
	buf, prefixLen, slots := newOutputBuffer(tmpl, cfg)
	c := &Client{
		fd:         fd,
		buf:        buf,
		prefixLen:  prefixLen,
		randSlots:  slots,
		pipeline:   cfg.Pipeline,
		connecting: connecting,
		idle:       cfg.Idle,
	}
	if prefixLen > 0 {
		c.prefixPending = 1
	}
	return c
}

// cloneClient builds a replacement for src on a new connection (spec.md
// §4.3 "Constructing by cloning an existing Client"). By the time a client
// is cloned its prefix has always already been trimmed (round termination
// only clones after a completed round), so src.prefixLen is 0 and the
// translation collapses to "add the new prefix length".
func cloneClient(fd int, connecting bool, src *Client, tmpl *Template, cfg *Config) *Client {
	var buf []byte
	var prefixLen int
	if cfg.DBNum != 0 {
		buf = resp.AppendCommand(buf, "SELECT", strconv.Itoa(cfg.DBNum))
		prefixLen = len(buf)
	}
	body := src.buf[src.prefixLen:]
	buf = append(buf, body...)

	slots := make([]randSlot, len(src.randSlots))
	for i, s := range src.randSlots {
		slots[i] = randSlot{
			offset: s.offset - src.prefixLen + prefixLen,
			length: s.length,
		}
	}

	c := &Client{
		fd:         fd,
		buf:        buf,
		prefixLen:  prefixLen,
		randSlots:  slots,
		pipeline:   cfg.Pipeline,
		connecting: connecting,
		idle:       cfg.Idle,
	}
	if prefixLen > 0 {
		c.prefixPending = 1
	}
	return c
}

// beginRound resets per-round bookkeeping to the WRITING state (spec.md
// §4.1 "initial state after connect").
func (c *Client) beginRound() {
	c.written = 0
	c.pending = c.pipeline + c.prefixPending
	c.latencyUs = -1
}

// randomize overwrites every randomization slot with fresh alphabet bytes
// (spec.md §4.1 writable-readiness step 1).
func (c *Client) randomize(rng *rand.Rand) {
	for _, s := range c.randSlots {
		region := c.buf[s.offset : s.offset+s.length]
		for i := range region {
			region[i] = randAlphabet[rng.Intn(len(randAlphabet))]
		}
	}
}

// trimPrefix drops the first prefixLen bytes once the SELECT reply has been
// consumed and rebases every randomization slot and the write cursor
// (called from onReadable's prefix-reply branch; spec.md §4.1 / §4.2).
func (c *Client) trimPrefix() {
	if c.prefixLen == 0 {
		return
	}
	c.buf = append(c.buf[:0], c.buf[c.prefixLen:]...)
	for i := range c.randSlots {
		c.randSlots[i].offset -= c.prefixLen
	}
	c.written -= c.prefixLen
	if c.written < 0 {
		c.written = 0
	}
	c.prefixLen = 0
}
