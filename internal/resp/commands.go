// Copyright (c) 2011 Twitter, Inc.
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

package resp

import (
	"strconv"
	"strings"
)

// Workload names one of the built-in benchmark command shapes (spec.md §4.6).
type Workload string

const (
	PingInline   Workload = "ping_inline"
	PingBulk     Workload = "ping_bulk"
	Set          Workload = "set"
	Get          Workload = "get"
	Incr         Workload = "incr"
	Decr         Workload = "decr"
	Incrby       Workload = "incrby"
	Lpush        Workload = "lpush"
	Rpush        Workload = "rpush"
	Lpop         Workload = "lpop"
	Rpop         Workload = "rpop"
	Sadd         Workload = "sadd"
	Spop         Workload = "spop"
	Zadd         Workload = "zadd"
	Zrange       Workload = "zrange"
	Zrangebyscr  Workload = "zrangebyscore"
	Zrank        Workload = "zrank"
	Hset         Workload = "hset"
	Hget         Workload = "hget"
	Hmset        Workload = "hmset"
	Hmget        Workload = "hmget"
	Hkeys        Workload = "hkeys"
	Hincrby      Workload = "hincrby"
	Lrange100    Workload = "lrange_100"
	Lrange300    Workload = "lrange_300"
	Lrange450    Workload = "lrange_450"
	Lrange600    Workload = "lrange_600"
	Mset         Workload = "mset"
)

// titles gives the uppercase report heading for each workload (spec.md §4.7/§8 scenario 6).
var titles = map[Workload]string{
	PingInline:  "PING_INLINE",
	PingBulk:    "PING_BULK",
	Set:         "SET",
	Get:         "GET",
	Incr:        "INCR",
	Decr:        "DECR",
	Incrby:      "INCRBY",
	Lpush:       "LPUSH",
	Rpush:       "RPUSH",
	Lpop:        "LPOP",
	Rpop:        "RPOP",
	Sadd:        "SADD",
	Spop:        "SPOP",
	Zadd:        "ZADD",
	Zrange:      "ZRANGE",
	Zrangebyscr: "ZRANGEBYSCORE",
	Zrank:       "ZRANK",
	Hset:        "HSET",
	Hget:        "HGET",
	Hmset:       "HMSET",
	Hmget:       "HMGET",
	Hkeys:       "HKEYS",
	Hincrby:     "HINCRBY",
	Lrange100:   "LRANGE_100",
	Lrange300:   "LRANGE_300",
	Lrange450:   "LRANGE_450",
	Lrange600:   "LRANGE_600",
	Mset:        "MSET",
}

// DefaultSuite is the order the classic redis-benchmark default test list runs in.
var DefaultSuite = []Workload{
	PingInline, PingBulk, Set, Get, Incr, Decr, Incrby,
	Lpush, Rpush, Lpop, Rpop, Sadd, Spop,
	Zadd, Zrange, Zrangebyscr, Zrank,
	Hset, Hget, Hmset, Hmget, Hkeys, Hincrby,
	Lrange100, Lrange300, Lrange450, Lrange600,
	Mset,
}

// Title returns the report heading for w, or the uppercased name itself
// for an unrecognized/custom workload.
func Title(w Workload) string {
	if t, ok := titles[w]; ok {
		return t
	}
	return strings.ToUpper(string(w))
}

// ParseWorkload maps a -t selector token (case-insensitive) to a Workload.
func ParseWorkload(name string) (Workload, bool) {
	w := Workload(strings.ToLower(name))
	if _, ok := titles[w]; ok {
		return w, true
	}
	return "", false
}

// TemplateConfig carries exactly the knobs command assembly needs out of
// the process-wide configuration (spec.md §3 "Configuration").
type TemplateConfig struct {
	KeyPrefix   string // sentinel substring, --kp (default "__rand_int__")
	RandomKeys  bool   // -r given
	KeySize     int    // -r's argument: explicit randomization slot length
	PayloadSize int    // -d, SET/MSET payload size
	IncrBy      int    // -v, INCRBY/HINCRBY amount
	SubFields   int    // --sk, ZADD/HMSET/HMGET field count
}

// keyArg returns the literal text used at every position where a
// randomizable key belongs, and the number of trailing bytes of it that
// form the randomization slot (spec.md §4.6, §9 "workload-prefix length
// accounting"): the slot spans the sentinel text itself, unless an
// explicit -r keysize overrides the slot length, in which case the
// sentinel is truncated or padded with literal 'z' bytes to exactly that
// length. The returned slotLen is always the length of the slice of text
// that rand_ptrs scanning will treat as one occurrence.
func (c TemplateConfig) keyArg() (text string, slotLen int) {
	sentinel := c.KeyPrefix
	if !c.RandomKeys {
		return sentinel, len(sentinel)
	}
	slotLen = c.KeySize
	switch {
	case slotLen <= 0:
		return "", 0
	case slotLen < len(sentinel):
		return sentinel[:slotLen], slotLen
	case slotLen == len(sentinel):
		return sentinel, slotLen
	default:
		return sentinel + strings.Repeat("z", slotLen-len(sentinel)), slotLen
	}
}

func payload(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat("x", n)
}

// Build assembles the RESP byte string for one pipeline iteration of
// workload w. It never reallocates afterward and is safe to copy
// verbatim `pipeline` times into a Client's output buffer (spec.md §4.3).
func Build(w Workload, cfg TemplateConfig) []byte {
	key, _ := cfg.keyArg()
	var buf []byte

	switch w {
	case PingInline:
		return InlinePing(nil)
	case PingBulk:
		return AppendCommand(buf, "PING")
	case Set:
		return AppendCommand(buf, "SET", key, payload(cfg.PayloadSize))
	case Get:
		return AppendCommand(buf, "GET", key)
	case Incr:
		return AppendCommand(buf, "INCR", key)
	case Decr:
		return AppendCommand(buf, "DECR", key)
	case Incrby:
		return AppendCommand(buf, "INCRBY", key, strconv.Itoa(cfg.IncrBy))
	case Lpush:
		return AppendCommand(buf, "LPUSH", "mylist", key)
	case Rpush:
		return AppendCommand(buf, "RPUSH", "mylist", key)
	case Lpop:
		return AppendCommand(buf, "LPOP", "mylist")
	case Rpop:
		return AppendCommand(buf, "RPOP", "mylist")
	case Sadd:
		return AppendCommand(buf, "SADD", "myset", key)
	case Spop:
		return AppendCommand(buf, "SPOP", "myset")
	case Zadd:
		args := []string{"myzset:" + key}
		for i := 0; i < subFields(cfg); i++ {
			args = append(args, strconv.Itoa(i), key)
		}
		return AppendCommand(buf, "ZADD", args...)
	case Zrange:
		return AppendCommand(buf, "ZRANGE", "myzset:"+key, "0", "-1")
	case Zrangebyscr:
		return AppendCommand(buf, "ZRANGEBYSCORE", "myzset:"+key, "0", "-1")
	case Zrank:
		return AppendCommand(buf, "ZRANK", "myzset:"+key, key)
	case Hset:
		return AppendCommand(buf, "HSET", "myset:"+key, key, key)
	case Hget:
		return AppendCommand(buf, "HGET", "myset:"+key, key)
	case Hmset:
		args := []string{"myset:" + key}
		for i := 0; i < subFields(cfg); i++ {
			args = append(args, key+strconv.Itoa(i), key)
		}
		return AppendCommand(buf, "HMSET", args...)
	case Hmget:
		args := []string{"myset:" + key}
		for i := 0; i < subFields(cfg); i++ {
			args = append(args, key+strconv.Itoa(i))
		}
		return AppendCommand(buf, "HMGET", args...)
	case Hkeys:
		return AppendCommand(buf, "HKEYS", "myset:"+key)
	case Hincrby:
		return AppendCommand(buf, "HINCRBY", "myset:"+key, key, strconv.Itoa(cfg.IncrBy))
	case Lrange100:
		return AppendCommand(buf, "LRANGE", "mylist", "0", "99")
	case Lrange300:
		return AppendCommand(buf, "LRANGE", "mylist", "0", "299")
	case Lrange450:
		return AppendCommand(buf, "LRANGE", "mylist", "0", "449")
	case Lrange600:
		return AppendCommand(buf, "LRANGE", "mylist", "0", "599")
	case Mset:
		args := make([]string, 0, 20)
		for i := 0; i < 10; i++ {
			args = append(args, key, payload(cfg.PayloadSize))
		}
		return AppendCommand(buf, "MSET", args...)
	default:
		return AppendCommand(buf, strings.ToUpper(string(w)), key)
	}
}

// SlotLength exposes the randomization slot length keyArg computes, so the
// client pool can scan a rendered template for sentinel occurrences without
// duplicating the -r/keysize arithmetic (spec.md §4.3 step 4).
func SlotLength(cfg TemplateConfig) int {
	_, slotLen := cfg.keyArg()
	return slotLen
}

func subFields(cfg TemplateConfig) int {
	if cfg.SubFields < 1 {
		return 10
	}
	return cfg.SubFields
}
