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
	"os"
	"time"

	"rbench/internal/logging"
	"rbench/internal/netconn"
)

// connectPauseEvery and connectPauseFor implement spec.md §4.4's "pausing
// for ~50ms every 64 connects to respect OS listen backlog limits".
const (
	connectPauseEvery = 64
	connectPauseFor   = 50 * time.Millisecond
)

// createMissingClients is the C4 pool replenisher. It opens fresh
// connections from the run's template until liveClients reaches
// cfg.Clients — used both to populate the pool at the start of a workload
// and to top it back up after an I/O-error disposal (spec.md §4.4).
func (e *Engine) createMissingClients() error {
	connected := 0
	for e.liveClients < e.cfg.Clients {
		fd, inProgress, err := netconn.DialNonblocking(e.network, e.addr)
		if err != nil {
			logging.Errorf("connect %s failed: %v", e.addr, err)
			return os.NewSyscallError("connect", err)
		}

		c := newFreshClient(fd, inProgress, e.tmpl, e.cfg)
		if !c.connecting && !c.idle {
			c.beginRound()
		}
		if err := e.registerClient(c); err != nil {
			return err
		}

		connected++
		if connected%connectPauseEvery == 0 {
			time.Sleep(connectPauseFor)
		}
	}
	return nil
}
