// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parse

import (
	"regexp"
	"strconv"
)

// runtimePattern has two branches: "<h> h[our[s]] <m>" and "<m> m".
var runtimePattern = regexp.MustCompile(`(?i)(\d+)\s*ho?u?r?s?\s*(\d*)|(\d+)\s*m`)

// ParseDuration returns a running time in minutes. A nonzero bare-minutes
// capture wins; otherwise the result is hours*60 + minutes. Anything
// unusable is 0.
func ParseDuration(v interface{}) float64 {
	s, ok := Text(v)
	if !ok {
		return 0
	}
	g := runtimePattern.FindStringSubmatch(s)
	if g == nil {
		return 0
	}
	hours, minutes, bare := atoiOrZero(g[1]), atoiOrZero(g[2]), atoiOrZero(g[3])
	if bare != 0 {
		return float64(bare)
	}
	return float64(hours*60 + minutes)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
