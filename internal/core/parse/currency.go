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
	"strings"
)

var (
	scaledAmount   = regexp.MustCompile(`(?i)^\$\s*\d+\.?\d*\s*[mb]illi?on`)
	millionAmount  = regexp.MustCompile(`(?i)^\$\s*\d+\.?\d*\s*milli?on`)
	billionAmount  = regexp.MustCompile(`(?i)^\$\s*\d+\.?\d*\s*billi?on`)
	groupedAmount  = regexp.MustCompile(`^\$\s*\d{1,3}(?:[,.]\d{3})+`)
	magnitudeAfter = regexp.MustCompile(`(?i)^\s[mb]illion`)
	scaledNoise    = regexp.MustCompile(`[$\sa-zA-Z]`)
	groupedNoise   = regexp.MustCompile(`[$\s,.]`)
)

// ParseCurrency converts a money value to an amount in base units. The value
// is prepared with MoneyText, the first amount is extracted and then parsed.
// ok is false when nothing usable was found.
func ParseCurrency(v interface{}) (amount float64, ok bool) {
	s, ok := MoneyText(v)
	if !ok {
		return 0, false
	}
	m, ok := ExtractAmount(s)
	if !ok {
		return 0, false
	}
	return ParseAmount(m)
}

// ExtractAmount returns the first "$N million/billion" or "$N,NNN,NNN"
// expression in s. At each "$" the scaled form is tried before the grouped
// form.
func ExtractAmount(s string) (string, bool) {
	for i := strings.IndexByte(s, '$'); i >= 0 && i < len(s); {
		rest := s[i:]
		if m := scaledAmount.FindString(rest); m != "" {
			return m, true
		}
		if m, ok := matchGrouped(rest); ok {
			return m, true
		}
		next := strings.IndexByte(s[i+1:], '$')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return "", false
}

// matchGrouped matches a thousands-grouped amount at the start of s that is
// not immediately followed by " million"/" billion". When the longest match is
// followed by a magnitude word, trailing groups are given back until the
// remainder no longer starts with one.
func matchGrouped(s string) (string, bool) {
	m := groupedAmount.FindString(s)
	for m != "" {
		if !magnitudeAfter.MatchString(s[len(m):]) {
			return m, true
		}
		m = m[:len(m)-4]
		if groupedAmount.FindString(m) != m {
			return "", false
		}
	}
	return "", false
}

// ParseAmount parses an extracted amount. Rules are tried in order:
// millions, billions, then thousands-grouped digits with no multiplier.
func ParseAmount(s string) (float64, bool) {
	switch {
	case millionAmount.MatchString(s):
		return scaled(s, 1e6)
	case billionAmount.MatchString(s):
		return scaled(s, 1e9)
	}
	if m, ok := matchGrouped(s); ok {
		f, err := strconv.ParseFloat(groupedNoise.ReplaceAllString(m, ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func scaled(s string, multiplier float64) (float64, bool) {
	number := scaledNoise.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}
