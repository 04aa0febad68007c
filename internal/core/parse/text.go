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

// Package parse turns free-text encyclopedic values into typed values: money
// amounts, calendar dates and running times in minutes. Parsers never fail a
// batch; an unusable value yields "no value" (money, dates) or zero
// (durations).
package parse

import (
	"regexp"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

var (
	// citationMarker matches footnote references such as "[3] ".
	citationMarker = regexp.MustCompile(`\[\d+\]\s*`)

	// moneyRange matches "$A - B" style ranges. The delimiter is a hyphen,
	// a Unicode dash (U+2010..U+2015) or the word "to". Group 1 is the lower
	// bound including any magnitude word attached to it.
	moneyRange = regexp.MustCompile(`(?i)(\$\s*\d[\d,.]*(?:\s*[mb]illi?on)?)\s*(?:[-\x{2010}-\x{2015}]|\bto\b)\s*\$?\s*\d[\d,.]*`)
)

// Text flattens a value to a single string: lists are joined with spaces.
func Text(v interface{}) (string, bool) {
	return model.JoinText(v)
}

// MoneyText prepares a money value for CurrencyParser. It flattens lists,
// strips citation markers and collapses a range to its lower bound, keeping a
// magnitude word that follows the upper bound ("$1.5-2 million" becomes
// "$1.5 million").
func MoneyText(v interface{}) (string, bool) {
	s, ok := model.JoinText(v)
	if !ok {
		return "", false
	}
	s = citationMarker.ReplaceAllString(s, "")
	s = moneyRange.ReplaceAllString(s, "$1")
	return s, true
}
