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
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DateShape names one accepted date layout.
type DateShape string

const (
	// MonthDayYear is "January 2, 2006" with a one or two digit day.
	MonthDayYear DateShape = "month_day_year"
	// YearMonthDay is "2006-01-02" with any single separator character.
	YearMonthDay DateShape = "year_month_day"
	// MonthYear is "January 2006"; it resolves to the first of the month.
	MonthYear DateShape = "month_year"
	// Year is a bare "2006"; it resolves to January 1st.
	Year DateShape = "year"
)

// DefaultDateShapes is the shape priority used when none is configured.
var DefaultDateShapes = []DateShape{MonthDayYear, YearMonthDay, MonthYear, Year}

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

type dateShape struct {
	name    DateShape
	pattern *regexp.Regexp
	build   func(groups []string) (time.Time, bool)
}

var knownShapes = map[DateShape]dateShape{
	MonthDayYear: {
		name:    MonthDayYear,
		pattern: regexp.MustCompile(`(?i)(` + monthNames + `)\s([0-3]?\d),\s(\d{4})`),
		build: func(g []string) (time.Time, bool) {
			return civilDate(g[3], monthNumber(g[1]), g[2])
		},
	},
	YearMonthDay: {
		name:    YearMonthDay,
		pattern: regexp.MustCompile(`(\d{4}).([01]\d).([0-3]\d)`),
		build: func(g []string) (time.Time, bool) {
			m, _ := strconv.Atoi(g[2])
			return civilDate(g[1], m, g[3])
		},
	},
	MonthYear: {
		name:    MonthYear,
		pattern: regexp.MustCompile(`(?i)(` + monthNames + `)\s(\d{4})`),
		build: func(g []string) (time.Time, bool) {
			return civilDate(g[2], monthNumber(g[1]), "1")
		},
	},
	Year: {
		name:    Year,
		pattern: regexp.MustCompile(`(\d{4})`),
		build: func(g []string) (time.Time, bool) {
			return civilDate(g[1], 1, "1")
		},
	},
}

// DateParser extracts a calendar date from free text. Shapes are tried in
// the configured priority; the first shape that matches anywhere in the text
// decides the result.
type DateParser struct {
	shapes []dateShape
}

// NewDateParser builds a parser for the given shapes in priority order. With
// no shapes it uses DefaultDateShapes.
//
// Inputs:
//   - shapes: Accepted shapes, highest priority first.
//
// Outputs:
//   - *DateParser: The parser.
//   - error: Non-nil when a shape name is unknown or repeated.
func NewDateParser(shapes ...DateShape) (*DateParser, error) {
	if len(shapes) == 0 {
		shapes = DefaultDateShapes
	}
	out := &DateParser{shapes: make([]dateShape, 0, len(shapes))}
	seen := make(map[DateShape]bool, len(shapes))
	for _, name := range shapes {
		shape, ok := knownShapes[DateShape(strings.ToLower(string(name)))]
		if !ok {
			return nil, fmt.Errorf("unknown date shape %q", name)
		}
		if seen[shape.name] {
			return nil, fmt.Errorf("date shape %q listed twice", name)
		}
		seen[shape.name] = true
		out.shapes = append(out.shapes, shape)
	}
	return out, nil
}

// Shapes returns the configured shapes in priority order.
func (p *DateParser) Shapes() []DateShape {
	out := make([]DateShape, len(p.shapes))
	for i, s := range p.shapes {
		out[i] = s.name
	}
	return out
}

// Parse extracts a date from v. Lists are joined with spaces first. ok is
// false for non-text input, text with no matching shape, or a match that is
// not a real date.
func (p *DateParser) Parse(v interface{}) (t time.Time, ok bool) {
	s, ok := Text(v)
	if !ok {
		return time.Time{}, false
	}
	for _, shape := range p.shapes {
		groups := shape.pattern.FindStringSubmatch(s)
		if groups == nil {
			continue
		}
		return shape.build(groups)
	}
	return time.Time{}, false
}

func monthNumber(name string) int {
	folder := cases.Fold()
	key := folder.String(name)
	for i, m := range strings.Split(monthNames, "|") {
		if folder.String(m) == key {
			return i + 1
		}
	}
	return 0
}

func civilDate(year string, month int, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || month < 1 || month > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(month), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
