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

package parse_test

import (
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{"$1.2 million", 1_200_000},
		{"$3 billion", 3_000_000_000},
		{"$12,345,678", 12_345_678},
		{"$1,200,000", 1_200_000},
		{"$12 million[1]", 12_000_000},
		{"$1.5-2 million", 1_500_000},
		{"$20 to $25 million", 20_000_000},
		{"$1.2–3 million", 1_200_000},
		{"US$ 4.5 millon", 4_500_000},
		{"Budget: $700,000 (est.)", 700_000},
		{[]interface{}{"$5 million", "(estimated)"}, 5_000_000},
	}
	for _, c := range cases {
		got, ok := parse.ParseCurrency(c.in)
		if assert.True(t, ok, "%v", c.in) {
			assert.InDelta(t, c.want, got, 0.001, "%v", c.in)
		}
	}
}

func TestParseCurrencyNoValue(t *testing.T) {
	for _, in := range []interface{}{"N/A", "", "12 million", nil, 42, map[string]interface{}{"a": "$1"}} {
		_, ok := parse.ParseCurrency(in)
		assert.False(t, ok, "%v", in)
	}
}

func TestExtractAmountPrefersScaledForm(t *testing.T) {
	// A grouped amount followed by a magnitude word is neither form.
	_, ok := parse.ExtractAmount("$1,500 million")
	assert.False(t, ok)

	m, ok := parse.ExtractAmount("about $2 billion worldwide")
	require.True(t, ok)
	assert.Equal(t, "$2 billion", m)

	_, ok = parse.ExtractAmount("$ unknown")
	assert.False(t, ok)
}

func TestMoneyText(t *testing.T) {
	s, ok := parse.MoneyText("$1.5—2 million[3] ")
	require.True(t, ok)
	assert.Equal(t, "$1.5 million", s)

	_, ok = parse.MoneyText(3.5)
	assert.False(t, ok)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateParserShapes(t *testing.T) {
	p, err := parse.NewDateParser()
	require.NoError(t, err)
	assert.Equal(t, parse.DefaultDateShapes, p.Shapes())

	cases := []struct {
		in   interface{}
		want time.Time
	}{
		{"January 1, 2000", date(2000, time.January, 1)},
		{"2000-01-01", date(2000, time.January, 1)},
		{"2000/12/31", date(2000, time.December, 31)},
		{"January 2000", date(2000, time.January, 1)},
		{"2000", date(2000, time.January, 1)},
		{"july 4, 1999", date(1999, time.July, 4)},
		{"1998 re-release; July 1, 1999", date(1999, time.July, 1)},
		{[]interface{}{"July 1, 1999", "(United States)"}, date(1999, time.July, 1)},
	}
	for _, c := range cases {
		got, ok := p.Parse(c.in)
		if assert.True(t, ok, "%v", c.in) {
			assert.Equal(t, c.want, got, "%v", c.in)
		}
	}
}

func TestDateParserNoValue(t *testing.T) {
	p, err := parse.NewDateParser()
	require.NoError(t, err)
	for _, in := range []interface{}{"", "sometime soon", "February 30, 2000", nil, 1999} {
		_, ok := p.Parse(in)
		assert.False(t, ok, "%v", in)
	}
}

func TestDateParserConfiguredPriority(t *testing.T) {
	p, err := parse.NewDateParser(parse.Year, parse.MonthDayYear)
	require.NoError(t, err)
	got, ok := p.Parse("July 1, 1999")
	require.True(t, ok)
	assert.Equal(t, date(1999, time.January, 1), got)

	p, err = parse.NewDateParser(parse.YearMonthDay)
	require.NoError(t, err)
	_, ok = p.Parse("January 2000")
	assert.False(t, ok)

	_, err = parse.NewDateParser("day_month_year")
	assert.Error(t, err)
	_, err = parse.NewDateParser(parse.Year, parse.Year)
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{"1h 30", 90},
		{"45 m", 45},
		{"95 min", 95},
		{"80 minutes", 80},
		{"2 hours", 120},
		{"1 hr 5", 65},
		{"", 0},
		{nil, 0},
		{"unknown", 0},
		{[]interface{}{"102 minutes", "(director's cut)"}, 102},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parse.ParseDuration(c.in), "%v", c.in)
	}
}
