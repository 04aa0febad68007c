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

package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/parse"
)

// Catalog column names.
const (
	ColumnAdult       = "adult"
	ColumnVideo       = "video"
	ColumnID          = "id"
	ColumnBudget      = "budget"
	ColumnPopularity  = "popularity"
	ColumnReleaseDate = "release_date"
	ColumnRuntime     = "runtime"
	ColumnRevenue     = "revenue"
	ColumnVoteAverage = "vote_average"
	ColumnVoteCount   = "vote_count"
)

// lenientNumeric columns become numbers when they parse and stay text
// otherwise.
var lenientNumeric = []string{ColumnRuntime, ColumnRevenue, ColumnVoteAverage, ColumnVoteCount}

// CoercionReport summarizes what CoerceCatalog removed.
type CoercionReport struct {
	Input       int
	AdultOrFlag int     // rows whose adult flag was not exactly "False"
	Excluded    []error // one *model.RowError per row excluded by a coercion failure
	DateMisses  int     // release dates that did not parse and became "no value"
	Output      int
}

// CoerceCatalog types the catalog export. Rows whose adult flag is not
// exactly "False" are removed and the flag column is dropped. video becomes a
// bool. id and budget must be integers and popularity a number; a row where
// any of them fails is excluded. release_date becomes a date or "no value".
// runtime, revenue, vote_average and vote_count become numbers when they
// parse. Empty cells are "no value".
func CoerceCatalog(catalog *model.Catalog, dates *parse.DateParser) (*model.Frame, CoercionReport) {
	report := CoercionReport{Input: len(catalog.Records)}

	columns := make([]string, 0, len(catalog.Header))
	for _, h := range catalog.Header {
		if h != ColumnAdult {
			columns = append(columns, h)
		}
	}
	out := model.NewFrame(columns...)

	for i, rec := range catalog.Records {
		if rec[ColumnAdult] != "False" {
			report.AdultOrFlag++
			continue
		}
		row, err := coerceRow(i, rec, dates, &report)
		if err != nil {
			report.Excluded = append(report.Excluded, err)
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	report.Output = out.Len()
	return out, report
}

func coerceRow(index int, rec model.RawRecordB, dates *parse.DateParser, report *CoercionReport) (model.Row, error) {
	row := make(model.Row, len(rec))
	for k, v := range rec {
		if k == ColumnAdult || v == "" {
			continue
		}
		row[k] = v
	}

	row[ColumnVideo] = rec[ColumnVideo] == "True"

	for _, col := range []string{ColumnID, ColumnBudget} {
		n, ok := parseInteger(rec[col])
		if !ok {
			return nil, &model.RowError{Row: index, Field: col, Value: rec[col], Err: model.ErrCoercionFailure}
		}
		row[col] = n
	}

	popularity, err := strconv.ParseFloat(strings.TrimSpace(rec[ColumnPopularity]), 64)
	if err != nil {
		return nil, &model.RowError{Row: index, Field: ColumnPopularity, Value: rec[ColumnPopularity], Err: model.ErrCoercionFailure}
	}
	row[ColumnPopularity] = popularity

	if raw := rec[ColumnReleaseDate]; raw != "" {
		if t, ok := dates.Parse(raw); ok {
			row[ColumnReleaseDate] = t
		} else {
			report.DateMisses++
			delete(row, ColumnReleaseDate)
		}
	}

	for _, col := range lenientNumeric {
		if raw, ok := rec[col]; ok && raw != "" {
			if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				row[col] = f
			}
		}
	}
	return row, nil
}

// parseInteger accepts "123" and integral decimals such as "123.0".
func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
