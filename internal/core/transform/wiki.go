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
	"regexp"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/parse"
)

// Encyclopedic field names used by the filter and the derived columns.
const (
	FieldDirector     = "Director"
	FieldDirectedBy   = "Directed by"
	FieldImdbLink     = "imdb_link"
	FieldEpisodeCount = "No. of episodes"
	FieldImdbID       = "imdb_id"

	FieldBoxOfficeText   = "Box office"
	FieldBudgetText      = "Budget"
	FieldReleaseDateText = "Release date"
	FieldRunningTimeText = "Running time"

	FieldBoxOffice   = "box_office"
	FieldBudget      = "budget"
	FieldReleaseDate = "release_date"
	FieldRunningTime = "running_time"
)

// DefaultSparseColumnRatio is the null share at which a column is dropped.
const DefaultSparseColumnRatio = 0.9

var imdbIDPattern = regexp.MustCompile(`tt\d{7}`)

// SelectFilms keeps records that name a director, link to IMDb and have no
// episode count. Order is preserved.
func SelectFilms(raw []model.RawRecordA) []model.RawRecordA {
	out := make([]model.RawRecordA, 0, len(raw))
	for _, r := range raw {
		_, director := r[FieldDirector]
		_, directedBy := r[FieldDirectedBy]
		_, link := r[FieldImdbLink]
		_, episodes := r[FieldEpisodeCount]
		if (director || directedBy) && link && !episodes {
			out = append(out, r)
		}
	}
	return out
}

// ExtractImdbID returns the first "tt" + 7 digit token of a link.
func ExtractImdbID(link interface{}) (string, bool) {
	s, ok := link.(string)
	if !ok {
		return "", false
	}
	id := imdbIDPattern.FindString(s)
	return id, id != ""
}

// DedupByImdbID sets imdb_id on every row and keeps only the first row for
// each id. Rows without an id share a single "no value" key, so only the
// first of them survives.
//
// Outputs:
//   - *model.Frame: The deduplicated frame with an imdb_id column.
//   - int: The number of rows dropped.
func DedupByImdbID(rows []model.Row) (*model.Frame, int) {
	seen := make(map[string]bool, len(rows))
	noKeySeen := false
	kept := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		cp := make(model.Row, len(row)+1)
		for k, v := range row {
			cp[k] = v
		}
		id, ok := ExtractImdbID(row[FieldImdbLink])
		if ok {
			cp[FieldImdbID] = id
			if seen[id] {
				continue
			}
			seen[id] = true
		} else {
			cp[FieldImdbID] = nil
			if noKeySeen {
				continue
			}
			noKeySeen = true
		}
		kept = append(kept, cp)
	}
	f := model.FrameFromRows(kept)
	if !f.HasColumn(FieldImdbID) {
		f.Columns = append(f.Columns, FieldImdbID)
	}
	return f, len(rows) - len(kept)
}

// PruneSparseColumns drops every column whose null count is at least ratio
// of the row count. A column is null in a row when the row has no value for
// it; an empty string is a value. An empty frame is returned unchanged.
//
// Outputs:
//   - *model.Frame: The pruned frame.
//   - []string: The dropped columns in column order.
func PruneSparseColumns(f *model.Frame, ratio float64) (*model.Frame, []string) {
	if f.Len() == 0 {
		return f.Clone(), nil
	}
	limit := float64(f.Len()) * ratio
	var sparse []string
	for _, c := range f.Columns {
		if float64(f.NullCount(c)) >= limit {
			sparse = append(sparse, c)
		}
	}
	if len(sparse) == 0 {
		return f.Clone(), nil
	}
	out, _ := f.Drop(sparse...)
	return out, sparse
}

// deriveColumn sets target from fn(source value) for every row and drops the
// source column when dropSource is set. A missing source column fills target
// with fn(nil) and reports ErrMissingField.
func deriveColumn(f *model.Frame, source string, target string, dropSource bool, fn func(interface{}) interface{}) (*model.Frame, error) {
	if !f.HasColumn(source) {
		return f.WithColumn(target, func(model.Row) interface{} { return fn(nil) }),
			&model.FieldError{Field: source, Err: model.ErrMissingField}
	}
	out := f.WithColumn(target, func(row model.Row) interface{} { return fn(row[source]) })
	if dropSource {
		return out.Drop(source)
	}
	return out, nil
}

// DeriveBoxOffice parses "Box office" into box_office and drops the text.
func DeriveBoxOffice(f *model.Frame) (*model.Frame, error) {
	return deriveColumn(f, FieldBoxOfficeText, FieldBoxOffice, true, currencyOrNil)
}

// DeriveBudget parses "Budget" into budget and drops the text.
func DeriveBudget(f *model.Frame) (*model.Frame, error) {
	return deriveColumn(f, FieldBudgetText, FieldBudget, true, currencyOrNil)
}

// DeriveReleaseDate parses "Release date" into release_date. The text column
// is kept.
func DeriveReleaseDate(f *model.Frame, dates *parse.DateParser) (*model.Frame, error) {
	return deriveColumn(f, FieldReleaseDateText, FieldReleaseDate, false, func(v interface{}) interface{} {
		if t, ok := dates.Parse(v); ok {
			return t
		}
		return nil
	})
}

// DeriveRunningTime parses "Running time" into running_time minutes and
// drops the text. Unusable values become 0.
func DeriveRunningTime(f *model.Frame) (*model.Frame, error) {
	return deriveColumn(f, FieldRunningTimeText, FieldRunningTime, true, func(v interface{}) interface{} {
		return parse.ParseDuration(v)
	})
}

func currencyOrNil(v interface{}) interface{} {
	if amount, ok := parse.ParseCurrency(v); ok {
		return amount
	}
	return nil
}
