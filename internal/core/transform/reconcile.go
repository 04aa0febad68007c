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
	"fmt"
	"math"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// Suffixes given to columns that exist in both sources after the join.
const (
	SuffixWiki    = "_wiki"
	SuffixCatalog = "_kaggle"
)

// SupersededColumns are encyclopedic columns whose catalog counterpart wins
// outright: title, release date, language and production companies.
var SupersededColumns = []string{"title" + SuffixWiki, "release_date" + SuffixWiki, "Language", "Production company(s)"}

// FillRule keeps Keep and, where Keep is zero, takes the value of Fallback.
// Fallback is dropped afterwards.
type FillRule struct {
	Stage    string
	Keep     string
	Fallback string
}

// FillRules are the fill-on-zero pairs in application order.
var FillRules = []FillRule{
	{Stage: "fill-runtime", Keep: ColumnRuntime, Fallback: FieldRunningTime},
	{Stage: "fill-budget", Keep: ColumnBudget + SuffixCatalog, Fallback: FieldBudget + SuffixWiki},
	{Stage: "fill-revenue", Keep: ColumnRevenue, Fallback: FieldBoxOffice},
}

// TargetColumns is the published column order before renaming.
var TargetColumns = []string{
	"imdb_id", "id", "title_kaggle", "original_title", "tagline", "belongs_to_collection", "url", "imdb_link",
	"runtime", "budget_kaggle", "revenue", "release_date_kaggle", "popularity", "vote_average", "vote_count",
	"genres", "original_language", "overview", "spoken_languages", "Country", "production_companies",
	"production_countries", "Distributor", "Producer(s)", "Director", "Starring", "Cinematography", "Editor(s)",
	"Writer(s)", "Composer(s)", "Based on",
}

// PublishedNames renames projected columns to their published names.
var PublishedNames = [][2]string{
	{"id", "kaggle_id"},
	{"title_kaggle", "title"},
	{"url", "wikipedia_url"},
	{"budget_kaggle", "budget"},
	{"release_date_kaggle", "release_date"},
	{"Country", "country"},
	{"Distributor", "distributor"},
	{"Producer(s)", "producers"},
	{"Director", "director"},
	{"Starring", "starring"},
	{"Cinematography", "cinematography"},
	{"Editor(s)", "editors"},
	{"Writer(s)", "writers"},
	{"Composer(s)", "composers"},
	{"Based on", "based_on"},
}

// CatalogIDColumns are the names the catalog id can have, published name
// first.
var CatalogIDColumns = []string{"kaggle_id", "id"}

// DateWindow is the plausibility check on the two release dates of a joined
// row. A row is implausible when one date is after Newer while the other is
// before Older.
type DateWindow struct {
	Newer time.Time
	Older time.Time
}

// DefaultDateWindow is the catalog's coverage window.
var DefaultDateWindow = DateWindow{
	Newer: time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC),
	Older: time.Date(1965, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// Join inner-joins the encyclopedic frame a with the catalog frame b on
// imdb_id. Columns other than imdb_id that exist in both get the _wiki and
// _kaggle suffixes. Rows follow a's order. When b repeats an id, the first
// catalog row is used. Rows without an id never match.
func Join(a *model.Frame, b *model.Frame) (*model.Frame, error) {
	if !a.HasColumn(FieldImdbID) || !b.HasColumn(FieldImdbID) {
		return nil, &model.StageError{Stage: "join", Reason: "both sources need an imdb_id column", Err: model.ErrStageFailure}
	}

	inA := make(map[string]bool, len(a.Columns))
	for _, c := range a.Columns {
		inA[c] = true
	}
	shared := make(map[string]bool)
	for _, c := range b.Columns {
		if c != FieldImdbID && inA[c] {
			shared[c] = true
		}
	}
	nameA := func(c string) string {
		if shared[c] {
			return c + SuffixWiki
		}
		return c
	}
	nameB := func(c string) string {
		if shared[c] {
			return c + SuffixCatalog
		}
		return c
	}

	columns := make([]string, 0, len(a.Columns)+len(b.Columns))
	for _, c := range a.Columns {
		columns = append(columns, nameA(c))
	}
	for _, c := range b.Columns {
		if c != FieldImdbID {
			columns = append(columns, nameB(c))
		}
	}
	out := model.NewFrame(columns...)

	index := make(map[string]model.Row, b.Len())
	for _, row := range b.Rows {
		id, ok := row[FieldImdbID].(string)
		if !ok || id == "" {
			continue
		}
		if _, dup := index[id]; !dup {
			index[id] = row
		}
	}

	for _, left := range a.Rows {
		id, ok := left[FieldImdbID].(string)
		if !ok {
			continue
		}
		right, ok := index[id]
		if !ok {
			continue
		}
		joined := make(model.Row, len(left)+len(right))
		for k, v := range left {
			joined[nameA(k)] = v
		}
		for k, v := range right {
			if k != FieldImdbID {
				joined[nameB(k)] = v
			}
		}
		out.Rows = append(out.Rows, joined)
	}
	return out, nil
}

// PruneDateMismatch removes joined rows whose two release dates fall on
// opposite sides of the window, in either direction. Rows missing either
// date are kept.
//
// Outputs:
//   - *model.Frame: The surviving rows.
//   - int: The number of rows removed.
//   - error: A *model.StageError when either date column is absent.
func PruneDateMismatch(f *model.Frame, w DateWindow) (*model.Frame, int, error) {
	wiki, catalog := FieldReleaseDate+SuffixWiki, ColumnReleaseDate+SuffixCatalog
	if missing := f.Missing(wiki, catalog); len(missing) > 0 {
		return nil, 0, &model.StageError{Stage: "prune-date-mismatch", Reason: fmt.Sprintf("missing column(s) %v", missing), Err: model.ErrStageFailure}
	}
	out := f.Filter(func(row model.Row) bool {
		a, okA := row[wiki].(time.Time)
		b, okB := row[catalog].(time.Time)
		if !okA || !okB {
			return true
		}
		return !(a.After(w.Newer) && b.Before(w.Older)) && !(b.After(w.Newer) && a.Before(w.Older))
	})
	return out, f.Len() - out.Len(), nil
}

// DropSuperseded removes the encyclopedic side of every keep-catalog pair.
func DropSuperseded(f *model.Frame) (*model.Frame, error) {
	return f.Drop(SupersededColumns...)
}

// FillOnZero applies rule: where the kept value is numerically zero and the
// fallback is a nonzero number, the fallback replaces it. Integer columns
// stay integers. The fallback column is then dropped.
//
// Outputs:
//   - *model.Frame: The filled frame.
//   - int: The number of values filled.
//   - error: A *model.StageError when either column is absent.
func FillOnZero(f *model.Frame, rule FillRule) (*model.Frame, int, error) {
	if missing := f.Missing(rule.Keep, rule.Fallback); len(missing) > 0 {
		return nil, 0, &model.StageError{Stage: rule.Stage, Reason: fmt.Sprintf("missing column(s) %v", missing), Err: model.ErrStageFailure}
	}
	filled := 0
	out := f.WithColumn(rule.Keep, func(row model.Row) interface{} {
		kept := row[rule.Keep]
		k, ok := model.ToFloat(kept)
		if !ok || k != 0 {
			return kept
		}
		fb, ok := model.ToFloat(row[rule.Fallback])
		if !ok || fb == 0 {
			return kept
		}
		filled++
		switch kept.(type) {
		case int64:
			return int64(math.Round(fb))
		case int:
			return int(math.Round(fb))
		}
		return fb
	})
	out, err := out.Drop(rule.Fallback)
	if err != nil {
		return nil, 0, err
	}
	return out, filled, nil
}

// Project narrows the frame to TargetColumns in order.
func Project(f *model.Frame) (*model.Frame, error) {
	return f.Select(TargetColumns...)
}

// Publish renames projected columns to their published names.
func Publish(f *model.Frame) (*model.Frame, error) {
	return f.Rename(PublishedNames...)
}
