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

package transform_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func year(y int) time.Time {
	return time.Date(y, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func TestJoin(t *testing.T) {
	a := model.NewFrame("imdb_id", "title", "budget", "url")
	a.Rows = append(a.Rows,
		model.Row{"imdb_id": "tt0000001", "title": "One", "budget": 1e6, "url": "u1"},
		model.Row{"imdb_id": "tt0000002", "title": "Two", "url": "u2"},
		model.Row{"imdb_id": nil, "title": "No key", "url": "u3"},
	)
	b := model.NewFrame("imdb_id", "id", "title", "budget")
	b.Rows = append(b.Rows,
		model.Row{"imdb_id": "tt0000001", "id": int64(1), "title": "One (catalog)", "budget": int64(0)},
		model.Row{"imdb_id": "tt0000001", "id": int64(99), "title": "Duplicate", "budget": int64(5)},
		model.Row{"imdb_id": "tt0000003", "id": int64(3), "title": "Three", "budget": int64(7)},
		model.Row{"id": int64(4), "title": "No key either"},
	)

	out, err := transform.Join(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"imdb_id", "title_wiki", "budget_wiki", "url", "id", "title_kaggle", "budget_kaggle"}, out.Columns)
	require.Equal(t, 1, out.Len())
	row := out.Rows[0]
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, "One", row["title_wiki"])
	assert.Equal(t, "One (catalog)", row["title_kaggle"])
	assert.Equal(t, 1e6, row["budget_wiki"])
	assert.Equal(t, int64(0), row["budget_kaggle"])
}

func TestJoinNeedsKeyOnBothSides(t *testing.T) {
	_, err := transform.Join(model.NewFrame("title"), model.NewFrame("imdb_id"))
	assert.ErrorIs(t, err, model.ErrStageFailure)
}

func TestPruneDateMismatch(t *testing.T) {
	f := model.NewFrame("release_date_wiki", "release_date_kaggle", "title")
	f.Rows = append(f.Rows,
		model.Row{"release_date_wiki": year(1999), "release_date_kaggle": year(1999), "title": "agree"},
		model.Row{"release_date_wiki": year(1950), "release_date_kaggle": year(2005), "title": "wiki old"},
		model.Row{"release_date_wiki": year(2005), "release_date_kaggle": year(1950), "title": "catalog old"},
		model.Row{"release_date_wiki": nil, "release_date_kaggle": year(2005), "title": "missing"},
		model.Row{"release_date_wiki": year(1970), "release_date_kaggle": year(2000), "title": "inside"},
	)

	out, removed, err := transform.PruneDateMismatch(f, transform.DefaultDateWindow)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []interface{}{"agree", "missing", "inside"}, out.Column("title"))

	_, _, err = transform.PruneDateMismatch(model.NewFrame("release_date_wiki"), transform.DefaultDateWindow)
	assert.ErrorIs(t, err, model.ErrStageFailure)
}

func TestFillOnZero(t *testing.T) {
	rule := transform.FillRules[0]
	f := model.NewFrame("runtime", "running_time")
	f.Rows = append(f.Rows,
		model.Row{"runtime": 0.0, "running_time": 90.0},
		model.Row{"runtime": 120.0, "running_time": 95.0},
		model.Row{"runtime": 0.0, "running_time": 0.0},
		model.Row{"runtime": nil, "running_time": 80.0},
		model.Row{"runtime": "n/a", "running_time": 80.0},
	)

	out, filled, err := transform.FillOnZero(f, rule)
	require.NoError(t, err)
	assert.Equal(t, 1, filled)
	assert.Equal(t, []string{"runtime"}, out.Columns)
	assert.Equal(t, []interface{}{90.0, 120.0, 0.0, nil, "n/a"}, out.Column("runtime"))
	for _, row := range out.Rows {
		_, ok := row["running_time"]
		assert.False(t, ok)
	}
}

func TestFillOnZeroKeepsIntegers(t *testing.T) {
	rule := transform.FillRules[1]
	require.Equal(t, "fill-budget", rule.Stage)
	f := model.NewFrame("budget_kaggle", "budget_wiki")
	f.Rows = append(f.Rows,
		model.Row{"budget_kaggle": int64(0), "budget_wiki": 2.5e6},
		model.Row{"budget_kaggle": int64(5), "budget_wiki": 5e6},
	)

	out, filled, err := transform.FillOnZero(f, rule)
	require.NoError(t, err)
	assert.Equal(t, 1, filled)
	assert.Equal(t, []interface{}{int64(2500000), int64(5)}, out.Column("budget_kaggle"))

	_, _, err = transform.FillOnZero(model.NewFrame("budget_kaggle"), rule)
	assert.ErrorIs(t, err, model.ErrStageFailure)
}

func TestDropSuperseded(t *testing.T) {
	f := model.NewFrame(append([]string{"imdb_id"}, transform.SupersededColumns...)...)
	out, err := transform.DropSuperseded(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"imdb_id"}, out.Columns)

	_, err = transform.DropSuperseded(model.NewFrame("imdb_id", "title_wiki"))
	assert.ErrorIs(t, err, model.ErrStageFailure)
}

func TestProjectAndPublish(t *testing.T) {
	columns := append([]string{"alt_titles", "Release date"}, transform.TargetColumns...)
	f := model.NewFrame(columns...)
	row := model.Row{}
	for _, c := range columns {
		row[c] = c
	}
	f.Rows = append(f.Rows, row)

	projected, err := transform.Project(f)
	require.NoError(t, err)
	assert.Equal(t, transform.TargetColumns, projected.Columns)

	published, err := transform.Publish(projected)
	require.NoError(t, err)
	renamed := map[string]string{}
	for _, p := range transform.PublishedNames {
		renamed[p[0]] = p[1]
	}
	for i, c := range transform.TargetColumns {
		want := c
		if to, ok := renamed[c]; ok {
			want = to
		}
		assert.Equal(t, want, published.Columns[i])
		assert.Equal(t, c, published.Rows[0][want])
	}
	assert.Contains(t, published.Columns, "kaggle_id")
	assert.Contains(t, published.Columns, "wikipedia_url")
	for _, c := range published.Columns {
		assert.False(t, strings.HasSuffix(c, transform.SuffixWiki), c)
	}

	_, err = transform.Project(model.NewFrame("imdb_id"))
	assert.ErrorIs(t, err, model.ErrStageFailure)
}
