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
	"sort"
	"strconv"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// RatingColumnPrefix prefixes every rating-count column.
const RatingColumnPrefix = "rating_"

// RatingMovieIDColumn is the key column of the wide rating table.
const RatingMovieIDColumn = "movie_id"

// RatingCounts accumulates rating events into per-movie, per-value counts.
// Events can be added one at a time, so the raw events never need to be held
// together.
type RatingCounts struct {
	counts map[int64]map[float64]int64
	values map[float64]struct{}
	events int64
}

// NewRatingCounts returns an empty accumulator.
func NewRatingCounts() *RatingCounts {
	return &RatingCounts{
		counts: make(map[int64]map[float64]int64),
		values: make(map[float64]struct{}),
	}
}

// Add counts one event. Ratings that are NaN or infinite are not counted and
// Add reports false.
func (r *RatingCounts) Add(movieID int64, rating float64) bool {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return false
	}
	perMovie, ok := r.counts[movieID]
	if !ok {
		perMovie = make(map[float64]int64)
		r.counts[movieID] = perMovie
	}
	perMovie[rating]++
	r.values[rating] = struct{}{}
	r.events++
	return true
}

// AddEvent counts one decoded event.
func (r *RatingCounts) AddEvent(e model.RatingEvent) bool {
	return r.Add(e.MovieID, e.Rating)
}

// Events returns how many events were counted.
func (r *RatingCounts) Events() int64 {
	return r.events
}

// Movies returns how many distinct movies were rated.
func (r *RatingCounts) Movies() int {
	return len(r.counts)
}

// Count returns the number of events for movieID with the given rating.
func (r *RatingCounts) Count(movieID int64, rating float64) int64 {
	return r.counts[movieID][rating]
}

// Values returns every rating value observed, ascending.
func (r *RatingCounts) Values() []float64 {
	out := make([]float64, 0, len(r.values))
	for v := range r.values {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// Columns returns the rating column names, ascending by value.
func (r *RatingCounts) Columns() []string {
	values := r.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = RatingColumn(v)
	}
	return out
}

// RatingColumn names the count column of a rating value. Whole values keep
// one decimal place: 3 becomes "rating_3.0" and 3.5 "rating_3.5".
func RatingColumn(value float64) string {
	if value == math.Trunc(value) {
		return RatingColumnPrefix + strconv.FormatFloat(value, 'f', 1, 64)
	}
	return RatingColumnPrefix + strconv.FormatFloat(value, 'f', -1, 64)
}

// Frame pivots the counts into the wide rating table: one row per movie in
// ascending id order, one column per observed value. A value a movie never
// received counts 0.
func (r *RatingCounts) Frame() *model.Frame {
	values := r.Values()
	columns := append([]string{RatingMovieIDColumn}, r.Columns()...)
	out := model.NewFrame(columns...)

	ids := make([]int64, 0, len(r.counts))
	for id := range r.counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		row := make(model.Row, len(columns))
		row[RatingMovieIDColumn] = id
		for _, v := range values {
			row[RatingColumn(v)] = r.counts[id][v]
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// MergeRatings left-merges the rating counts onto movies using the catalog id
// column, which is "kaggle_id" after publishing and "id" before. Every movie
// gets every rating column; movies without events get zeros.
func MergeRatings(movies *model.Frame, counts *RatingCounts) (*model.Frame, error) {
	key := ""
	for _, c := range CatalogIDColumns {
		if movies.HasColumn(c) {
			key = c
			break
		}
	}
	if key == "" {
		return nil, &model.StageError{Stage: "merge-ratings", Reason: fmt.Sprintf("no catalog id column (tried %v)", CatalogIDColumns), Err: model.ErrStageFailure}
	}

	values := counts.Values()
	out := movies.Clone()
	for _, v := range values {
		if col := RatingColumn(v); !out.HasColumn(col) {
			out.Columns = append(out.Columns, col)
		}
	}
	for _, row := range out.Rows {
		id, ok := model.ToInt64(row[key])
		for _, v := range values {
			var n int64
			if ok {
				n = counts.Count(id, v)
			}
			row[RatingColumn(v)] = n
		}
	}
	return out, nil
}
