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

package commands

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/transform"
)

// AggregateRatings streams every ratings file and counts events per movie
// and rating value. Progress is logged every chunkSize rows.
type AggregateRatings struct {
	cor.BaseCommand
	chunkSize int64
}

func NewAggregateRatings(name string, chunkSize int) *AggregateRatings {
	out := &AggregateRatings{BaseCommand: *cor.NewBaseCommand(name), chunkSize: int64(chunkSize)}
	out.InputParamName = ParamSourcePaths
	out.OutputParamName = ParamRatingCounts
	return out
}

func (c *AggregateRatings) Execute(context cor.Context) {
	paths := context.Get(c.GetInputParam()).(map[string][]string)
	files := paths[cloud.SourceRatings]
	if len(files) == 0 {
		c.Fail(context, &model.InputError{Source: cloud.SourceRatings, Err: errors.New("no file fetched")})
		return
	}

	ctx := context.GetContext()
	counts := transform.NewRatingCounts()
	start := time.Now()
	var total RatingStats
	for _, file := range files {
		stats, err := decodeFile(file, func(r io.Reader) (RatingStats, error) {
			return StreamRatings(r, func(e model.RatingEvent) {
				counts.AddEvent(e)
				if c.chunkSize > 0 && counts.Events()%c.chunkSize == 0 {
					slog.InfoContext(ctx, "ratings progress",
						"stage", c.GetName(), "events", counts.Events(), "elapsed", time.Since(start).String())
				}
			})
		})
		total.Rows += stats.Rows
		total.Bad += stats.Bad
		if err != nil {
			c.Fail(context, &model.InputError{Source: cloud.SourceRatings, URI: file, Err: err})
			return
		}
	}
	if total.Bad > 0 {
		slog.InfoContext(ctx, "dropped unparseable rating rows", "stage", c.GetName(), "dropped", total.Bad, "error", model.ErrParseFailure)
	}
	slog.InfoContext(ctx, "ratings aggregated",
		"stage", c.GetName(), "files", len(files), "events", counts.Events(), "movies", counts.Movies(),
		"values", len(counts.Values()), "elapsed", time.Since(start).String())
	c.Complete(context, counts, int(total.Rows), counts.Movies())
}

// RatingTable pivots the counts into the wide rating table.
type RatingTable struct {
	cor.BaseCommand
}

func NewRatingTable(name string) *RatingTable {
	out := &RatingTable{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamRatingCounts
	out.OutputParamName = ParamRatingTable
	return out
}

func (c *RatingTable) Execute(context cor.Context) {
	counts := context.Get(c.GetInputParam()).(*transform.RatingCounts)
	table := counts.Frame()
	c.Complete(context, table, counts.Movies(), table.Len())
}

// MergeRatings adds the rating columns to the reconciled frame. Movies
// without events get zero counts.
type MergeRatings struct {
	cor.BaseCommand
}

func NewMergeRatings(name string) *MergeRatings {
	out := &MergeRatings{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamReconciled
	out.OutputParamName = ParamMovies
	return out
}

// IsExecutable also requires the counts.
func (c *MergeRatings) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(ParamRatingCounts) != nil
}

func (c *MergeRatings) Execute(context cor.Context) {
	movies, ok := inputFrame(context, &c.BaseCommand)
	if !ok {
		return
	}
	counts := context.Get(ParamRatingCounts).(*transform.RatingCounts)
	out, err := transform.MergeRatings(movies, counts)
	if err != nil {
		c.Skip(context, err)
		return
	}
	c.Complete(context, out, movies.Len(), out.Len())
}
