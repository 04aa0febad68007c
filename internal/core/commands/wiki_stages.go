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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/transform"
)

// SelectFilms keeps the encyclopedic records that describe films.
type SelectFilms struct {
	cor.BaseCommand
}

func NewSelectFilms(name string) *SelectFilms {
	return &SelectFilms{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *SelectFilms) Execute(context cor.Context) {
	raw, ok := context.Get(c.GetInputParam()).([]model.RawRecordA)
	if !ok {
		c.Fail(context, &model.InputError{Source: "wikipedia", Err: fmt.Errorf("unexpected input %T", context.Get(c.GetInputParam()))})
		return
	}
	films := transform.SelectFilms(raw)
	slog.InfoContext(context.GetContext(), "selected films", "records", len(raw), "films", len(films))
	c.Complete(context, films, len(raw), len(films))
}

// NormalizeFields canonicalizes the field names of every film record.
type NormalizeFields struct {
	cor.BaseCommand
	normalizer *transform.FieldNormalizer
}

func NewNormalizeFields(name string) *NormalizeFields {
	return &NormalizeFields{BaseCommand: *cor.NewBaseCommand(name), normalizer: transform.NewFieldNormalizer()}
}

func (c *NormalizeFields) Execute(context cor.Context) {
	raw, ok := context.Get(c.GetInputParam()).([]model.RawRecordA)
	if !ok {
		c.Skip(context, &model.StageError{Stage: c.GetName(), Reason: "input is not a record list", Err: model.ErrStageFailure})
		return
	}
	rows := c.normalizer.NormalizeAll(raw)
	c.Complete(context, rows, len(raw), len(rows))
}

// DedupFilms derives imdb_id and keeps the first record per id.
type DedupFilms struct {
	cor.BaseCommand
}

func NewDedupFilms(name string) *DedupFilms {
	return &DedupFilms{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *DedupFilms) Execute(context cor.Context) {
	rows, ok := context.Get(c.GetInputParam()).([]model.Row)
	if !ok {
		c.Skip(context, &model.StageError{Stage: c.GetName(), Reason: "input is not a row list", Err: model.ErrStageFailure})
		return
	}
	frame, dropped := transform.DedupByImdbID(rows)
	if dropped > 0 {
		slog.InfoContext(context.GetContext(), "dropped duplicate films", "stage", c.GetName(), "dropped", dropped)
	}
	c.Complete(context, frame, len(rows), frame.Len())
}

// PruneSparse drops the encyclopedic columns that are mostly empty.
type PruneSparse struct {
	cor.BaseCommand
	ratio float64
}

func NewPruneSparse(name string, ratio float64) *PruneSparse {
	if ratio <= 0 {
		ratio = transform.DefaultSparseColumnRatio
	}
	return &PruneSparse{BaseCommand: *cor.NewBaseCommand(name), ratio: ratio}
}

func (c *PruneSparse) Execute(context cor.Context) {
	in, ok := inputFrame(context, &c.BaseCommand)
	if !ok {
		return
	}
	out, dropped := transform.PruneSparseColumns(in, c.ratio)
	slog.InfoContext(context.GetContext(), "pruned sparse columns",
		"stage", c.GetName(), "columns_in", len(in.Columns), "columns_out", len(out.Columns), "dropped", len(dropped))
	c.Complete(context, out, in.Len(), out.Len())
}
