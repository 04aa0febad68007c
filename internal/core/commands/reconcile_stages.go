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
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/transform"
)

// JoinSources inner-joins the encyclopedic frame (the input) with the
// catalog frame on imdb_id. When the join cannot apply, the encyclopedic
// frame passes through unchanged.
type JoinSources struct {
	cor.BaseCommand
	catalogParam string
}

func NewJoinSources(name string, catalogParam string) *JoinSources {
	return &JoinSources{BaseCommand: *cor.NewBaseCommand(name), catalogParam: catalogParam}
}

// IsExecutable also requires the catalog frame.
func (c *JoinSources) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(c.catalogParam) != nil
}

func (c *JoinSources) Execute(context cor.Context) {
	wiki, ok := inputFrame(context, &c.BaseCommand)
	if !ok {
		return
	}
	catalog, ok := context.Get(c.catalogParam).(*model.Frame)
	if !ok {
		c.Skip(context, &model.StageError{Stage: c.GetName(), Reason: "catalog input is not a frame", Err: model.ErrStageFailure})
		return
	}
	out, err := transform.Join(wiki, catalog)
	if err != nil {
		c.Skip(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "joined sources",
		"stage", c.GetName(), "wikipedia", wiki.Len(), "catalog", catalog.Len(), "joined", out.Len())
	c.Complete(context, out, wiki.Len()+catalog.Len(), out.Len())
}

// PruneDateMismatch removes joined rows whose release dates disagree by
// decades.
type PruneDateMismatch struct {
	cor.BaseCommand
	window transform.DateWindow
}

func NewPruneDateMismatch(name string, window transform.DateWindow) *PruneDateMismatch {
	return &PruneDateMismatch{BaseCommand: *cor.NewBaseCommand(name), window: window}
}

func (c *PruneDateMismatch) Execute(context cor.Context) {
	in, ok := inputFrame(context, &c.BaseCommand)
	if !ok {
		return
	}
	out, removed, err := transform.PruneDateMismatch(in, c.window)
	if err != nil {
		c.Skip(context, err)
		return
	}
	if removed > 0 {
		slog.InfoContext(context.GetContext(), "removed rows with mismatched release dates", "stage", c.GetName(), "removed", removed)
	}
	c.Complete(context, out, in.Len(), out.Len())
}

// FillOnZero applies one fill rule and drops the fallback column.
type FillOnZero struct {
	cor.BaseCommand
	rule transform.FillRule
}

// NewFillOnZero names the command after the rule.
func NewFillOnZero(rule transform.FillRule) *FillOnZero {
	return &FillOnZero{BaseCommand: *cor.NewBaseCommand(rule.Stage), rule: rule}
}

func (c *FillOnZero) Execute(context cor.Context) {
	in, ok := inputFrame(context, &c.BaseCommand)
	if !ok {
		return
	}
	out, filled, err := transform.FillOnZero(in, c.rule)
	if err != nil {
		c.Skip(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "filled zero values",
		"stage", c.GetName(), "keep", c.rule.Keep, "fallback", c.rule.Fallback, "filled", filled)
	c.Complete(context, out, in.Len(), out.Len())
}
