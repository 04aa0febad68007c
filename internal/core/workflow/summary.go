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

package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
)

// NewRunContext returns a chain context for one run, holding a new run id.
func NewRunContext(ctx context.Context) (cor.Context, uuid.UUID) {
	runID := uuid.New()
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(commands.ParamRunID, runID)
	return chCtx, runID
}

// RunSummary is what a run did.
type RunSummary struct {
	RunID       uuid.UUID
	Stages      []cor.StageResult
	RowsWritten map[string]int
	Errors      map[string]error
}

// Summarize collects the summary of the run held by chCtx.
func Summarize(chCtx cor.Context) RunSummary {
	summary := RunSummary{
		Stages:      chCtx.GetStageResults(),
		RowsWritten: map[string]int{},
		Errors:      chCtx.GetErrors(),
	}
	summary.RunID, _ = chCtx.Get(commands.ParamRunID).(uuid.UUID)
	if rows, ok := chCtx.Get(commands.ParamRowsWritten).(map[string]int); ok {
		summary.RowsWritten = rows
	}
	return summary
}

// Failed reports whether the run recorded an error.
func (s RunSummary) Failed() bool {
	return len(s.Errors) > 0
}

// Skipped returns the stages that did not apply.
func (s RunSummary) Skipped() []cor.StageResult {
	var out []cor.StageResult
	for _, r := range s.Stages {
		if r.Status == cor.StageSkipped {
			out = append(out, r)
		}
	}
	return out
}

// Log writes one record per stage, then the totals.
func (s RunSummary) Log(ctx context.Context) {
	for _, r := range s.Stages {
		if r.Status == cor.StageSkipped {
			slog.WarnContext(ctx, "stage result", "run_id", s.RunID.String(), "stage", r.Stage, "status", string(r.Status), "reason", r.Reason)
			continue
		}
		slog.InfoContext(ctx, "stage result", "run_id", s.RunID.String(), "stage", r.Stage, "status", string(r.Status),
			"rows_in", r.RowsIn, "rows_out", r.RowsOut)
	}
	for stage, err := range s.Errors {
		slog.ErrorContext(ctx, "run error", "run_id", s.RunID.String(), "stage", stage, "error", err)
	}
	slog.InfoContext(ctx, "run finished",
		"run_id", s.RunID.String(),
		"stages", len(s.Stages),
		"skipped", len(s.Skipped()),
		"rows_written", s.RowsWritten,
		"failed", s.Failed())
}
