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

// Package workflow assembles the ETL commands into runnable pipelines.
// This file implements the notification-driven run used by `etl listen`.
package workflow

import (
	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
)

// SourceTriggerWorkflow runs the batch pipeline when a Cloud Storage
// notification names one of the configured sources. Other objects are
// acknowledged without a run.
type SourceTriggerWorkflow struct {
	cor.BaseCommand
	trigger  *commands.SourceTrigger
	pipeline cor.Command
}

// NewSourceTriggerWorkflow wraps pipeline. The notification text is read from
// cor.CtxIn.
func NewSourceTriggerWorkflow(config *cloud.Config, pipeline cor.Command) *SourceTriggerWorkflow {
	return &SourceTriggerWorkflow{
		BaseCommand: *cor.NewBaseCommand("source-trigger-workflow"),
		trigger:     commands.NewSourceTrigger("source-trigger", config.Sources),
		pipeline:    pipeline,
	}
}

func (w *SourceTriggerWorkflow) Execute(context cor.Context) {
	if context.Get(commands.ParamRunID) == nil {
		context.Add(commands.ParamRunID, uuid.New())
	}

	if !w.trigger.IsExecutable(context) {
		context.AddStageResult(cor.Skipped(w.trigger.GetName(), nil))
		return
	}
	w.trigger.Execute(context)
	if context.Get(commands.ParamTriggerMatched) == nil {
		return
	}

	w.pipeline.Execute(context)
	Summarize(context).Log(context.GetContext())
}
