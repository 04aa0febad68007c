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

// Package cor (Chain of Responsibility) provides the building blocks the ETL
// pipeline is assembled from. This file defines `BaseCommand`, which every
// stage embeds.
//
// BaseCommand supplies:
//   - a name used for spans, counters, log records and stage results,
//   - OpenTelemetry tracer, meter and success/error counters,
//   - input/output key resolution that defaults to the CtxIn/CtxOut pipe,
//   - the three ways a stage can end: Complete, Skip or Fail.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// MeterScope is the instrumentation scope of every command counter.
const MeterScope = "github.com/jaycherian/gcp-go-movie-etl"

// BaseCommand is the default implementation of the Command interface.
type BaseCommand struct {
	Name            string              // Stage name.
	InputParamName  string              // Context key of the input; CtxIn when empty.
	OutputParamName string              // Context key of the output; CtxOut when empty.
	Tracer          trace.Tracer        // Tracer for command spans.
	Meter           metric.Meter        // Meter the counters were created from.
	SuccessCounter  metric.Int64Counter // Incremented when the stage applies its effect.
	ErrorCounter    metric.Int64Counter // Incremented when the stage is skipped or fails.
}

// NewBaseCommand creates a command named name with its counters registered on
// the global meter provider.
//
// Inputs:
//   - name: The stage name.
//
// Outputs:
//   - *BaseCommand: The initialized command.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(MeterScope)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		slog.Error("failed to create success counter", "command", name, "error", err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		slog.Error("failed to create error counter", "command", name, "error", err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable reports whether the context has a Go context and a value under
// the command's input key.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}

// Complete stores out under the output key and records a successful stage.
//
// Inputs:
//   - context: The run context.
//   - out: The stage output.
//   - rowsIn, rowsOut: Batch sizes before and after the stage.
func (c *BaseCommand) Complete(context Context, out interface{}, rowsIn int, rowsOut int) {
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.AddStageResult(Succeeded(c.GetName(), rowsIn, rowsOut))
	context.Add(c.GetOutputParam(), out)
}

// Skip records a skipped stage and hands the input to the output key
// unchanged, so the rest of the chain sees the batch in its pre-stage shape.
func (c *BaseCommand) Skip(context Context, reason error) {
	slog.WarnContext(context.GetContext(), "stage skipped", "stage", c.GetName(), "reason", reason)
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddStageResult(Skipped(c.GetName(), reason))
	if in := context.Get(c.GetInputParam()); in != nil {
		context.Add(c.GetOutputParam(), in)
	}
}

// Fail records err as a run failure. Chains that do not continue on failure
// stop after this command.
func (c *BaseCommand) Fail(context Context, err error) {
	slog.ErrorContext(context.GetContext(), "stage failed", "stage", c.GetName(), "error", err)
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddStageResult(Skipped(c.GetName(), err))
	context.AddError(c.GetName(), err)
}
