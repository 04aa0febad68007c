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
// pipeline is assembled from. This file defines the interfaces: a Context that
// carries the batch between stages, a Command that transforms it, and a Chain
// that runs commands in order.
//
// Two kinds of outcome are tracked separately. Errors (AddError) are failures
// that should stop a chain, such as a source that cannot be read. Stage
// results (AddStageResult) record whether each stage applied its effect or was
// skipped; a skipped stage hands its input to the next stage unchanged.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the next.
const (
	// CtxIn holds the primary input of the command about to run.
	CtxIn = "__IN__"
	// CtxOut is where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the shared state of one pipeline run.
type Context interface {
	// SetContext sets the Go context used for cancellation and trace propagation.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a failure produced by the named command.
	AddError(key string, err error)

	// GetErrors returns every recorded failure keyed by command name.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any failure has been recorded.
	HasErrors() bool

	// AddStageResult appends the outcome of a stage.
	AddStageResult(result StageResult)

	// GetStageResults returns stage outcomes in the order they were recorded.
	GetStageResults() []StageResult

	// AddTempFile tracks a file that Close must delete.
	AddTempFile(file string)

	// GetTempFiles returns the tracked temporary files.
	GetTempFiles() []string

	// Close deletes every tracked temporary file.
	Close()
}

// Executable is anything with a unit of work driven by a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one stage of a pipeline.
type Command interface {
	Executable

	// GetName returns the stage name used in logs, spans, metrics and stage results.
	GetName() string

	// GetInputParam returns the context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable reports whether the context holds what the command needs.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps running commands
	// after one of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
