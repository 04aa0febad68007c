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
// pipeline is assembled from. This file defines `BaseChain`, the default
// implementation of the `Chain` interface.
//
// Logic Flow:
//  1. If the chain has an input key, its value is seeded into CtxIn.
//  2. A span is opened for the chain and one child span per command.
//  3. Before each command the chain stops if an error has been recorded and
//     continueOnFailure is false.
//  4. A command that is not executable is recorded as a skipped stage.
//  5. Piping: whatever the command left in CtxOut becomes the next CtxIn. A
//     command that left nothing there (skipped or not executable) leaves the
//     previous CtxIn in place, so the batch passes through in its pre-stage
//     shape.
//  6. The final CtxIn is published under the chain's output key so chains can
//     nest.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain creates an empty chain.
//
// Inputs:
//   - name: The chain name, used for its span and counters.
//
// Outputs:
//   - *BaseChain: The chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets whether commands after a recorded error still run.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends command to the chain.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the chain's commands in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only requires a Go context; each command checks its own input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs the commands in order against chCtx.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	if len(c.InputParamName) > 0 {
		if in := chCtx.Get(c.InputParamName); in != nil {
			chCtx.Add(CtxIn, in)
		}
	}

	for _, command := range c.commands {
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		if chCtx.HasErrors() && !c.continueOnFailure {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			// Keep sibling command spans at the same depth.
			chCtx.SetContext(outerCtx)
		} else {
			chCtx.AddStageResult(Skipped(command.GetName(), fmt.Errorf("input %q not available", command.GetInputParam())))
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if err, failed := chCtx.GetErrors()[command.GetName()]; failed {
			commandSpan.RecordError(err)
			commandSpan.SetStatus(codes.Error, "command failed")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed")
		}
		commandSpan.End()

		if outputValue := chCtx.Get(CtxOut); outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if final := chCtx.Get(CtxIn); final != nil {
		chCtx.Add(c.GetOutputParam(), final)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
