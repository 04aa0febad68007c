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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// FrameFunc transforms a whole frame.
type FrameFunc func(*model.Frame) (*model.Frame, error)

// FrameStage applies a FrameFunc to the frame in its input.
//
// A *model.FieldError for a missing field still yields a frame: the stage
// completes and the gap is logged. Any other error skips the stage, so the
// next stage sees the batch in its pre-stage shape.
type FrameStage struct {
	cor.BaseCommand
	fn FrameFunc
}

func NewFrameStage(name string, fn FrameFunc) *FrameStage {
	return &FrameStage{BaseCommand: *cor.NewBaseCommand(name), fn: fn}
}

func (c *FrameStage) Execute(context cor.Context) {
	in, ok := inputFrame(context, &c.BaseCommand)
	if !ok {
		return
	}
	out, err := c.fn(in)
	switch {
	case err == nil:
		c.Complete(context, out, in.Len(), out.Len())
	case out != nil && errors.Is(err, model.ErrMissingField):
		slog.WarnContext(context.GetContext(), "stage applied with missing field", "stage", c.GetName(), "reason", err)
		c.Complete(context, out, in.Len(), out.Len())
	default:
		c.Skip(context, err)
	}
}

// inputFrame returns the command's input as a frame. Any other value skips
// the stage.
func inputFrame(context cor.Context, c *cor.BaseCommand) (*model.Frame, bool) {
	in, ok := context.Get(c.GetInputParam()).(*model.Frame)
	if !ok || in == nil {
		c.Skip(context, &model.StageError{
			Stage:  c.GetName(),
			Reason: fmt.Sprintf("input %q is %T, not a frame", c.GetInputParam(), context.Get(c.GetInputParam())),
			Err:    model.ErrStageFailure,
		})
		return nil, false
	}
	return in, true
}
