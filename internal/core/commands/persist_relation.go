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

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/storage"
)

// PersistRelation appends the frame held in its input to a relation.
// A failed write is a context error.
type PersistRelation struct {
	cor.BaseCommand
	writer   storage.Writer
	relation string
}

// NewPersistRelation creates a command writing the frame under frameParam
// to relation.
func NewPersistRelation(name string, writer storage.Writer, relation string, frameParam string) *PersistRelation {
	out := &PersistRelation{BaseCommand: *cor.NewBaseCommand(name), writer: writer, relation: relation}
	out.InputParamName = frameParam
	out.OutputParamName = ParamRowsWritten
	return out
}

func (c *PersistRelation) Execute(context cor.Context) {
	frame, ok := context.Get(c.GetInputParam()).(*model.Frame)
	if !ok {
		c.Fail(context, fmt.Errorf("relation %s: input %q is %T, not a frame", c.relation, c.GetInputParam(), context.Get(c.GetInputParam())))
		return
	}

	ctx := context.GetContext()
	if runID, ok := context.Get(ParamRunID).(uuid.UUID); ok {
		ctx = storage.WithRunID(ctx, runID)
	}
	written, err := c.writer.Append(ctx, c.relation, frame)
	if err != nil {
		c.Fail(context, fmt.Errorf("append to %s: %w", c.relation, err))
		return
	}

	counts, _ := context.Get(ParamRowsWritten).(map[string]int)
	if counts == nil {
		counts = make(map[string]int)
	}
	counts[c.relation] += written
	c.Complete(context, counts, frame.Len(), written)
}
