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
// pipeline is assembled from. This file defines `BaseContext`, the default
// implementation of the `Context` interface.
//
// A BaseContext belongs to exactly one pipeline run. It holds:
//   - the named artifacts stages hand to each other (`data`),
//   - failures keyed by the stage that produced them (`errors`),
//   - the ordered outcome of every stage (`results`),
//   - temporary files downloaded from object storage (`tempFiles`),
//   - the Go context carrying trace spans.
package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default Context.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	results   []StageResult
	tempFiles []string
	context   context.Context
}

// NewBaseContext returns an empty context with no Go context set.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		results:   make([]StageResult, 0),
		tempFiles: make([]string, 0),
	}
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every temporary file tracked by the context. Failures are
// logged and otherwise ignored.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err under key. A second error for the same key replaces
// the first.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) AddStageResult(result StageResult) {
	c.results = append(c.results, result)
}

func (c *BaseContext) GetStageResults() []StageResult {
	return c.results
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
