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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/zeebo/assert"
)

// upper appends its name to the piped string, or skips when told to.
type upper struct {
	cor.BaseCommand
	skip error
	fail error
}

func newUpper(name string) *upper {
	return &upper{BaseCommand: *cor.NewBaseCommand(name)}
}

func (u *upper) Execute(context cor.Context) {
	in := context.Get(u.GetInputParam()).(string)
	switch {
	case u.fail != nil:
		u.Fail(context, u.fail)
	case u.skip != nil:
		u.Skip(context, u.skip)
	default:
		u.Complete(context, in+"|"+strings.ToUpper(u.GetName()), 1, 1)
	}
}

func newContext(in string) cor.Context {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(context.Background())
	chCtx.Add("input", in)
	return chCtx
}

func TestChainPipesOutputs(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.InputParamName = "input"
	chain.OutputParamName = "output"
	chain.AddCommand(newUpper("a")).AddCommand(newUpper("b"))

	chCtx := newContext("start")
	chain.Execute(chCtx)

	assert.Equal(t, chCtx.Get("output"), "start|A|B")
	assert.That(t, !chCtx.HasErrors())
	results := chCtx.GetStageResults()
	assert.Equal(t, len(results), 2)
	assert.Equal(t, results[0].Stage, "a")
	assert.Equal(t, results[1].Status, cor.StageSucceeded)
}

func TestSkippedStagePassesBatchThrough(t *testing.T) {
	skipped := newUpper("b")
	skipped.skip = errors.New("column missing")

	chain := cor.NewBaseChain("pipe")
	chain.InputParamName = "input"
	chain.OutputParamName = "output"
	chain.AddCommand(newUpper("a")).AddCommand(skipped).AddCommand(newUpper("c"))

	chCtx := newContext("start")
	chain.Execute(chCtx)

	assert.Equal(t, chCtx.Get("output"), "start|A|C")
	assert.That(t, !chCtx.HasErrors())
	results := chCtx.GetStageResults()
	assert.Equal(t, len(results), 3)
	assert.Equal(t, results[1].Status, cor.StageSkipped)
	assert.Equal(t, results[1].Reason, "column missing")
}

func TestChainStopsOnFailure(t *testing.T) {
	failing := newUpper("b")
	failing.fail = errors.New("source missing")

	chain := cor.NewBaseChain("pipe")
	chain.InputParamName = "input"
	chain.OutputParamName = "output"
	chain.AddCommand(newUpper("a")).AddCommand(failing).AddCommand(newUpper("c"))

	chCtx := newContext("start")
	chain.Execute(chCtx)

	assert.That(t, chCtx.HasErrors())
	assert.NotNil(t, chCtx.GetErrors()["b"])
	// c never ran.
	assert.Equal(t, len(chCtx.GetStageResults()), 2)
	assert.Equal(t, chCtx.Get("output"), "start|A")
}

func TestChainContinuesOnFailure(t *testing.T) {
	failing := newUpper("b")
	failing.fail = errors.New("source missing")

	chain := cor.NewBaseChain("pipe")
	chain.InputParamName = "input"
	chain.OutputParamName = "output"
	chain.ContinueOnFailure(true)
	chain.AddCommand(newUpper("a")).AddCommand(failing).AddCommand(newUpper("c"))

	chCtx := newContext("start")
	chain.Execute(chCtx)

	assert.That(t, chCtx.HasErrors())
	assert.Equal(t, len(chCtx.GetStageResults()), 3)
	assert.Equal(t, chCtx.Get("output"), "start|A|C")
}

func TestNotExecutableCommandIsSkipped(t *testing.T) {
	missing := newUpper("b")
	missing.InputParamName = "absent"

	chain := cor.NewBaseChain("pipe")
	chain.InputParamName = "input"
	chain.OutputParamName = "output"
	chain.AddCommand(newUpper("a")).AddCommand(missing)

	chCtx := newContext("start")
	chain.Execute(chCtx)

	results := chCtx.GetStageResults()
	assert.Equal(t, len(results), 2)
	assert.Equal(t, results[1].Status, cor.StageSkipped)
	assert.That(t, strings.Contains(results[1].Reason, "absent"))
	assert.Equal(t, chCtx.Get("output"), "start|A")
}

func TestNestedChains(t *testing.T) {
	inner := cor.NewBaseChain("inner")
	inner.InputParamName = "input"
	inner.OutputParamName = "middle"
	inner.AddCommand(newUpper("a"))

	second := cor.NewBaseChain("second")
	second.InputParamName = "middle"
	second.OutputParamName = "output"
	second.AddCommand(newUpper("b"))

	outer := cor.NewBaseChain("outer")
	outer.AddCommand(inner).AddCommand(second)

	chCtx := newContext("start")
	outer.Execute(chCtx)

	assert.Equal(t, chCtx.Get("middle"), "start|A")
	assert.Equal(t, chCtx.Get("output"), "start|A|B")
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "download.csv")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	chCtx := cor.NewBaseContext()
	chCtx.AddTempFile(file)
	chCtx.AddTempFile(filepath.Join(t.TempDir(), "never-created"))
	chCtx.Close()

	_, err := os.Stat(file)
	assert.That(t, os.IsNotExist(err))
	assert.Equal(t, len(chCtx.GetTempFiles()), 0)
}

func TestStageResultString(t *testing.T) {
	assert.Equal(t, cor.Succeeded("join", 4, 3).String(), "join: succeeded (4 -> 3 rows)")
	assert.Equal(t, cor.Skipped("join", errors.New("no catalog")).String(), "join: skipped (no catalog)")
	assert.Equal(t, cor.Skipped("join", nil).Reason, "unknown")
}
