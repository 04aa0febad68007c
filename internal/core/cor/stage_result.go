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

package cor

import "fmt"

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageSkipped   StageStatus = "skipped"
)

// StageResult records what a stage did to the batch. Skipped stages carry the
// reason; the batch they produced is identical to the batch they received.
type StageResult struct {
	Stage   string
	Status  StageStatus
	Reason  string
	Err     error
	RowsIn  int
	RowsOut int
}

// Succeeded builds a result for a stage that applied its effect.
func Succeeded(stage string, rowsIn int, rowsOut int) StageResult {
	return StageResult{Stage: stage, Status: StageSucceeded, RowsIn: rowsIn, RowsOut: rowsOut}
}

// Skipped builds a result for a stage whose effect was not applied.
func Skipped(stage string, err error) StageResult {
	reason := "unknown"
	if err != nil {
		reason = err.Error()
	}
	return StageResult{Stage: stage, Status: StageSkipped, Reason: reason, Err: err}
}

func (r StageResult) String() string {
	if r.Status == StageSkipped {
		return fmt.Sprintf("%s: skipped (%s)", r.Stage, r.Reason)
	}
	return fmt.Sprintf("%s: %s (%d -> %d rows)", r.Stage, r.Status, r.RowsIn, r.RowsOut)
}
