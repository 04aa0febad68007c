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

package model

import (
	"errors"
	"fmt"
)

// Failure classes. Only ErrFatalInputAbsence stops a run; the others are
// reported and the affected value, row or stage is dropped or skipped.
var (
	// ErrMissingField means an expected source field or column is absent.
	ErrMissingField = errors.New("missing field")
	// ErrParseFailure means a free-text value matched no known shape.
	ErrParseFailure = errors.New("parse failure")
	// ErrCoercionFailure means a catalog value could not take its required type.
	ErrCoercionFailure = errors.New("coercion failure")
	// ErrStageFailure means a whole stage could not apply to the batch.
	ErrStageFailure = errors.New("stage failure")
	// ErrFatalInputAbsence means a required input dataset could not be obtained.
	ErrFatalInputAbsence = errors.New("required input absent")
)

// FieldError reports a problem with one field of the whole batch.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RowError reports a problem with one field of one row.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d field %q value %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// StageError reports a structural mismatch that prevents a stage from
// applying to the batch.
type StageError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

func (e *StageError) Unwrap() error {
	if e.Err == nil {
		return ErrStageFailure
	}
	return e.Err
}

// InputError reports a source that could not be read.
type InputError struct {
	Source string
	URI    string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("source %s (%s): %v", e.Source, e.URI, e.Err)
}

// Unwrap exposes both the fatal class and the underlying cause.
func (e *InputError) Unwrap() []error {
	return []error{ErrFatalInputAbsence, e.Err}
}
