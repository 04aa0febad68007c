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

// Package model defines the data structures that flow through the ETL chain.
// This file defines `Frame`, a column-ordered table of rows.
//
// Every stage receives a Frame and returns a new one; a Frame handed to the
// next stage is never modified again. Column operations (Drop, Select,
// Rename) are strict: naming a column the frame does not have is a
// structural mismatch reported as a *StageError, and the receiver is left
// untouched.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Row maps a column name to its value. An absent key and a nil value both
// mean "no value".
type Row map[string]interface{}

// Frame is an ordered set of columns over a slice of rows.
type Frame struct {
	Columns []string
	Rows    []Row
}

// NewFrame returns an empty frame with the given columns.
func NewFrame(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...), Rows: make([]Row, 0)}
}

// FrameFromRows builds a frame whose columns are the union of the row keys in
// lexical order.
func FrameFromRows(rows []Row) *Frame {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return &Frame{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// HasColumn reports whether name is one of the frame's columns.
func (f *Frame) HasColumn(name string) bool {
	return f.indexOf(name) >= 0
}

func (f *Frame) indexOf(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Missing returns the names, in argument order, that are not columns of f.
func (f *Frame) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !f.HasColumn(n) {
			out = append(out, n)
		}
	}
	return out
}

// Clone copies the frame and each row map. Values are shared.
func (f *Frame) Clone() *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...), Rows: make([]Row, len(f.Rows))}
	for i, row := range f.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// WithColumn returns a copy of f with column name set to fn(row) for every
// row. The column is appended when it does not exist yet.
func (f *Frame) WithColumn(name string, fn func(Row) interface{}) *Frame {
	out := f.Clone()
	if !out.HasColumn(name) {
		out.Columns = append(out.Columns, name)
	}
	for _, row := range out.Rows {
		row[name] = fn(row)
	}
	return out
}

// Filter returns a copy of f holding only the rows keep accepts.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...), Rows: make([]Row, 0, len(f.Rows))}
	for _, row := range f.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out.Clone()
}

// NullCount returns how many rows have no value in column name.
func (f *Frame) NullCount(name string) int {
	n := 0
	for _, row := range f.Rows {
		if IsMissing(row[name]) {
			n++
		}
	}
	return n
}

// Drop returns a copy of f without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	if missing := f.Missing(names...); len(missing) > 0 {
		return nil, missingColumns("drop", missing)
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := f.Clone()
	out.Columns = out.Columns[:0]
	for _, c := range f.Columns {
		if _, ok := drop[c]; !ok {
			out.Columns = append(out.Columns, c)
		}
	}
	for _, row := range out.Rows {
		for n := range drop {
			delete(row, n)
		}
	}
	return out, nil
}

// Select returns a copy of f holding exactly the named columns in the given
// order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if missing := f.Missing(names...); len(missing) > 0 {
		return nil, missingColumns("select", missing)
	}
	out := &Frame{Columns: append([]string(nil), names...), Rows: make([]Row, len(f.Rows))}
	for i, row := range f.Rows {
		cp := make(Row, len(names))
		for _, n := range names {
			if v, ok := row[n]; ok {
				cp[n] = v
			}
		}
		out.Rows[i] = cp
	}
	return out, nil
}

// Rename returns a copy of f with columns renamed pairwise, keeping column
// positions. Every source column must exist and no target may collide with a
// column that is not itself being renamed.
func (f *Frame) Rename(pairs ...[2]string) (*Frame, error) {
	from := make([]string, 0, len(pairs))
	mapping := make(map[string]string, len(pairs))
	for _, p := range pairs {
		from = append(from, p[0])
		mapping[p[0]] = p[1]
	}
	if missing := f.Missing(from...); len(missing) > 0 {
		return nil, missingColumns("rename", missing)
	}
	for _, p := range pairs {
		if _, renamed := mapping[p[1]]; f.HasColumn(p[1]) && !renamed {
			return nil, &StageError{Stage: "rename", Reason: fmt.Sprintf("target column %q already exists", p[1]), Err: ErrStageFailure}
		}
	}
	out := &Frame{Columns: make([]string, len(f.Columns)), Rows: make([]Row, len(f.Rows))}
	for i, c := range f.Columns {
		if to, ok := mapping[c]; ok {
			out.Columns[i] = to
		} else {
			out.Columns[i] = c
		}
	}
	for i, row := range f.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			if to, ok := mapping[k]; ok {
				cp[to] = v
			} else {
				cp[k] = v
			}
		}
		out.Rows[i] = cp
	}
	return out, nil
}

// Column returns the values of column name in row order.
func (f *Frame) Column(name string) []interface{} {
	out := make([]interface{}, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[name]
	}
	return out
}

func missingColumns(op string, missing []string) error {
	return &StageError{
		Stage:  op,
		Reason: fmt.Sprintf("missing column(s) %s", strings.Join(quoteAll(missing), ", ")),
		Err:    ErrStageFailure,
	}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
