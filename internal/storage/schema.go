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

package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// ListSeparator joins list values into one text cell.
const ListSeparator = "; "

// ColumnKind is the storage type of a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindFloat
	KindBool
	KindDate
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	}
	return "text"
}

// Column is a named, typed output column.
type Column struct {
	Name string
	Kind ColumnKind
}

// kindOf classifies a single present value.
func kindOf(v interface{}) ColumnKind {
	switch v.(type) {
	case int, int32, int64:
		return KindInteger
	case float32, float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		return KindDate
	}
	return KindText
}

// InferSchema types every column of frame from its present values. Integers
// mixed with floats widen to float; any other mix, and a column with no
// values, is text.
func InferSchema(frame *model.Frame) []Column {
	columns := make([]Column, len(frame.Columns))
	for i, name := range frame.Columns {
		kind, seen := KindText, false
		for _, row := range frame.Rows {
			v := row[name]
			if model.IsMissing(v) {
				continue
			}
			k := kindOf(v)
			switch {
			case !seen:
				kind, seen = k, true
			case kind == k:
			case (kind == KindInteger && k == KindFloat) || (kind == KindFloat && k == KindInteger):
				kind = KindFloat
			default:
				kind = KindText
			}
			if kind == KindText {
				break
			}
		}
		columns[i] = Column{Name: name, Kind: kind}
	}
	return columns
}

// Value converts v to the Go value written for a column of kind k. Missing
// values become nil.
func (k ColumnKind) Value(v interface{}) interface{} {
	if model.IsMissing(v) {
		return nil
	}
	switch k {
	case KindInteger:
		if n, ok := model.ToInt64(v); ok {
			return n
		}
	case KindFloat:
		if f, ok := model.ToFloat(v); ok {
			return f
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b
		}
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return Flatten(v)
}

// Flatten renders a value as text. Lists are joined with ListSeparator and
// mappings become JSON.
func Flatten(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ListSeparator)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			if !model.IsMissing(p) {
				parts = append(parts, Flatten(p))
			}
		}
		return strings.Join(parts, ListSeparator)
	case map[string]interface{}, model.RawRecordA:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	case time.Time:
		return x.Format(time.DateOnly)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// chunks splits n rows into [start, end) ranges of at most size rows.
func chunks(n int, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
