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

// RawRecordA is one record of the encyclopedic dump. Keys are free-text
// labels; values are strings, lists of strings or nested mappings.
type RawRecordA map[string]interface{}

// RawRecordB is one row of the catalog export keyed by header name. Every
// value is text; empty cells are absent.
type RawRecordB map[string]string

// Catalog is the decoded catalog export.
type Catalog struct {
	Header  []string
	Records []RawRecordB
}

// RatingEvent is one user rating.
type RatingEvent struct {
	UserID    int64
	MovieID   int64
	Rating    float64
	Timestamp int64
}

// Sources holds the two sources that are loaded whole before reconciliation.
type Sources struct {
	Wikipedia []RawRecordA
	Catalog   *Catalog
}
