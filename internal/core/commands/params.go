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

// Package commands implements the stages of the movie ETL as cor.Command
// values. Each command reads its input from a context key, records a
// cor.StageResult and writes its output under another key. Only a missing
// source or a failed write is recorded as a context error.
package commands

// Context keys shared by the commands and the workflow.
const (
	ParamRunID          = "__RUN_ID__"          // uuid.UUID of the current run.
	ParamSourcePaths    = "__SOURCE_PATHS__"    // map[string][]string of local files per source.
	ParamWikipedia      = "__WIKIPEDIA__"       // []model.RawRecordA
	ParamCatalog        = "__CATALOG__"         // *model.Catalog
	ParamWikiFrame      = "__WIKI_FRAME__"      // *model.Frame, normalized encyclopedic records.
	ParamCatalogFrame   = "__CATALOG_FRAME__"   // *model.Frame, typed catalog rows.
	ParamReconciled     = "__RECONCILED__"      // *model.Frame, published schema without ratings.
	ParamRatingCounts   = "__RATING_COUNTS__"   // *transform.RatingCounts
	ParamRatingTable    = "__RATING_TABLE__"    // *model.Frame, wide rating-count table.
	ParamMovies         = "__MOVIES__"          // *model.Frame, reconciled records with rating counts.
	ParamTriggerMatched = "__TRIGGER_MATCHED__" // Source name of the object that triggered the run.
	ParamRowsWritten    = "__ROWS_WRITTEN__"    // map[string]int of rows appended per relation.
)
