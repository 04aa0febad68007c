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
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/parse"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/transform"
)

// maxLoggedExclusions caps the per-row exclusion records logged at debug.
const maxLoggedExclusions = 10

// CoerceCatalog types the catalog export.
type CoerceCatalog struct {
	cor.BaseCommand
	dates *parse.DateParser
}

func NewCoerceCatalog(name string, dates *parse.DateParser) *CoerceCatalog {
	out := &CoerceCatalog{BaseCommand: *cor.NewBaseCommand(name), dates: dates}
	out.InputParamName = ParamCatalog
	out.OutputParamName = ParamCatalogFrame
	return out
}

func (c *CoerceCatalog) Execute(context cor.Context) {
	catalog, ok := context.Get(c.GetInputParam()).(*model.Catalog)
	if !ok || catalog == nil {
		c.Fail(context, &model.InputError{Source: "kaggle_metadata", Err: fmt.Errorf("unexpected input %T", context.Get(c.GetInputParam()))})
		return
	}
	frame, report := transform.CoerceCatalog(catalog, c.dates)
	for i, err := range report.Excluded {
		if i == maxLoggedExclusions {
			break
		}
		slog.DebugContext(context.GetContext(), "catalog row excluded", "stage", c.GetName(), "error", err)
	}
	slog.InfoContext(context.GetContext(), "catalog coerced",
		"stage", c.GetName(),
		"rows_in", report.Input,
		"adult_or_flag", report.AdultOrFlag,
		"excluded", len(report.Excluded),
		"date_misses", report.DateMisses,
		"rows_out", report.Output)
	c.Complete(context, frame, report.Input, report.Output)
}
