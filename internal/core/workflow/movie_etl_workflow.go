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

// Package workflow assembles the ETL commands into runnable pipelines.
// This file implements the batch pipeline: fetch and decode the sources,
// normalize the encyclopedic records, type the catalog, reconcile the two,
// count the ratings and append both output relations.
package workflow

import (
	gcs "cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/parse"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/transform"
	"github.com/jaycherian/gcp-go-movie-etl/internal/storage"
)

// PipelineName names the batch chain in spans and logs.
const PipelineName = "movie-etl-pipeline"

// MovieETLWorkflow runs one batch. Fatal input absence and sink failures
// stop it; every other failure skips the affected stage and is reported as a
// cor.StageResult.
type MovieETLWorkflow struct {
	cor.BaseCommand
	config        *cloud.Config
	storageClient *gcs.Client
	writer        storage.Writer
	dates         *parse.DateParser
	window        transform.DateWindow
	chain         cor.Chain
}

// Execute runs the chain.
func (m *MovieETLWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// Chain returns the assembled chain.
func (m *MovieETLWorkflow) Chain() cor.Chain {
	return m.chain
}

// wikipediaChain normalizes the encyclopedic dump into ParamWikiFrame.
func (m *MovieETLWorkflow) wikipediaChain() cor.Chain {
	out := cor.NewBaseChain("wikipedia-normalize")
	out.InputParamName = commands.ParamWikipedia
	out.OutputParamName = commands.ParamWikiFrame
	out.ContinueOnFailure(true)

	out.AddCommand(commands.NewSelectFilms("select-films"))
	out.AddCommand(commands.NewNormalizeFields("normalize-fields"))
	out.AddCommand(commands.NewDedupFilms("dedup-imdb-id"))
	out.AddCommand(commands.NewPruneSparse("prune-sparse-columns", m.config.Reconcile.SparseColumnRatio))
	out.AddCommand(commands.NewFrameStage("parse-box-office", transform.DeriveBoxOffice))
	out.AddCommand(commands.NewFrameStage("parse-budget", transform.DeriveBudget))
	out.AddCommand(commands.NewFrameStage("parse-release-date", func(f *model.Frame) (*model.Frame, error) {
		return transform.DeriveReleaseDate(f, m.dates)
	}))
	out.AddCommand(commands.NewFrameStage("parse-running-time", transform.DeriveRunningTime))
	return out
}

// reconcileChain joins the sources and resolves the competing columns into
// ParamReconciled.
func (m *MovieETLWorkflow) reconcileChain() cor.Chain {
	out := cor.NewBaseChain("reconcile")
	out.InputParamName = commands.ParamWikiFrame
	out.OutputParamName = commands.ParamReconciled
	out.ContinueOnFailure(true)

	out.AddCommand(commands.NewJoinSources("join", commands.ParamCatalogFrame))
	out.AddCommand(commands.NewPruneDateMismatch("prune-date-mismatch", m.window))
	out.AddCommand(commands.NewFrameStage("drop-superseded", transform.DropSuperseded))
	for _, rule := range transform.FillRules {
		out.AddCommand(commands.NewFillOnZero(rule))
	}
	out.AddCommand(commands.NewFrameStage("project", transform.Project))
	out.AddCommand(commands.NewFrameStage("rename", transform.Publish))
	return out
}

func (m *MovieETLWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: Make the three sources available as local files.
	out.AddCommand(commands.NewFetchSources("fetch-sources", m.storageClient, m.config.Sources))

	// Step 2: Decode the encyclopedic dump and the catalog export in parallel.
	out.AddCommand(commands.NewLoadSources("load-sources"))

	// Step 3: Filter, normalize, deduplicate and parse the encyclopedic records.
	out.AddCommand(m.wikipediaChain())

	// Step 4: Type the catalog rows.
	out.AddCommand(commands.NewCoerceCatalog("coerce-catalog", m.dates))

	// Step 5: Join and resolve the two sources into the published schema.
	out.AddCommand(m.reconcileChain())

	// Step 6: Stream the ratings and count events per movie and value.
	out.AddCommand(commands.NewAggregateRatings("aggregate-ratings", m.config.Sources.RatingsChunkSize))

	// Step 7: Pivot the counts into the wide rating table.
	out.AddCommand(commands.NewRatingTable("rating-table"))

	// Step 8: Merge the counts onto the reconciled movies.
	out.AddCommand(commands.NewMergeRatings("merge-ratings"))

	// Step 9: Append both relations.
	out.AddCommand(commands.NewPersistRelation("write-movies", m.writer, m.config.Sink.MoviesRelation, commands.ParamMovies))
	out.AddCommand(commands.NewPersistRelation("write-ratings", m.writer, m.config.Sink.RatingsRelation, commands.ParamRatingTable))

	m.chain = out
}

// NewMovieETLPipeline builds the batch pipeline.
//
// Inputs:
//   - config: The application configuration.
//   - serviceClients: Supplies the storage client for gs:// sources. May be nil
//     when every source is local.
//   - writer: Receives the two output relations.
//
// Outputs:
//   - *MovieETLWorkflow: The pipeline.
//   - error: Non-nil when the date shapes or cutoffs are invalid.
func NewMovieETLPipeline(config *cloud.Config, serviceClients *cloud.ServiceClients, writer storage.Writer) (*MovieETLWorkflow, error) {
	shapes := make([]parse.DateShape, len(config.DateParser.Shapes))
	for i, s := range config.DateParser.Shapes {
		shapes[i] = parse.DateShape(s)
	}
	dates, err := parse.NewDateParser(shapes...)
	if err != nil {
		return nil, err
	}
	newer, older, err := config.Reconcile.Cutoffs()
	if err != nil {
		return nil, err
	}

	pipeline := &MovieETLWorkflow{
		BaseCommand: *cor.NewBaseCommand(PipelineName),
		config:      config,
		writer:      writer,
		dates:       dates,
		window:      transform.DateWindow{Newer: newer, Older: older},
	}
	if serviceClients != nil {
		pipeline.storageClient = serviceClients.StorageClient
	}
	pipeline.initializeChain()
	return pipeline, nil
}
