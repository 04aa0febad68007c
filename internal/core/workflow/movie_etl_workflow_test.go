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

package workflow_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/workflow"
	"github.com/jaycherian/gcp-go-movie-etl/internal/storage"
	test "github.com/jaycherian/gcp-go-movie-etl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPipeline(t *testing.T, config *cloud.Config, writer storage.Writer) workflow.RunSummary {
	t.Helper()
	ctx, span := tracer.Start(context.Background(), t.Name())
	defer span.End()

	pipeline, err := workflow.NewMovieETLPipeline(config, nil, writer)
	require.NoError(t, err)

	chCtx, runID := workflow.NewRunContext(ctx)
	defer chCtx.Close()
	pipeline.Execute(chCtx)

	summary := workflow.Summarize(chCtx)
	assert.Equal(t, runID, summary.RunID)
	summary.Log(ctx)
	return summary
}

type movieRow struct {
	imdbID      string
	title       string
	runtime     float64
	budget      float64
	revenue     float64
	releaseDate string
	rated40     int64
	rated35     int64
	rated50     int64
}

func TestMovieETLPipeline(t *testing.T) {
	config := test.LocalConfig(t)
	writer, err := storage.NewSQLiteWriter(config.SQLite.Path)
	require.NoError(t, err)
	defer writer.Close()

	summary := runPipeline(t, config, writer)
	require.False(t, summary.Failed(), "errors: %v", summary.Errors)
	assert.Equal(t, map[string]int{"movies": 2, "ratings": 3}, summary.RowsWritten)
	for _, s := range summary.Skipped() {
		logger.Info("skipped stage", "stage", s.Stage, "reason", s.Reason)
	}
	assert.Empty(t, summary.Skipped())

	rows, err := writer.DB().Query(`SELECT "imdb_id", "title", "runtime", "budget", "revenue", "release_date",
		"rating_4.0", "rating_3.5", "rating_5.0" FROM "movies" ORDER BY "kaggle_id"`)
	require.NoError(t, err)
	defer rows.Close()
	var got []movieRow
	for rows.Next() {
		var r movieRow
		require.NoError(t, rows.Scan(&r.imdbID, &r.title, &r.runtime, &r.budget, &r.revenue, &r.releaseDate,
			&r.rated40, &r.rated35, &r.rated50))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []movieRow{
		// runtime and revenue were zero in the catalog and come from the encyclopedia.
		{imdbID: "tt1234567", title: "The Test Film", runtime: 90, budget: 5, revenue: 12e6,
			releaseDate: "1999-07-01", rated40: 2, rated35: 1},
		// budget was zero in the catalog.
		{imdbID: "tt7654321", title: "Second Feature", runtime: 95, budget: 2.5e6, revenue: 1e6,
			releaseDate: "2001-05-05", rated50: 1},
	}, got)

	var ids []int64
	idRows, err := writer.DB().Query(`SELECT "movie_id" FROM "ratings" ORDER BY "movie_id"`)
	require.NoError(t, err)
	defer idRows.Close()
	for idRows.Next() {
		var id int64
		require.NoError(t, idRows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []int64{101, 102, 999}, ids)

	var orphan int64
	require.NoError(t, writer.DB().QueryRow(`SELECT "rating_2.0" FROM "ratings" WHERE "movie_id" = 999`).Scan(&orphan))
	assert.Equal(t, int64(1), orphan)
}

func TestMovieETLPipelineAppends(t *testing.T) {
	config := test.LocalConfig(t)
	writer, err := storage.NewSQLiteWriter(config.SQLite.Path)
	require.NoError(t, err)
	defer writer.Close()

	runPipeline(t, config, writer)
	summary := runPipeline(t, config, writer)
	require.False(t, summary.Failed())

	var count int
	require.NoError(t, writer.DB().QueryRow(`SELECT COUNT(*) FROM "movies"`).Scan(&count))
	assert.Equal(t, 4, count)
}

func TestMovieETLPipelineStopsOnMissingSource(t *testing.T) {
	config := test.LocalConfig(t)
	config.Sources.Ratings = filepath.Join(t.TempDir(), "absent.csv")
	writer, err := storage.NewSQLiteWriter(config.SQLite.Path)
	require.NoError(t, err)
	defer writer.Close()

	summary := runPipeline(t, config, writer)
	require.True(t, summary.Failed())
	assert.ErrorIs(t, summary.Errors["fetch-sources"], model.ErrFatalInputAbsence)
	assert.Empty(t, summary.RowsWritten)

	var tables int
	require.NoError(t, writer.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&tables))
	assert.Zero(t, tables)
}

func TestMovieETLPipelineSinkFailure(t *testing.T) {
	config := test.LocalConfig(t)
	writer, err := storage.NewSQLiteWriter(config.SQLite.Path)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	summary := runPipeline(t, config, writer)
	require.True(t, summary.Failed())
	assert.Contains(t, summary.Errors, "write-movies")
	// The chain stops at the first failed write.
	assert.NotContains(t, summary.Errors, "write-ratings")
}

func TestNewMovieETLPipelineRejectsBadConfig(t *testing.T) {
	config := test.LocalConfig(t)
	config.DateParser.Shapes = []string{"day_month_year"}
	_, err := workflow.NewMovieETLPipeline(config, nil, nil)
	assert.Error(t, err)

	config = test.LocalConfig(t)
	config.Reconcile.NewerCutoff = "1900-01-01"
	_, err = workflow.NewMovieETLPipeline(config, nil, nil)
	assert.Error(t, err)
}

func TestPipelineRunIDReachesContext(t *testing.T) {
	chCtx, runID := workflow.NewRunContext(context.Background())
	assert.Equal(t, runID, chCtx.Get(commands.ParamRunID))
	assert.Equal(t, runID, workflow.Summarize(chCtx).RunID)
}
