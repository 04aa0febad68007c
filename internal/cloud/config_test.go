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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	test "github.com/jaycherian/gcp-go-movie-etl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	config := cloud.NewConfig()
	assert.Equal(t, cloud.SinkBigQuery, config.Sink.Driver)
	assert.Equal(t, "movies", config.Sink.MoviesRelation)
	assert.Equal(t, "ratings", config.Sink.RatingsRelation)
	assert.Equal(t, []string{"month_day_year", "year_month_day", "month_year", "year"}, config.DateParser.Shapes)
	assert.Equal(t, 0.9, config.Reconcile.SparseColumnRatio)

	newer, older, err := config.Reconcile.Cutoffs()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC), newer)
	assert.Equal(t, time.Date(1965, time.January, 1, 0, 0, 0, 0, time.UTC), older)
}

func TestCutoffsRejectInvertedWindow(t *testing.T) {
	r := cloud.Reconcile{NewerCutoff: "1965-01-01", OlderCutoff: "1996-01-01"}
	_, _, err := r.Cutoffs()
	assert.Error(t, err)

	r = cloud.Reconcile{NewerCutoff: "01/01/1996", OlderCutoff: "1965-01-01"}
	_, _, err = r.Cutoffs()
	assert.Error(t, err)
}

func validConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Sources = cloud.Sources{Wikipedia: "a.json", KaggleMetadata: "b.csv", Ratings: "gs://bucket/ratings/"}
	config.Sink.Driver = cloud.SinkSQLite
	config.SQLite.Path = "out.db"
	return config
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(*cloud.Config){
		"missing source":   func(c *cloud.Config) { c.Sources.Ratings = "" },
		"bad ratio":        func(c *cloud.Config) { c.Reconcile.SparseColumnRatio = 0 },
		"bad cutoff":       func(c *cloud.Config) { c.Reconcile.OlderCutoff = "soon" },
		"unknown driver":   func(c *cloud.Config) { c.Sink.Driver = "csv" },
		"no sqlite path":   func(c *cloud.Config) { c.SQLite.Path = "" },
		"no postgres dsn":  func(c *cloud.Config) { c.Sink.Driver = cloud.SinkPostgres },
		"no bq dataset":    func(c *cloud.Config) { c.Sink.Driver = cloud.SinkBigQuery; c.Application.GoogleProjectId = "p" },
		"no movies table":  func(c *cloud.Config) { c.Sink.MoviesRelation = "" },
		"no ratings table": func(c *cloud.Config) { c.Sink.RatingsRelation = "" },
	}
	for name, mutate := range cases {
		config := validConfig()
		mutate(config)
		assert.Error(t, config.Validate(), name)
	}
}

func TestUsesGCS(t *testing.T) {
	config := validConfig()
	assert.True(t, config.UsesGCS())
	config.Sources.Ratings = "ratings.csv"
	assert.False(t, config.UsesGCS())
}

func TestLoadConfigOverlaysRuntime(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(`
[application]
name = "base"
google_project_id = "base-project"

[sink]
driver = "bigquery"
batch_size = 100
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.ci.toml"), []byte(`
[sink]
driver = "sqlite"
`), 0o644))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "ci")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, "base", config.Application.Name)
	assert.Equal(t, "base-project", config.Application.GoogleProjectId)
	assert.Equal(t, cloud.SinkSQLite, config.Sink.Driver)
	assert.Equal(t, 100, config.Sink.BatchSize)
	// Untouched defaults survive.
	assert.Equal(t, "movies", config.Sink.MoviesRelation)
}

func TestLoadConfigRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte("[sink\ndriver ="), 0o644))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "missing")

	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

func TestRepositoryTestConfig(t *testing.T) {
	config := test.GetConfig(t)
	assert.Equal(t, cloud.SinkSQLite, config.Sink.Driver)
	assert.False(t, config.Application.TelemetryEnabled)
	assert.Equal(t, 2, config.Sources.RatingsChunkSize)
	assert.Contains(t, config.TopicSubscriptions, "SourceUploads")
	assert.NoError(t, config.Validate())
}
