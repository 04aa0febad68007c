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

// Package cloud defines the application configuration, loaded from TOML
// files, and the Google Cloud plumbing the ETL runs on: service clients,
// object storage access and the Pub/Sub trigger.
//
// Structs:
//   - Sources: Where the three input datasets live.
//   - DateParserConfig: Accepted release-date shapes in priority order.
//   - Reconcile: The date plausibility window and sparse-column ratio.
//   - Sink: Which writer receives the two output relations.
//   - BigQueryDataSource, Postgres, SQLite: Per-driver sink settings.
//   - TopicSubscription: A Pub/Sub subscription that triggers runs.
//   - Config: The top-level struct aggregating all of the above.
package cloud

import (
	"fmt"
	"time"
)

// Sink drivers.
const (
	SinkBigQuery = "bigquery"
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"
)

// Source names, used as keys for fetched paths and in trigger matching.
const (
	SourceWikipedia = "wikipedia"
	SourceCatalog   = "kaggle_metadata"
	SourceRatings   = "ratings"
)

// Sources locates the input datasets. Each value is a local path or a
// gs://bucket/object URI. A ratings URI ending in "/" names a prefix whose
// objects are all read.
type Sources struct {
	Wikipedia        string `toml:"wikipedia"`          // Encyclopedic dump, a JSON array.
	KaggleMetadata   string `toml:"kaggle_metadata"`    // Catalog export CSV.
	Ratings          string `toml:"ratings"`            // Rating events CSV, or a prefix of CSV shards.
	RatingsChunkSize int    `toml:"ratings_chunk_size"` // Rows between progress log records.
}

// ByName returns the configured URIs keyed by source name.
func (s Sources) ByName() map[string]string {
	return map[string]string{
		SourceWikipedia: s.Wikipedia,
		SourceCatalog:   s.KaggleMetadata,
		SourceRatings:   s.Ratings,
	}
}

// DateParserConfig lists accepted date shapes, highest priority first.
type DateParserConfig struct {
	Shapes []string `toml:"shapes"`
}

// Reconcile holds the reconciliation thresholds.
type Reconcile struct {
	NewerCutoff       string  `toml:"newer_cutoff"`        // YYYY-MM-DD
	OlderCutoff       string  `toml:"older_cutoff"`        // YYYY-MM-DD
	SparseColumnRatio float64 `toml:"sparse_column_ratio"` // Null share at which an encyclopedic column is dropped.
}

// Cutoffs parses NewerCutoff and OlderCutoff.
func (r Reconcile) Cutoffs() (newer time.Time, older time.Time, err error) {
	newer, err = time.Parse(time.DateOnly, r.NewerCutoff)
	if err != nil {
		return newer, older, fmt.Errorf("invalid reconcile.newer_cutoff %q: %w", r.NewerCutoff, err)
	}
	older, err = time.Parse(time.DateOnly, r.OlderCutoff)
	if err != nil {
		return newer, older, fmt.Errorf("invalid reconcile.older_cutoff %q: %w", r.OlderCutoff, err)
	}
	if !older.Before(newer) {
		return newer, older, fmt.Errorf("reconcile.older_cutoff %s must be before newer_cutoff %s", r.OlderCutoff, r.NewerCutoff)
	}
	return newer, older, nil
}

// Sink selects the output writer and the names of the two relations.
type Sink struct {
	Driver          string `toml:"driver"`           // bigquery, postgres or sqlite
	MoviesRelation  string `toml:"movies_relation"`  // Reconciled records with rating counts.
	RatingsRelation string `toml:"ratings_relation"` // Wide rating-count table.
	BatchSize       int    `toml:"batch_size"`       // Rows per insert batch.
}

// BigQueryDataSource configures the BigQuery sink.
type BigQueryDataSource struct {
	DatasetName      string  `toml:"dataset"`            // The BigQuery dataset holding both relations.
	InsertsPerSecond float64 `toml:"inserts_per_second"` // Insert batches allowed per second.
}

// Postgres configures the PostgreSQL sink.
type Postgres struct {
	DSN      string `toml:"dsn"`
	Schema   string `toml:"schema"`
	MaxConns int32  `toml:"max_conns"`
}

// SQLite configures the SQLite sink.
type SQLite struct {
	Path string `toml:"path"`
}

// TopicSubscription configures a Pub/Sub subscription carrying GCS object
// notifications.
type TopicSubscription struct {
	Name             string `toml:"name"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Config is the top-level configuration.
type Config struct {
	Application struct {
		Name             string `toml:"name"`              // Service name for telemetry.
		GoogleProjectId  string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation   string `toml:"location"`          // The Google Cloud location.
		LogFile          string `toml:"log_file"`          // Optional second log destination.
		TelemetryEnabled bool   `toml:"telemetry_enabled"` // Export traces and metrics to Google Cloud.
	} `toml:"application"`
	Sources            Sources                      `toml:"sources"`
	DateParser         DateParserConfig             `toml:"date_parser"`
	Reconcile          Reconcile                    `toml:"reconcile"`
	Sink               Sink                         `toml:"sink"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Postgres           Postgres                     `toml:"postgres"`
	SQLite             SQLite                       `toml:"sqlite"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name, e.g. "SourceUploads".
}

// NewConfig returns a Config holding the built-in defaults. Loaded files
// override them field by field.
func NewConfig() *Config {
	c := &Config{TopicSubscriptions: make(map[string]TopicSubscription)}
	c.Application.Name = "movie-etl"
	c.Sources.RatingsChunkSize = 1000000
	c.DateParser.Shapes = []string{"month_day_year", "year_month_day", "month_year", "year"}
	c.Reconcile.NewerCutoff = "1996-01-01"
	c.Reconcile.OlderCutoff = "1965-01-01"
	c.Reconcile.SparseColumnRatio = 0.9
	c.Sink.Driver = SinkBigQuery
	c.Sink.MoviesRelation = "movies"
	c.Sink.RatingsRelation = "ratings"
	c.Sink.BatchSize = 500
	c.BigQueryDataSource.InsertsPerSecond = 10
	c.Postgres.Schema = "public"
	c.Postgres.MaxConns = 4
	return c
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	for name, uri := range c.Sources.ByName() {
		if uri == "" {
			return fmt.Errorf("sources.%s is not set", name)
		}
	}
	if _, _, err := c.Reconcile.Cutoffs(); err != nil {
		return err
	}
	if c.Reconcile.SparseColumnRatio <= 0 || c.Reconcile.SparseColumnRatio > 1 {
		return fmt.Errorf("reconcile.sparse_column_ratio must be in (0, 1], got %v", c.Reconcile.SparseColumnRatio)
	}
	switch c.Sink.Driver {
	case SinkBigQuery:
		if c.Application.GoogleProjectId == "" || c.BigQueryDataSource.DatasetName == "" {
			return fmt.Errorf("bigquery sink needs application.google_project_id and big_query_data_source.dataset")
		}
	case SinkPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres sink needs postgres.dsn")
		}
	case SinkSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite sink needs sqlite.path")
		}
	default:
		return fmt.Errorf("unknown sink.driver %q", c.Sink.Driver)
	}
	if c.Sink.MoviesRelation == "" || c.Sink.RatingsRelation == "" {
		return fmt.Errorf("sink.movies_relation and sink.ratings_relation must be set")
	}
	return nil
}
