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

// Package storage writes the output relations of a run.
//
// A Writer appends a frame to a named relation, creating the relation from
// the frame's inferred schema when it does not exist. Rows are never
// replaced. Values are converted at this boundary: lists become
// "; "-joined text, mappings become JSON text and dates keep their date type
// where the store has one.
//
// Implementations:
//   - BigQueryWriter: streaming inserts, throttled, with deterministic insert ids.
//   - PostgresWriter: COPY into a schema-qualified table through a pgx pool.
//   - SQLiteWriter: one transaction per append on a local database file.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// Writer appends frames to named relations.
type Writer interface {
	// Append writes every row of frame to relation and returns the number of
	// rows written.
	Append(ctx context.Context, relation string, frame *model.Frame) (int, error)

	// Close releases the writer's connections.
	Close() error
}

type runIDKey struct{}

// WithRunID attaches the id of the current run to ctx. Writers that
// deduplicate inserts derive their row ids from it.
func WithRunID(ctx context.Context, runID uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run id attached by WithRunID.
func RunIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey{}).(uuid.UUID)
	return id, ok
}

// NewWriter returns the writer selected by sink.driver.
func NewWriter(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (Writer, error) {
	switch config.Sink.Driver {
	case cloud.SinkBigQuery:
		if clients == nil || clients.BigQueryClient == nil {
			return nil, fmt.Errorf("bigquery sink selected but no bigquery client is available")
		}
		return NewBigQueryWriter(clients.BigQueryClient, config.BigQueryDataSource, config.Sink.BatchSize), nil
	case cloud.SinkPostgres:
		return NewPostgresWriter(ctx, config.Postgres, config.Sink.BatchSize)
	case cloud.SinkSQLite:
		return NewSQLiteWriter(config.SQLite.Path)
	}
	return nil, fmt.Errorf("unknown sink driver %q", config.Sink.Driver)
}
