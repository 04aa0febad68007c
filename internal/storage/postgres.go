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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// PostgresWriter appends frames to tables of one schema using COPY.
type PostgresWriter struct {
	pool      *pgxpool.Pool
	schema    string
	batchSize int
}

// NewPostgresWriter opens a connection pool for config.DSN.
func NewPostgresWriter(ctx context.Context, config cloud.Postgres, batchSize int) (*PostgresWriter, error) {
	cfg, err := pgxpool.ParseConfig(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres.dsn: %w", err)
	}
	if config.MaxConns > 0 {
		cfg.MaxConns = config.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	schema := config.Schema
	if schema == "" {
		schema = "public"
	}
	return &PostgresWriter{pool: pool, schema: schema, batchSize: batchSize}, nil
}

func postgresType(kind ColumnKind) string {
	switch kind {
	case KindInteger:
		return "BIGINT"
	case KindFloat:
		return "DOUBLE PRECISION"
	case KindBool:
		return "BOOLEAN"
	case KindDate:
		return "DATE"
	}
	return "TEXT"
}

// CreateTableSQL renders the CREATE TABLE IF NOT EXISTS statement for
// relation in schema.
func CreateTableSQL(schema string, relation string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + postgresType(c.Kind)
	}
	return "CREATE TABLE IF NOT EXISTS " + pgx.Identifier{schema, relation}.Sanitize() +
		" (" + strings.Join(defs, ", ") + ")"
}

// AddColumnsSQL renders the ALTER TABLE statement that adds any of columns
// relation is missing. Columns already present are left alone.
func AddColumnsSQL(schema string, relation string, columns []Column) string {
	adds := make([]string, len(columns))
	for i, c := range columns {
		adds[i] = "ADD COLUMN IF NOT EXISTS " + pgx.Identifier{c.Name}.Sanitize() + " " + postgresType(c.Kind)
	}
	return "ALTER TABLE " + pgx.Identifier{schema, relation}.Sanitize() + " " + strings.Join(adds, ", ")
}

// Append creates relation when needed, adds columns it lacks and copies
// frame into it.
func (w *PostgresWriter) Append(ctx context.Context, relation string, frame *model.Frame) (int, error) {
	if frame.Len() == 0 {
		return 0, nil
	}
	columns := InferSchema(frame)
	if _, err := w.pool.Exec(ctx, CreateTableSQL(w.schema, relation, columns)); err != nil {
		return 0, fmt.Errorf("failed to create %s.%s: %w", w.schema, relation, err)
	}
	if _, err := w.pool.Exec(ctx, AddColumnsSQL(w.schema, relation, columns)); err != nil {
		return 0, fmt.Errorf("failed to add columns to %s.%s: %w", w.schema, relation, err)
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	written := 0
	for _, span := range chunks(frame.Len(), w.batchSize) {
		rows := make([][]interface{}, 0, span[1]-span[0])
		for _, row := range frame.Rows[span[0]:span[1]] {
			values := make([]interface{}, len(columns))
			for i, c := range columns {
				values[i] = c.Kind.Value(row[c.Name])
			}
			rows = append(rows, values)
		}
		n, err := w.pool.CopyFrom(ctx, pgx.Identifier{w.schema, relation}, names, pgx.CopyFromRows(rows))
		written += int(n)
		if err != nil {
			return written, fmt.Errorf("copy into %s.%s failed after %d rows: %w", w.schema, relation, written, err)
		}
	}
	slog.InfoContext(ctx, "appended rows", "driver", cloud.SinkPostgres, "relation", relation, "rows", written)
	return written, nil
}

// Close closes the pool.
func (w *PostgresWriter) Close() error {
	w.pool.Close()
	return nil
}
