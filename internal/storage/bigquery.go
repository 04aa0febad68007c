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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

// BigQueryWriter appends frames to tables of one dataset with the streaming
// inserter.
type BigQueryWriter struct {
	client    *bigquery.Client
	dataset   string
	batchSize int
	limiter   *rate.Limiter
}

// NewBigQueryWriter creates a writer for the configured dataset. Insert
// batches are limited to config.InsertsPerSecond.
func NewBigQueryWriter(client *bigquery.Client, config cloud.BigQueryDataSource, batchSize int) *BigQueryWriter {
	limit := rate.Inf
	if config.InsertsPerSecond > 0 {
		limit = rate.Limit(config.InsertsPerSecond)
	}
	return &BigQueryWriter{
		client:    client,
		dataset:   config.DatasetName,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// FieldName maps a column name to a valid BigQuery field name. Characters
// other than letters, digits and underscores become underscores, so
// "rating_0.5" is stored as "rating_0_5".
func FieldName(column string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, column)
}

// BigQuerySchema converts inferred columns to a table schema.
func BigQuerySchema(columns []Column) bigquery.Schema {
	schema := make(bigquery.Schema, len(columns))
	for i, c := range columns {
		var t bigquery.FieldType
		switch c.Kind {
		case KindInteger:
			t = bigquery.IntegerFieldType
		case KindFloat:
			t = bigquery.FloatFieldType
		case KindBool:
			t = bigquery.BooleanFieldType
		case KindDate:
			t = bigquery.DateFieldType
		default:
			t = bigquery.StringFieldType
		}
		schema[i] = &bigquery.FieldSchema{Name: FieldName(c.Name), Type: t}
	}
	return schema
}

// rowSaver implements bigquery.ValueSaver for one frame row.
type rowSaver struct {
	columns  []Column
	row      model.Row
	insertID string
}

func (s *rowSaver) Save() (map[string]bigquery.Value, string, error) {
	out := make(map[string]bigquery.Value, len(s.columns))
	for _, c := range s.columns {
		v := c.Kind.Value(s.row[c.Name])
		if t, ok := v.(time.Time); ok {
			v = civil.DateOf(t)
		}
		out[FieldName(c.Name)] = v
	}
	return out, s.insertID, nil
}

// InsertID is stable for a run, relation and row position so that a retried
// batch is deduplicated by BigQuery.
func InsertID(runID uuid.UUID, relation string, index int) string {
	return uuid.NewSHA1(runID, []byte(fmt.Sprintf("%s/%d", relation, index))).String()
}

// MissingFields returns the fields of columns that schema does not have yet.
func MissingFields(schema bigquery.Schema, columns []Column) bigquery.Schema {
	have := make(map[string]bool, len(schema))
	for _, f := range schema {
		have[f.Name] = true
	}
	var out bigquery.Schema
	for _, f := range BigQuerySchema(columns) {
		if !have[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// ensureTable creates the table from columns when it does not exist, and
// adds the fields an existing table lacks.
func (w *BigQueryWriter) ensureTable(ctx context.Context, table *bigquery.Table, columns []Column) error {
	meta, err := table.Metadata(ctx)
	if err == nil {
		missing := MissingFields(meta.Schema, columns)
		if len(missing) == 0 {
			return nil
		}
		slog.InfoContext(ctx, "adding bigquery fields", "dataset", w.dataset, "table", table.TableID, "fields", len(missing))
		update := bigquery.TableMetadataToUpdate{Schema: append(meta.Schema, missing...)}
		if _, err := table.Update(ctx, update, meta.ETag); err != nil {
			return fmt.Errorf("failed to add fields to %s.%s: %w", w.dataset, table.TableID, err)
		}
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("failed to read metadata of %s.%s: %w", w.dataset, table.TableID, err)
	}
	slog.InfoContext(ctx, "creating bigquery table", "dataset", w.dataset, "table", table.TableID)
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: BigQuerySchema(columns)}); err != nil {
		return fmt.Errorf("failed to create %s.%s: %w", w.dataset, table.TableID, err)
	}
	return nil
}

// Append streams frame into relation in batches.
func (w *BigQueryWriter) Append(ctx context.Context, relation string, frame *model.Frame) (int, error) {
	if frame.Len() == 0 {
		return 0, nil
	}
	columns := InferSchema(frame)
	table := w.client.Dataset(w.dataset).Table(FieldName(relation))
	if err := w.ensureTable(ctx, table, columns); err != nil {
		return 0, err
	}

	runID, ok := RunIDFrom(ctx)
	if !ok {
		runID = uuid.New()
	}
	inserter := table.Inserter()
	written := 0
	for _, span := range chunks(frame.Len(), w.batchSize) {
		if err := w.limiter.Wait(ctx); err != nil {
			return written, err
		}
		savers := make([]bigquery.ValueSaver, 0, span[1]-span[0])
		for i := span[0]; i < span[1]; i++ {
			savers = append(savers, &rowSaver{columns: columns, row: frame.Rows[i], insertID: InsertID(runID, relation, i)})
		}
		if err := inserter.Put(ctx, savers); err != nil {
			return written, fmt.Errorf("bigquery insert into %s.%s failed after %d rows: %w", w.dataset, relation, written, err)
		}
		written += len(savers)
	}
	slog.InfoContext(ctx, "appended rows", "driver", cloud.SinkBigQuery, "relation", relation, "rows", written)
	return written, nil
}

// Close is a no-op: the client belongs to cloud.ServiceClients.
func (w *BigQueryWriter) Close() error {
	return nil
}
