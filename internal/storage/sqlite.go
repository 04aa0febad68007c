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
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	_ "modernc.org/sqlite"
)

// SQLiteWriter appends frames to tables of a local database file.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens, or creates, the database at path.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	return &SQLiteWriter{db: db}, nil
}

// DB exposes the underlying handle, mainly for tests.
func (w *SQLiteWriter) DB() *sql.DB {
	return w.db
}

func sqliteType(kind ColumnKind) string {
	switch kind {
	case KindInteger, KindBool:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	}
	return "TEXT"
}

func sqliteValue(kind ColumnKind, v interface{}) interface{} {
	switch t := kind.Value(v).(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return t
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Append creates relation when needed and inserts frame in one transaction.
func (w *SQLiteWriter) Append(ctx context.Context, relation string, frame *model.Frame) (int, error) {
	if frame.Len() == 0 {
		return 0, nil
	}
	columns := InferSchema(frame)
	defs := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c.Name)
		defs[i] = quoted[i] + " " + sqliteType(c.Kind)
	}
	table := quoteIdent(relation)
	if _, err := w.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (`+strings.Join(defs, ",")+`)`); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", relation, err)
	}
	if err := w.addMissingColumns(ctx, relation, columns); err != nil {
		return 0, err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (`+strings.Join(quoted, ",")+`) VALUES (`+ph+`)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", relation, err)
	}
	defer stmt.Close()

	for i, row := range frame.Rows {
		args := make([]interface{}, len(columns))
		for j, c := range columns {
			args[j] = sqliteValue(c.Kind, row[c.Name])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert into %s failed at row %d: %w", relation, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "appended rows", "driver", cloud.SinkSQLite, "relation", relation, "rows", frame.Len())
	return frame.Len(), nil
}

// addMissingColumns widens an existing relation with the columns of frame it
// does not have yet, such as a rating value first seen in a later run.
func (w *SQLiteWriter) addMissingColumns(ctx context.Context, relation string, columns []Column) error {
	rows, err := w.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, relation)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", relation, err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		existing[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	table := quoteIdent(relation)
	for _, c := range columns {
		if existing[c.Name] {
			continue
		}
		if _, err := w.db.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN `+quoteIdent(c.Name)+` `+sqliteType(c.Kind)); err != nil {
			return fmt.Errorf("failed to add column %s to %s: %w", c.Name, relation, err)
		}
		slog.InfoContext(ctx, "added column", "driver", cloud.SinkSQLite, "relation", relation, "column", c.Name)
	}
	return nil
}

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
