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

package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-etl/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var released = time.Date(1999, time.July, 1, 0, 0, 0, 0, time.UTC)

func movies() *model.Frame {
	f := model.NewFrame("kaggle_id", "title", "runtime", "budget", "video", "release_date", "starring", "alt_titles", "tagline")
	f.Rows = append(f.Rows,
		model.Row{
			"kaggle_id": int64(101), "title": "The Test Film", "runtime": 90.0, "budget": int64(5),
			"video": false, "release_date": released, "starring": []interface{}{"Ann Actor", "Bob Actor"},
			"alt_titles": map[string]interface{}{"French": "Le Film"},
		},
		model.Row{
			"kaggle_id": int64(102), "title": "Second Feature", "runtime": int64(95), "budget": int64(2500000),
			"video": true, "starring": "Cy Actor",
		},
	)
	return f
}

func TestInferSchema(t *testing.T) {
	columns := storage.InferSchema(movies())
	kinds := map[string]storage.ColumnKind{}
	for _, c := range columns {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, storage.KindInteger, kinds["kaggle_id"])
	assert.Equal(t, storage.KindText, kinds["title"])
	// Integers mixed with floats widen.
	assert.Equal(t, storage.KindFloat, kinds["runtime"])
	assert.Equal(t, storage.KindBool, kinds["video"])
	assert.Equal(t, storage.KindDate, kinds["release_date"])
	// Lists mixed with text are text.
	assert.Equal(t, storage.KindText, kinds["starring"])
	assert.Equal(t, storage.KindText, kinds["alt_titles"])
	// No values at all.
	assert.Equal(t, storage.KindText, kinds["tagline"])
	assert.Equal(t, "date", storage.KindDate.String())

	mixed := model.FrameFromRows([]model.Row{{"v": int64(1)}, {"v": true}})
	assert.Equal(t, storage.KindText, storage.InferSchema(mixed)[0].Kind)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "Ann Actor; Bob Actor", storage.Flatten([]interface{}{"Ann Actor", nil, "Bob Actor"}))
	assert.Equal(t, "a; b", storage.Flatten([]string{"a", "b"}))
	assert.Equal(t, `{"French":"Le Film"}`, storage.Flatten(map[string]interface{}{"French": "Le Film"}))
	assert.Equal(t, "1999-07-01", storage.Flatten(released))
	assert.Equal(t, "1.5", storage.Flatten(1.5))
	assert.Equal(t, "true", storage.Flatten(true))
	assert.Equal(t, "42", storage.Flatten(int64(42)))
	assert.Equal(t, "", storage.Flatten(nil))
}

func TestColumnKindValue(t *testing.T) {
	assert.Equal(t, int64(5), storage.KindInteger.Value(5.0))
	assert.Equal(t, 95.0, storage.KindFloat.Value(int64(95)))
	assert.Nil(t, storage.KindFloat.Value(nil))
	assert.Equal(t, "Cy Actor", storage.KindText.Value("Cy Actor"))
	assert.Equal(t, "a; b", storage.KindText.Value([]interface{}{"a", "b"}))
	// A value that does not fit its column kind is written as text.
	assert.Equal(t, "n/a", storage.KindFloat.Value("n/a"))
}

func TestBigQueryNaming(t *testing.T) {
	assert.Equal(t, "rating_0_5", storage.FieldName("rating_0.5"))
	assert.Equal(t, "Producer_s_", storage.FieldName("Producer(s)"))
	assert.Equal(t, "kaggle_id", storage.FieldName("kaggle_id"))

	schema := storage.BigQuerySchema([]storage.Column{
		{Name: "kaggle_id", Kind: storage.KindInteger},
		{Name: "rating_4.0", Kind: storage.KindInteger},
		{Name: "popularity", Kind: storage.KindFloat},
		{Name: "video", Kind: storage.KindBool},
		{Name: "release_date", Kind: storage.KindDate},
		{Name: "title", Kind: storage.KindText},
	})
	require.Len(t, schema, 6)
	assert.Equal(t, "rating_4_0", schema[1].Name)
	assert.Equal(t, bigquery.IntegerFieldType, schema[0].Type)
	assert.Equal(t, bigquery.FloatFieldType, schema[2].Type)
	assert.Equal(t, bigquery.BooleanFieldType, schema[3].Type)
	assert.Equal(t, bigquery.DateFieldType, schema[4].Type)
	assert.Equal(t, bigquery.StringFieldType, schema[5].Type)
}

func TestInsertIDIsStablePerRunAndRow(t *testing.T) {
	run := uuid.New()
	assert.Equal(t, storage.InsertID(run, "movies", 3), storage.InsertID(run, "movies", 3))
	assert.NotEqual(t, storage.InsertID(run, "movies", 3), storage.InsertID(run, "movies", 4))
	assert.NotEqual(t, storage.InsertID(run, "movies", 3), storage.InsertID(run, "ratings", 3))
	assert.NotEqual(t, storage.InsertID(run, "movies", 3), storage.InsertID(uuid.New(), "movies", 3))
}

func TestRunIDTravelsInContext(t *testing.T) {
	_, ok := storage.RunIDFrom(context.Background())
	assert.False(t, ok)

	run := uuid.New()
	got, ok := storage.RunIDFrom(storage.WithRunID(context.Background(), run))
	assert.True(t, ok)
	assert.Equal(t, run, got)
}

func TestCreateTableSQL(t *testing.T) {
	stmt := storage.CreateTableSQL("public", "movies", []storage.Column{
		{Name: "kaggle_id", Kind: storage.KindInteger},
		{Name: "rating_4.0", Kind: storage.KindInteger},
		{Name: "runtime", Kind: storage.KindFloat},
		{Name: "video", Kind: storage.KindBool},
		{Name: "release_date", Kind: storage.KindDate},
		{Name: "Producer(s)", Kind: storage.KindText},
	})
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "public"."movies" (`+
		`"kaggle_id" BIGINT, "rating_4.0" BIGINT, "runtime" DOUBLE PRECISION, `+
		`"video" BOOLEAN, "release_date" DATE, "Producer(s)" TEXT)`, stmt)
}

func TestAddColumnsSQL(t *testing.T) {
	stmt := storage.AddColumnsSQL("public", "ratings", []storage.Column{
		{Name: "movie_id", Kind: storage.KindInteger},
		{Name: "rating_1.0", Kind: storage.KindInteger},
	})
	assert.Equal(t, `ALTER TABLE "public"."ratings" `+
		`ADD COLUMN IF NOT EXISTS "movie_id" BIGINT, ADD COLUMN IF NOT EXISTS "rating_1.0" BIGINT`, stmt)
}

func TestMissingFields(t *testing.T) {
	existing := storage.BigQuerySchema([]storage.Column{
		{Name: "movie_id", Kind: storage.KindInteger},
		{Name: "rating_4.0", Kind: storage.KindInteger},
	})
	missing := storage.MissingFields(existing, []storage.Column{
		{Name: "movie_id", Kind: storage.KindInteger},
		{Name: "rating_1.0", Kind: storage.KindInteger},
		{Name: "rating_4.0", Kind: storage.KindInteger},
	})
	require.Len(t, missing, 1)
	assert.Equal(t, "rating_1_0", missing[0].Name)
	assert.Empty(t, storage.MissingFields(existing, []storage.Column{{Name: "rating_4.0", Kind: storage.KindInteger}}))
}

func TestNewWriterSelectsDriver(t *testing.T) {
	ctx := context.Background()
	config := cloud.NewConfig()

	config.Sink.Driver = cloud.SinkBigQuery
	_, err := storage.NewWriter(ctx, config, &cloud.ServiceClients{})
	assert.Error(t, err)

	config.Sink.Driver = cloud.SinkPostgres
	config.Postgres.DSN = "host=localhost port=notaport"
	_, err = storage.NewWriter(ctx, config, nil)
	assert.Error(t, err)

	config.Sink.Driver = "parquet"
	_, err = storage.NewWriter(ctx, config, nil)
	assert.Error(t, err)

	config.Sink.Driver = cloud.SinkSQLite
	config.SQLite.Path = filepath.Join(t.TempDir(), "movies.db")
	w, err := storage.NewWriter(ctx, config, nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.SQLiteWriter{}, w)
	assert.NoError(t, w.Close())
}

func TestSQLiteAppend(t *testing.T) {
	ctx := context.Background()
	w, err := storage.NewSQLiteWriter(filepath.Join(t.TempDir(), "movies.db"))
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Append(ctx, "movies", movies())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Appending again adds rows; nothing is replaced.
	n, err = w.Append(ctx, "movies", movies())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.Append(ctx, "movies", model.NewFrame("kaggle_id"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var count int
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "movies"`).Scan(&count))
	assert.Equal(t, 4, count)

	var (
		id       int64
		runtime  float64
		video    int64
		date     sql.NullString
		starring string
		alt      sql.NullString
		tagline  sql.NullString
	)
	row := w.DB().QueryRowContext(ctx, `SELECT "kaggle_id", "runtime", "video", "release_date", "starring", "alt_titles", "tagline" FROM "movies" ORDER BY rowid LIMIT 1`)
	require.NoError(t, row.Scan(&id, &runtime, &video, &date, &starring, &alt, &tagline))
	assert.Equal(t, int64(101), id)
	assert.Equal(t, 90.0, runtime)
	assert.Equal(t, int64(0), video)
	assert.Equal(t, "1999-07-01", date.String)
	assert.Equal(t, "Ann Actor; Bob Actor", starring)
	assert.Equal(t, `{"French":"Le Film"}`, alt.String)
	assert.False(t, tagline.Valid)

	row = w.DB().QueryRowContext(ctx, `SELECT "runtime", "video", "release_date" FROM "movies" WHERE "kaggle_id" = 102 LIMIT 1`)
	require.NoError(t, row.Scan(&runtime, &video, &date))
	assert.Equal(t, 95.0, runtime)
	assert.Equal(t, int64(1), video)
	assert.False(t, date.Valid)
}

func TestSQLiteAppendAddsNewColumns(t *testing.T) {
	ctx := context.Background()
	w, err := storage.NewSQLiteWriter(filepath.Join(t.TempDir(), "movies.db"))
	require.NoError(t, err)
	defer w.Close()

	first := model.FrameFromRows([]model.Row{{"movie_id": int64(10), "rating_4.0": int64(2)}})
	n, err := w.Append(ctx, "ratings", first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A later run sees a rating value the table has no column for.
	second := model.NewFrame("movie_id", "rating_1.0", "rating_4.0")
	second.Rows = append(second.Rows, model.Row{"movie_id": int64(20), "rating_1.0": int64(3), "rating_4.0": int64(0)})
	n, err = w.Append(ctx, "ratings", second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var count int
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "ratings"`).Scan(&count))
	assert.Equal(t, 2, count)

	var old, added sql.NullInt64
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT "rating_1.0" FROM "ratings" WHERE "movie_id" = 10`).Scan(&old))
	assert.False(t, old.Valid)
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT "rating_1.0" FROM "ratings" WHERE "movie_id" = 20`).Scan(&added))
	assert.Equal(t, int64(3), added.Int64)
}
