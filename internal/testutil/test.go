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

// Package test provides the test configuration and sample source data shared
// by the package tests.
package test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
)

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ConfigDir returns the repository's configs directory.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at configs/.env.toml and
// configs/.env.test.toml.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads a fresh test configuration. Tests may change it freely.
func GetConfig(t *testing.T) *cloud.Config {
	t.Helper()
	HandleErr(SetupOS(), t)
	config := cloud.NewConfig()
	HandleErr(cloud.LoadConfig(config), t)
	return config
}

// LocalConfig returns the test configuration with every source written to a
// temporary directory and a SQLite sink in the same directory.
func LocalConfig(t *testing.T) *cloud.Config {
	t.Helper()
	config := GetConfig(t)
	dir := t.TempDir()
	config.Sources = WriteSources(t, dir)
	config.Sink.Driver = cloud.SinkSQLite
	config.SQLite.Path = filepath.Join(dir, "movies.db")
	return config
}

// WriteSources writes the three sample sources into dir and returns their
// locations.
func WriteSources(t *testing.T, dir string) cloud.Sources {
	t.Helper()
	sources := cloud.Sources{
		Wikipedia:        filepath.Join(dir, "wikipedia-movies.json"),
		KaggleMetadata:   filepath.Join(dir, "movies_metadata.csv"),
		Ratings:          filepath.Join(dir, "ratings.csv"),
		RatingsChunkSize: 2,
	}
	HandleErr(os.WriteFile(sources.Wikipedia, []byte(WikipediaJSON), 0o644), t)
	HandleErr(os.WriteFile(sources.KaggleMetadata, []byte(CatalogCSV), 0o644), t)
	HandleErr(os.WriteFile(sources.Ratings, []byte(RatingsCSV), 0o644), t)
	return sources
}

// GetTestSourceMessageText returns a Cloud Storage notification for
// gs://bucket/name.
func GetTestSourceMessageText(bucket string, name string) string {
	return `{
  "kind": "storage#object",
  "id": "` + bucket + `/` + name + `/1728615848664286",
  "name": "` + name + `",
  "bucket": "` + bucket + `",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "text/csv",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "1024",
  "metadata": { "touch": "18" }
}`
}
