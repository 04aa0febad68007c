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

package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// Rating export header names.
const (
	ratingUserID    = "userId"
	ratingMovieID   = "movieId"
	ratingValue     = "rating"
	ratingTimestamp = "timestamp"
)

// decodeFile opens a local source, gzip or plain, and decodes it.
func decodeFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, errors.New("no file fetched")
	}
	r, err := cloud.OpenSource(path)
	if err != nil {
		return zero, err
	}
	defer r.Close()
	return decode(r)
}

// DecodeWikipedia reads a JSON array of encyclopedic records.
func DecodeWikipedia(r io.Reader) ([]model.RawRecordA, error) {
	var raw []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode encyclopedic records: %w", err)
	}
	out := make([]model.RawRecordA, len(raw))
	for i, rec := range raw {
		out[i] = model.RawRecordA(rec)
	}
	return out, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	return reader
}

func readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	if len(out) > 0 {
		out[0] = strings.TrimPrefix(out[0], "\ufeff")
	}
	return out, nil
}

// DecodeCatalog reads the catalog export. Rows with fewer cells than the
// header leave the trailing columns absent; extra cells are ignored.
func DecodeCatalog(r io.Reader) (*model.Catalog, error) {
	reader := newCSVReader(r)
	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}
	catalog := &model.Catalog{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", len(catalog.Records)+1, err)
		}
		rec := make(model.RawRecordB, len(header))
		for i, cell := range record {
			if i >= len(header) {
				break
			}
			if cell != "" {
				rec[header[i]] = cell
			}
		}
		catalog.Records = append(catalog.Records, rec)
	}
	return catalog, nil
}

// RatingStats counts what StreamRatings read.
type RatingStats struct {
	Rows int64 // data rows read
	Bad  int64 // rows dropped because a value did not parse
}

// StreamRatings reads rating events one row at a time and hands each valid
// event to fn. The header must name movieId and rating. Rows whose values do
// not parse, or whose rating is NaN or infinite, are counted and skipped.
func StreamRatings(r io.Reader, fn func(model.RatingEvent)) (RatingStats, error) {
	var stats RatingStats
	reader := newCSVReader(r)
	header, err := readHeader(reader)
	if err != nil {
		return stats, err
	}
	index := map[string]int{ratingUserID: -1, ratingMovieID: -1, ratingValue: -1, ratingTimestamp: -1}
	for i, h := range header {
		if _, known := index[h]; known {
			index[h] = i
		}
	}
	if index[ratingMovieID] < 0 || index[ratingValue] < 0 {
		return stats, &model.FieldError{Field: ratingMovieID + "/" + ratingValue, Err: model.ErrMissingField}
	}

	cell := func(record []string, name string) string {
		i := index[name]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return stats, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Rows++
			stats.Bad++
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Rows++

		movieID, err := strconv.ParseInt(cell(record, ratingMovieID), 10, 64)
		if err != nil {
			stats.Bad++
			continue
		}
		rating, err := strconv.ParseFloat(cell(record, ratingValue), 64)
		if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
			stats.Bad++
			continue
		}
		event := model.RatingEvent{MovieID: movieID, Rating: rating}
		event.UserID, _ = strconv.ParseInt(cell(record, ratingUserID), 10, 64)
		event.Timestamp, _ = strconv.ParseInt(cell(record, ratingTimestamp), 10, 64)
		fn(event)
	}
}
