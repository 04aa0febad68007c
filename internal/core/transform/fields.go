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

// Package transform holds the normalization and reconciliation rules of the
// movie ETL. Every function here is pure: it takes records or a
// model.Frame and returns new values, reporting problems as errors from the
// model error taxonomy. The commands package wraps these functions into
// pipeline stages.
package transform

import (
	"sort"

	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"golang.org/x/text/unicode/norm"
)

// FieldAltTitles is the field alternate-language titles are packed into.
const FieldAltTitles = "alt_titles"

// AltTitleLabels are the labels of alternate titles in other languages or
// scripts.
var AltTitleLabels = []string{
	"Also known as", "Arabic", "Cantonese", "Chinese", "French",
	"Hangul", "Hebrew", "Hepburn", "Japanese", "Literally",
	"Mandarin", "McCune–Reischauer", "Original title", "Polish",
	"Revised Romanization", "Romanized", "Russian",
	"Simplified", "Traditional", "Yiddish",
}

// FieldRename maps a source label to its canonical name.
type FieldRename struct {
	From string
	To   string
}

// FieldRenames is applied top to bottom. Later rules consume names produced
// by earlier ones ("Released" -> "Release Date" -> "Release date"), and a
// rename overwrites a field that already has the target name.
var FieldRenames = []FieldRename{
	{"Adaptation by", "Writer(s)"},
	{"Country of origin", "Country"},
	{"Directed by", "Director"},
	{"Distributed by", "Distributor"},
	{"Edited by", "Editor(s)"},
	{"Length", "Running time"},
	{"Original release", "Release date"},
	{"Music by", "Composer(s)"},
	{"Produced by", "Producer(s)"},
	{"Producer", "Producer(s)"},
	{"Productioncompanies ", "Production company(s)"},
	{"Productioncompany ", "Production company(s)"},
	{"Released", "Release Date"},
	{"Release Date", "Release date"},
	{"Screen story by", "Writer(s)"},
	{"Screenplay by", "Writer(s)"},
	{"Story by", "Writer(s)"},
	{"Theme music composer", "Composer(s)"},
	{"Written by", "Writer(s)"},
}

// FieldNormalizer canonicalizes the field names of one encyclopedic record.
type FieldNormalizer struct {
	altTitles []string
	renames   []FieldRename
}

// NewFieldNormalizer returns a normalizer with the standard label sets.
func NewFieldNormalizer() *FieldNormalizer {
	return &FieldNormalizer{altTitles: AltTitleLabels, renames: FieldRenames}
}

// Normalize returns a new row for raw. Field names are first put in Unicode
// NFC form so composed and decomposed spellings of a label match. Alternate
// titles are moved into a nested mapping under alt_titles, then the rename
// list is applied in order.
func (n *FieldNormalizer) Normalize(raw model.RawRecordA) model.Row {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make(model.Row, len(raw))
	for _, k := range keys {
		row[norm.NFC.String(k)] = raw[k]
	}

	altTitles := make(map[string]interface{})
	for _, label := range n.altTitles {
		if v, ok := row[label]; ok {
			altTitles[label] = v
			delete(row, label)
		}
	}
	if len(altTitles) > 0 {
		row[FieldAltTitles] = altTitles
	}

	for _, r := range n.renames {
		if v, ok := row[r.From]; ok {
			delete(row, r.From)
			row[r.To] = v
		}
	}
	return row
}

// NormalizeAll normalizes every record, preserving order.
func (n *FieldNormalizer) NormalizeAll(raw []model.RawRecordA) []model.Row {
	out := make([]model.Row, len(raw))
	for i, r := range raw {
		out[i] = n.Normalize(r)
	}
	return out
}
