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
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
	"golang.org/x/sync/errgroup"
)

// LoadSources decodes the encyclopedic dump and the catalog export, in
// parallel, into ParamWikipedia and ParamCatalog. The ratings are streamed
// later by AggregateRatings. A source that cannot be read or decoded is fatal.
type LoadSources struct {
	cor.BaseCommand
}

func NewLoadSources(name string) *LoadSources {
	out := &LoadSources{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamSourcePaths
	return out
}

func (c *LoadSources) Execute(context cor.Context) {
	paths := context.Get(c.GetInputParam()).(map[string][]string)

	var wiki []model.RawRecordA
	var catalog *model.Catalog

	g, _ := errgroup.WithContext(context.GetContext())
	g.Go(func() error {
		path := first(paths[cloud.SourceWikipedia])
		records, err := decodeFile(path, DecodeWikipedia)
		if err != nil {
			return &model.InputError{Source: cloud.SourceWikipedia, URI: path, Err: err}
		}
		wiki = records
		return nil
	})
	g.Go(func() error {
		path := first(paths[cloud.SourceCatalog])
		decoded, err := decodeFile(path, DecodeCatalog)
		if err != nil {
			return &model.InputError{Source: cloud.SourceCatalog, URI: path, Err: err}
		}
		catalog = decoded
		return nil
	})
	if err := g.Wait(); err != nil {
		c.Fail(context, err)
		return
	}

	slog.InfoContext(context.GetContext(), "sources loaded",
		cloud.SourceWikipedia, len(wiki),
		cloud.SourceCatalog, len(catalog.Records))
	context.Add(ParamWikipedia, wiki)
	context.Add(ParamCatalog, catalog)
	c.Complete(context, &model.Sources{Wikipedia: wiki, Catalog: catalog}, 2, len(wiki)+len(catalog.Records))
}

func first(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
