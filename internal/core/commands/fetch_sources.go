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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// FetchSources makes every configured source available as local files.
// gs:// objects are downloaded to temporary files that the context removes on
// Close. Only the ratings source may name several files: a gs:// prefix
// ending in "/" or a local directory.
type FetchSources struct {
	cor.BaseCommand
	client  *storage.Client // May be nil when every source is local.
	sources cloud.Sources
}

// NewFetchSources creates the command. Its output is a map[string][]string
// keyed by source name.
func NewFetchSources(name string, client *storage.Client, sources cloud.Sources) *FetchSources {
	out := &FetchSources{BaseCommand: *cor.NewBaseCommand(name), client: client, sources: sources}
	out.OutputParamName = ParamSourcePaths
	return out
}

// IsExecutable only needs a Go context: the sources come from configuration.
func (c *FetchSources) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *FetchSources) Execute(context cor.Context) {
	paths := make(map[string][]string)
	files := 0
	for _, name := range []string{cloud.SourceWikipedia, cloud.SourceCatalog, cloud.SourceRatings} {
		uri := c.sources.ByName()[name]
		local, err := c.fetch(context, name, uri)
		if err != nil {
			c.Fail(context, &model.InputError{Source: name, URI: uri, Err: err})
			return
		}
		if len(local) > 1 && name != cloud.SourceRatings {
			c.Fail(context, &model.InputError{Source: name, URI: uri, Err: fmt.Errorf("expected one file, found %d", len(local))})
			return
		}
		paths[name] = local
		files += len(local)
	}
	c.Complete(context, paths, len(paths), files)
}

func (c *FetchSources) fetch(context cor.Context, name string, uri string) ([]string, error) {
	if uri == "" {
		return nil, errors.New("not configured")
	}
	if !cloud.IsGCSURI(uri) {
		return localFiles(uri)
	}
	if c.client == nil {
		return nil, errors.New("no storage client for a gs:// source")
	}
	obj, err := cloud.ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	objects := []cloud.GCSObject{obj}
	if obj.IsPrefix() {
		names, err := cloud.ListObjects(context.GetContext(), c.client, obj.Bucket, obj.Name)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no objects under %s", uri)
		}
		objects = objects[:0]
		for _, n := range names {
			objects = append(objects, cloud.GCSObject{Bucket: obj.Bucket, Name: n})
		}
	}
	return c.download(context.GetContext(), context, name, objects)
}

func (c *FetchSources) download(ctx context.Context, chCtx cor.Context, name string, objects []cloud.GCSObject) ([]string, error) {
	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		path, written, err := cloud.DownloadToTemp(ctx, c.client, obj, name+"-")
		if err != nil {
			return nil, err
		}
		chCtx.AddTempFile(path)
		slog.InfoContext(ctx, "downloaded source object", "source", name, "object", obj.URI(), "file", path, "bytes", written)
		out = append(out, path)
	}
	return out, nil
}

// localFiles returns path itself, or the regular files of a directory in
// lexical order.
func localFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("directory %s holds no files", path)
	}
	sort.Strings(out)
	return out, nil
}
