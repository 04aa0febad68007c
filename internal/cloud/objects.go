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

// Package cloud provides configuration loading and Google Cloud helpers.
// This file reads source objects: it lists and downloads objects from Cloud
// Storage and opens local files, decompressing gzip content transparently.
package cloud

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"google.golang.org/api/iterator"
)

// sniffLength is how many leading bytes filetype needs to recognize an archive.
const sniffLength = 262

// ListObjects returns the names of the objects under prefix in bucket, in
// lexical order. Zero-length "directory" placeholders are skipped.
func ListObjects(ctx context.Context, client *storage.Client, bucket string, prefix string) ([]string, error) {
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if attrs.Size == 0 {
			continue
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

// DownloadToTemp copies an object into a new temporary file.
//
// Inputs:
//   - ctx: Context for the read.
//   - client: The storage client.
//   - obj: The object to copy.
//   - tempFilePrefix: Prefix of the temporary file name.
//
// Outputs:
//   - string: The temporary file path. The caller owns its removal.
//   - int64: Bytes written.
//   - error: Non-nil when the object cannot be read or the file written.
func DownloadToTemp(ctx context.Context, client *storage.Client, obj GCSObject, tempFilePrefix string) (string, int64, error) {
	reader, err := client.Bucket(obj.Bucket).Object(obj.Name).NewReader(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create reader for %s: %w", obj.URI(), err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close object reader", "object", obj.URI(), "error", err)
		}
	}()

	tempFile, err := os.CreateTemp("", tempFilePrefix)
	if err != nil {
		return "", 0, fmt.Errorf("could not create temp file: %w", err)
	}
	written, err := io.Copy(tempFile, reader)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tempFile.Name())
		return "", written, fmt.Errorf("failed to copy %s after %d bytes: %w", obj.URI(), written, err)
	}
	return tempFile.Name(), written, nil
}

// sourceReader closes both the decompressor and the file.
type sourceReader struct {
	io.Reader
	closers []io.Closer
}

func (r *sourceReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenSource opens a local source file. Gzip content is recognized from its
// header and decompressed on the fly.
func OpenSource(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	buffered := bufio.NewReader(file)
	head, err := buffered.Peek(sniffLength)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if filetype.IsType(head, matchers.TypeGz) {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		return &sourceReader{Reader: gz, closers: []io.Closer{gz, file}}, nil
	}
	return &sourceReader{Reader: buffered, closers: []io.Closer{file}}, nil
}
