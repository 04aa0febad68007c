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
// This file defines ServiceClients, the container for the Google Cloud
// clients a run needs. Clients are only created when the configuration
// requires them, so a run over local files into SQLite needs no credentials.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
)

// ServiceClients holds the Google Cloud clients. Any of them may be nil when
// the configuration does not need it.
type ServiceClients struct {
	StorageClient   *storage.Client            // Needed when a source is a gs:// URI.
	PubsubClient    *pubsub.Client             // Needed by the listen mode.
	BigQueryClient  *bigquery.Client           // Needed by the BigQuery sink.
	PubSubListeners map[string]*PubSubListener // Keyed by the logical subscription name in the config.
}

// Close closes every client that was created.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
}

// UsesGCS reports whether any source is read from Cloud Storage.
func (c *Config) UsesGCS() bool {
	for _, uri := range c.Sources.ByName() {
		if IsGCSURI(uri) {
			return true
		}
	}
	return false
}

// NewCloudServiceClients creates the clients the configuration needs.
//
// Inputs:
//   - ctx: Context for client creation.
//   - config: The application configuration.
//   - listen: Whether Pub/Sub listeners should be created.
//
// Outputs:
//   - *ServiceClients: The clients.
//   - error: The first client creation failure.
func NewCloudServiceClients(ctx context.Context, config *Config, listen bool) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{PubSubListeners: make(map[string]*PubSubListener)}

	if config.UsesGCS() || listen {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, err
		}
	}

	if config.Sink.Driver == SinkBigQuery {
		if cloud.BigQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			cloud.Close()
			return nil, err
		}
	}

	if listen {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			cloud.Close()
			return nil, err
		}
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				cloud.Close()
				return nil, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	slog.Info("cloud clients ready",
		"project", config.Application.GoogleProjectId,
		"storage", cloud.StorageClient != nil,
		"bigquery", cloud.BigQueryClient != nil,
		"pubsub", cloud.PubsubClient != nil)
	return cloud, nil
}
