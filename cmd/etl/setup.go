// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main contains the setup and initialization logic for the application's state.
// This file creates the StateManager that holds the configuration, the Google Cloud
// service clients, the sink writer and the assembled pipeline.
//
// Functions:
//   - SetupOS: Points the configuration loader at the configuration directory and runtime.
//   - GetConfig: Loads and validates the configuration once.
//   - InitState: Creates the clients, the writer and the pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/workflow"
	"github.com/jaycherian/gcp-go-movie-etl/internal/storage"
)

// StateManager holds the shared dependencies of one process.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	writer   storage.Writer
	pipeline *workflow.MovieETLWorkflow
}

// state is the process-wide StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader reads.
//
// Inputs:
//   - configDir: Directory holding .env.toml and .env.<runtime>.toml.
//   - runtime: The runtime overlay to apply, e.g. "local", "test", "prod".
func SetupOS(configDir string, runtime string) (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, configDir)
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, runtime)
}

// GetConfig returns the configuration, loading and validating it on the
// first call. SetupOS must have run before.
func GetConfig() (*cloud.Config, error) {
	if state.config == nil {
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			return nil, err
		}
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		state.config = config
	}
	return state.config, nil
}

// InitState creates everything a run needs.
//
// Inputs:
//   - ctx: The root context, used for client creation.
//   - listen: Whether the Pub/Sub listeners are needed.
//
// This function performs the following steps:
//  1. Loads the application configuration.
//  2. Creates the Google Cloud clients the configuration needs.
//  3. Opens the sink writer.
//  4. Assembles the batch pipeline.
func InitState(ctx context.Context, listen bool) error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config, listen)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	writer, err := storage.NewWriter(ctx, config, cloudClients)
	if err != nil {
		return err
	}
	state.writer = writer

	pipeline, err := workflow.NewMovieETLPipeline(config, cloudClients, writer)
	if err != nil {
		return err
	}
	state.pipeline = pipeline
	return nil
}

// CloseState releases the writer and the clients.
func CloseState() {
	if state.writer != nil {
		if err := state.writer.Close(); err != nil {
			slog.Error("failed to close writer", "error", err)
		}
	}
	if state.cloud != nil {
		state.cloud.Close()
	}
}
