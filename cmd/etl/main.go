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
// Package main is the entry point for the movie ETL.
//
// The etl command has two modes:
//   - run: Executes one batch over the configured sources and exits. The exit
//     status is non-zero when the run recorded an error.
//   - listen: Subscribes to the configured Pub/Sub subscriptions carrying Cloud
//     Storage notifications and runs a batch whenever one of the configured
//     source objects is uploaded. It stops on SIGINT or SIGTERM.
//
// Both modes set up logging and OpenTelemetry, load the TOML configuration and
// initialize the application state before doing any work.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/workflow"
	"github.com/jaycherian/gcp-go-movie-etl/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	configDir string
	runtime   string
)

// errRunFailed is returned when a run recorded errors. They have already
// been logged by the run summary.
var errRunFailed = errors.New("run failed")

func main() {
	rootCmd := &cobra.Command{
		Use:               "etl",
		Short:             "Normalize and reconcile film metadata",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory holding .env.toml and its runtime overlays")
	rootCmd.PersistentFlags().StringVar(&runtime, "runtime", "local", "runtime overlay to apply (.env.<runtime>.toml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one batch over the configured sources",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "listen",
		Short: "Run a batch whenever a configured source object is uploaded",
		Args:  cobra.NoArgs,
		RunE:  listen,
	})

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			slog.Error("etl failed", "error", err)
		}
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging and telemetry.
// Clients are created by the subcommands, which know whether they listen.
func setup(cmd *cobra.Command, _ []string) error {
	if err := SetupOS(configDir, runtime); err != nil {
		return err
	}
	config, err := GetConfig()
	if err != nil {
		return err
	}

	closeLog, err := telemetry.SetupLogging(config.Application.LogFile)
	if err != nil {
		return err
	}
	cobra.OnFinalize(func() {
		_ = closeLog()
	})
	slog.Info("Logging initialized", "runtime", runtime)

	shutdown, err := telemetry.SetupOpenTelemetry(cmd.Context(), config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		return err
	}
	cobra.OnFinalize(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	})
	slog.Info("Tracing initialized", "enabled", config.Application.TelemetryEnabled)
	return nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := InitState(ctx, false); err != nil {
		return err
	}
	defer CloseState()
	slog.Info("Initialized State")

	chCtx, runID := workflow.NewRunContext(ctx)
	defer chCtx.Close()
	slog.InfoContext(ctx, "run started", "run_id", runID.String(), "pipeline", workflow.PipelineName)

	state.pipeline.Execute(chCtx)

	summary := workflow.Summarize(chCtx)
	summary.Log(ctx)
	if summary.Failed() {
		return errRunFailed
	}
	return nil
}

func listen(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := InitState(ctx, true); err != nil {
		return err
	}
	defer CloseState()
	slog.Info("Initialized State")

	if len(state.cloud.PubSubListeners) == 0 {
		return errors.New("listen needs at least one [topic_subscriptions] entry")
	}

	trigger := workflow.NewSourceTriggerWorkflow(state.config, state.pipeline)
	var wg sync.WaitGroup
	for name, listener := range state.cloud.PubSubListeners {
		listener.SetCommand(trigger)
		wg.Add(1)
		go func(name string, listener *cloud.PubSubListener) {
			defer wg.Done()
			if err := listener.Listen(ctx); err != nil {
				slog.Error("listener stopped", "subscription", name, "error", err)
			}
		}(name, listener)
	}
	slog.Info("Listeners ready", "count", len(state.cloud.PubSubListeners))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown listeners ...")

	cancel()
	wg.Wait()
	slog.Info("etl exiting")
	return nil
}
