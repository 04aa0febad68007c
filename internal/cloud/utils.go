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
// This file loads layered TOML configuration.
//
// LoadConfig reads two files from the directory named by GCP_CONFIG_PREFIX:
//  1. The base file, ".env.toml".
//  2. The runtime file, ".env.<runtime>.toml", where runtime comes from
//     GCP_RUNTIME and defaults to "test".
//
// Values in the runtime file override the base file. Missing files are
// skipped.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"              // Base name of configuration files.
	ConfigFileExtension = ".toml"             // Extension of configuration files.
	ConfigSeparator     = "."                 // Separator between base name and runtime.
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Directory holding the configuration files.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Runtime name, e.g. "local", "test", "prod".
	DefaultRuntime      = "test"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime configuration file paths for the
// current environment.
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	env := os.Getenv(EnvConfigRuntime)
	if env == "" {
		env = DefaultRuntime
	}
	base = filepath.Join(prefix, ConfigFileBaseName+ConfigFileExtension)
	runtime = filepath.Join(prefix, ConfigFileBaseName+ConfigSeparator+env+ConfigFileExtension)
	return base, runtime
}

// LoadConfig decodes the base and runtime configuration files into
// baseConfig, in that order.
//
// Inputs:
//   - baseConfig: A pointer to the struct to populate, usually *Config.
//
// Outputs:
//   - error: Non-nil when a file exists but cannot be decoded.
func LoadConfig(baseConfig interface{}) error {
	base, runtime := ConfigFiles()
	for _, file := range []string{base, runtime} {
		if !fileExists(file) {
			slog.Debug("configuration file not found, skipping", "file", file)
			continue
		}
		if _, err := toml.DecodeFile(file, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", file, err)
		}
		slog.Info("loaded configuration", "file", file)
	}
	return nil
}
