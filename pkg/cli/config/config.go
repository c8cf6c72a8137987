/* Copyright 2025 LitRift Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads and writes the litrift configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"gopkg.in/yaml.v2"
)

// Defaults applied to values missing from the config file
const (
	DefaultSyncInterval         = 30 * time.Second
	DefaultConflictPollInterval = 10 * time.Second
	DefaultRequestTimeout       = 15 * time.Second
	DefaultBatchSize            = 50
)

// Config holds litrift configuration
type Config struct {
	APIEndpoint string `yaml:"apiEndpoint"`
	DeviceName  string `yaml:"deviceName"`
	Editor      string `yaml:"editor"`
	// SyncInterval is how often queued changes are pushed, e.g. "30s"
	SyncInterval string `yaml:"syncInterval"`
	// ConflictPollInterval is how often pending conflicts are fetched, e.g. "10s"
	ConflictPollInterval string `yaml:"conflictPollInterval"`
	RequestTimeout       string `yaml:"requestTimeout"`
	Realtime             bool   `yaml:"realtime"`
	BatchSize            int    `yaml:"batchSize"`
}

// GetPath returns the path to the litrift config file
func GetPath(ctx context.LitriftCtx) string {
	return filepath.Join(ctx.Paths.App().Config, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.LitriftCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.LitriftCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}

func parseDuration(name, val string, def time.Duration) (time.Duration, error) {
	if val == "" {
		return def, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", name)
	}
	if d <= 0 {
		return 0, errors.Errorf("%s must be positive", name)
	}

	return d, nil
}

// Intervals holds the parsed durations of a config
type Intervals struct {
	Sync         time.Duration
	ConflictPoll time.Duration
	Request      time.Duration
}

// GetIntervals parses the durations of the config, falling back to the
// defaults for missing values
func (c Config) GetIntervals() (Intervals, error) {
	var ret Intervals
	var err error

	if ret.Sync, err = parseDuration("syncInterval", c.SyncInterval, DefaultSyncInterval); err != nil {
		return ret, err
	}
	if ret.ConflictPoll, err = parseDuration("conflictPollInterval", c.ConflictPollInterval, DefaultConflictPollInterval); err != nil {
		return ret, err
	}
	if ret.Request, err = parseDuration("requestTimeout", c.RequestTimeout, DefaultRequestTimeout); err != nil {
		return ret, err
	}

	return ret, nil
}

// GetBatchSize returns the push batch size, falling back to the default
func (c Config) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}

	return c.BatchSize
}
