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

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/dirs"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DriverSQLite selects the SQLite database driver
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL database driver
	DriverPostgres = "postgres"
	// DefaultPreviewLength is the number of characters kept in a conflict preview
	DefaultPreviewLength = 200
	// DefaultSessionTTL is the lifetime of a newly issued session
	DefaultSessionTTL = 30 * 24 * time.Hour
)

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = filepath.Join(dirs.Default().Data, DefaultDBFilename)
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrDBInvalidDriver is an error for an unknown database driver
	ErrDBInvalidDriver = errors.New("Invalid DB driver")
	// ErrDBMissingDSN is an error for a postgres configuration without a DSN
	ErrDBMissingDSN = errors.New("DSN is required for postgres")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrPreviewLengthInvalid is an error for a non-positive preview length
	ErrPreviewLengthInvalid = errors.New("Invalid preview length")
)

// LoadEnvFile loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are kept.
func LoadEnvFile(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return errors.Wrap(err, "loading env file")
	}

	return nil
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}

	return defaultVal
}

func getIntOrEnv(value int, envKey string, defaultVal int) int {
	if value != 0 {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			return n
		}
	}

	return defaultVal
}

// Config is an application configuration
type Config struct {
	AppEnv        string
	Port          string
	DBDriver      string
	DBPath        string
	DSN           string
	LogLevel      string
	LogFile       string
	PreviewLength int
	SessionTTL    time.Duration
}

// Params are the configuration parameters for creating a new Config.
// Zero values fall back to environment variables and then defaults.
type Params struct {
	AppEnv        string
	Port          string
	DBDriver      string
	DBPath        string
	DSN           string
	LogLevel      string
	LogFile       string
	PreviewLength int
}

// New constructs and returns a new validated config.
func New(p Params) (Config, error) {
	c := Config{
		AppEnv:        getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:          getOrEnv(p.Port, "PORT", "3001"),
		DBDriver:      getOrEnv(p.DBDriver, "DB_DRIVER", DriverSQLite),
		DBPath:        getOrEnv(p.DBPath, "DBPath", DefaultDBPath),
		DSN:           getOrEnv(p.DSN, "DB_DSN", ""),
		LogLevel:      getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		LogFile:       getOrEnv(p.LogFile, "LOG_FILE", ""),
		PreviewLength: getIntOrEnv(p.PreviewLength, "PREVIEW_LENGTH", DefaultPreviewLength),
		SessionTTL:    DefaultSessionTTL,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// DataSource returns the connection string for the configured driver
func (c Config) DataSource() string {
	if c.DBDriver == DriverPostgres {
		return c.DSN
	}

	return c.DBPath
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return ErrDBMissingPath
		}
	case DriverPostgres:
		if c.DSN == "" {
			return ErrDBMissingDSN
		}
	default:
		return errors.Wrapf(ErrDBInvalidDriver, "'%s'", c.DBDriver)
	}

	if c.PreviewLength <= 0 {
		return ErrPreviewLengthInvalid
	}

	return nil
}
