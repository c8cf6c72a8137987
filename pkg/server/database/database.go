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

package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown database driver")

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) {
	if err := db.AutoMigrate(
		&User{},
		&Session{},
		&Device{},
		&Document{},
		&Conflict{},
	); err != nil {
		panic(err)
	}
}

// getDBLogLevel maps the application log level to the gorm logger level.
// SQL statements are only traced in debug mode.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "":
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			dir := filepath.Dir(dsn)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrapf(err, "creating database directory at %s", dir)
			}
		}

		return sqlite.Open(dsn), nil
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "'%s'", driver)
	}
}

// Open initializes the database connection for the given driver
func Open(driver, dsn, logLevel string) *gorm.DB {
	dialector, err := openDialector(driver, dsn)
	if err != nil {
		panic(err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(logLevel)),
	})
	if err != nil {
		panic(errors.Wrap(err, "opening database conection"))
	}

	// SQLite allows a single writer; serializing connections keeps
	// concurrent pushes from failing with SQLITE_BUSY.
	if db.Dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			panic(errors.Wrap(err, "getting the sql handle"))
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db
}

// IsPostgres returns true if the connection uses the PostgreSQL dialect
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
