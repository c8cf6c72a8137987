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
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"gorm.io/gorm/logger"
)

func TestGetDBLogLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected logger.LogLevel
	}{
		{log.LevelDebug, logger.Info},
		{log.LevelInfo, logger.Silent},
		{log.LevelWarn, logger.Warn},
		{log.LevelError, logger.Error},
		{"", logger.Silent},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, getDBLogLevel(tc.level), tc.expected, "log level mismatch")
		})
	}
}

func TestOpenDialector(t *testing.T) {
	_, err := openDialector("mysql", "")
	assert.Equal(t, errors.Cause(err), ErrUnknownDriver, "error mismatch")

	d, err := openDialector("postgres", "postgres://localhost/litrift")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, d.Name(), "postgres", "dialector mismatch")
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.db")

	db := Open("sqlite", path, log.LevelInfo)
	InitSchema(db)

	assert.Equal(t, IsPostgres(db), false, "dialect mismatch")
	assert.Equal(t, db.Migrator().HasTable(&Conflict{}), true, "conflicts table missing")
}
