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

package context

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/migrate"
	"github.com/sorrowscry86/Lit-Rift/pkg/clock"
)

// TestDeviceID is the device id of contexts made by InitTestCtx
const TestDeviceID = "5e0b7a2c-8a43-4f7e-9a52-1c2b0b4f6a10"

// getDefaultTestPaths creates default test paths with all paths pointing to a temp directory
func getDefaultTestPaths(t *testing.T) Paths {
	tmpDir := t.TempDir()
	return Paths{
		Home:   tmpDir,
		Cache:  tmpDir,
		Config: tmpDir,
		Data:   tmpDir,
	}
}

func newTestCtx(t *testing.T, db *database.DB) LitriftCtx {
	paths := getDefaultTestPaths(t)
	if err := InitDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	return LitriftCtx{
		DB:                   db,
		Paths:                paths,
		DeviceID:             TestDeviceID,
		DeviceName:           "test-device",
		Version:              "test",
		SyncInterval:         30 * time.Second,
		ConflictPollInterval: 10 * time.Second,
		RequestTimeout:       5 * time.Second,
		BatchSize:            50,
		Clock:                clock.NewMock(),
		HTTPClient:           &http.Client{Timeout: 5 * time.Second},
	}
}

func mustMigrate(t *testing.T, db *database.DB) {
	if _, err := migrate.Run(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating test database"))
	}
}

// InitTestCtx initializes a test context with a migrated in-memory database
// and a temporary directory for all paths
func InitTestCtx(t *testing.T) LitriftCtx {
	db := database.InitTestMemoryDBRaw(t)
	mustMigrate(t, db)

	return newTestCtx(t, db)
}

// InitTestCtxWithDB initializes a test context with the provided database
func InitTestCtxWithDB(t *testing.T, db *database.DB) LitriftCtx {
	return newTestCtx(t, db)
}

// InitTestCtxWithFileDB initializes a test context with a migrated
// file-based database at the expected path.
func InitTestCtxWithFileDB(t *testing.T) LitriftCtx {
	paths := getDefaultTestPaths(t)
	dbPath := filepath.Join(paths.App().Data, consts.DBFileName)
	if err := InitDirs(paths); err != nil {
		t.Fatal(errors.Wrap(err, "creating test directories"))
	}

	db := database.InitTestFileDBRaw(t, dbPath)
	mustMigrate(t, db)

	ctx := newTestCtx(t, db)
	ctx.Paths = paths
	return ctx
}
