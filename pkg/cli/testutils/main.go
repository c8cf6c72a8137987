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

// Package testutils provides utilities used in tests
package testutils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/migrate"
)

// InitMemoryDB initializes a migrated in-memory database
func InitMemoryDB(t *testing.T) *database.DB {
	db := database.InitTestMemoryDBRaw(t)
	if _, err := migrate.Run(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating test database"))
	}

	return db
}

// Login simulates a logged in user by storing a session key in the local database
func Login(t *testing.T, ctx *context.LitriftCtx, sessionKey string) {
	if err := database.UpsertSystem(ctx.DB, consts.SystemSessionKey, sessionKey); err != nil {
		t.Fatal(errors.Wrap(err, "inserting session key"))
	}

	ctx.SessionKey = sessionKey
}

// MustMarshalJSON marshalls the given interface into JSON.
// If there is any error, it fails the test.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("%s: marshalling data: %s", t.Name(), err.Error())
	}

	return b
}

// MustUnmarshalJSON unmarshalls the given JSON into the destination.
// If there is any error, it fails the test.
func MustUnmarshalJSON(t *testing.T, data []byte, v interface{}) {
	err := json.Unmarshal(data, v)
	if err != nil {
		t.Fatalf("%s: unmarshalling data: %s", t.Name(), err.Error())
	}
}

// MustGenerateUUID generates a uuid v4
func MustGenerateUUID(t *testing.T) string {
	u, err := uuid.NewRandom()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating uuid"))
	}

	return u.String()
}

// WaitFor polls cond until it returns true, failing the test after the timeout
func WaitFor(t *testing.T, timeout time.Duration, message string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting: %s", message)
}

// MigrateDB applies the schema to the given database and returns it
func MigrateDB(t *testing.T, db *database.DB) *database.DB {
	if _, err := migrate.Run(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating test database"))
	}

	return db
}
