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

package conflicts

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/testutils"
	serverdb "github.com/sorrowscry86/Lit-Rift/pkg/server/database"
)

// setupConflict makes device-a push an edit that conflicts with the server copy
func setupConflict(t *testing.T) (*testutils.Server, context.LitriftCtx) {
	srv := testutils.NewServer(t)
	ctx := srv.NewDevice(t, "device-a")

	srv.SetupDocument(t, serverdb.Document{
		DocID:      "chapter-1",
		Title:      "Chapter 1",
		Content:    "cloud line\n",
		Version:    2,
		LastEdited: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DeviceID:   "device-b",
	})

	if _, err := store.Save(ctx.DB, store.SaveParams{
		DocID:    "chapter-1",
		Title:    "Chapter 1",
		Content:  "local line\n",
		DeviceID: ctx.DeviceID,
		Now:      ctx.Clock.Now(),
	}); err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	report, err := syncer.New(ctx, nil).PushBatch()
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}
	assert.Equal(t, report.Conflicts, 1, "push should conflict")

	return srv, ctx
}

func TestList(t *testing.T) {
	_, ctx := setupConflict(t)

	cached, err := List(ctx, false)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing the cache"))
	}
	assert.Equal(t, len(cached), 1, "cached conflict count mismatch")

	fetched, err := List(ctx, true)
	if err != nil {
		t.Fatal(errors.Wrap(err, "fetching"))
	}
	assert.Equal(t, len(fetched), 1, "fetched conflict count mismatch")
	assert.Equal(t, fetched[0].ConflictID, cached[0].ConflictID, "conflict id mismatch")
}

func TestSides(t *testing.T) {
	_, ctx := setupConflict(t)

	cached, err := List(ctx, false)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	c, local, cloud, err := Sides(ctx, cached[0].ConflictID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, c.DocID, "chapter-1", "doc id mismatch")
	assert.Equal(t, local, "local line\n", "local side mismatch")
	assert.Equal(t, cloud, "cloud line\n", "cloud side mismatch")
}

func TestSides_offline(t *testing.T) {
	_, ctx := setupConflict(t)

	cached, err := List(ctx, false)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	ctx.APIEndpoint = "http://127.0.0.1:1/api"

	_, _, cloud, err := Sides(ctx, cached[0].ConflictID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}
	assert.Equal(t, cloud, cached[0].CloudPreview, "should fall back to the preview")
}

func TestSides_otherDevice(t *testing.T) {
	srv, ctx := setupConflict(t)

	cached, err := List(ctx, false)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	other := srv.NewDevice(t, "device-c")
	if _, err := store.Save(other.DB, store.SaveParams{
		DocID:    "chapter-1",
		Title:    "Chapter 1",
		Content:  "other line\n",
		DeviceID: other.DeviceID,
		Now:      other.Clock.Now(),
	}); err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	c, local, _, err := Sides(other, cached[0].ConflictID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}
	assert.Equal(t, c.LocalDeviceID, "device-a", "local device mismatch")
	assert.Equal(t, local, "local line\n", "local side should come from the conflict, not this device")
}
