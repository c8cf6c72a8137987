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

package store

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/queue"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/testutils"
)

const deviceID = "8d0fca4e-26a5-4a46-9fb8-1f4a3c0e2b11"

var t0 = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func mustSave(t *testing.T, db *database.DB, docID, content string) Document {
	doc, err := Save(db, SaveParams{DocID: docID, Title: "Chapter", Content: content, DeviceID: deviceID, Now: t0})
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}

	return doc
}

func mustLoad(t *testing.T, db *database.DB, docID string) Document {
	doc, err := Load(db, docID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading"))
	}

	return doc
}

func queueLen(t *testing.T, db *database.DB, docID string) int {
	n, err := queue.LenDocument(db, docID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue"))
	}

	return n
}

func TestSave(t *testing.T) {
	t.Run("new document", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		doc := mustSave(t, db, "doc-1", "It was a dark night")

		assert.Equal(t, doc.Version, 1, "version mismatch")
		assert.Equal(t, doc.BaseVersion, 0, "base version mismatch")
		assert.Equal(t, doc.SyncState, consts.SyncStateLocalOnly, "sync state mismatch")

		got := mustLoad(t, db, "doc-1")
		assert.DeepEqual(t, got, doc, "stored document mismatch")
		assert.Equal(t, queueLen(t, db, "doc-1"), 1, "the change should be queued")
	})

	t.Run("versions increase", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		mustSave(t, db, "doc-1", "a")
		mustSave(t, db, "doc-1", "b")
		doc := mustSave(t, db, "doc-1", "c")

		assert.Equal(t, doc.Version, 3, "version mismatch")
		assert.Equal(t, doc.Content, "c", "content mismatch")
		assert.Equal(t, queueLen(t, db, "doc-1"), 1, "saves should coalesce into one entry")
	})

	t.Run("continues from the base version", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		if _, err := Adopt(db, Remote{DocID: "doc-1", Content: "server", Version: 5, LastEdited: t0}); err != nil {
			t.Fatal(errors.Wrap(err, "adopting"))
		}

		doc := mustSave(t, db, "doc-1", "edited")
		assert.Equal(t, doc.Version, 6, "version should continue from the server version")
		assert.Equal(t, doc.BaseVersion, 5, "base version should be kept")
	})

	t.Run("doc id required", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		_, err := Save(db, SaveParams{Content: "x", Now: t0})
		assert.Equal(t, err, ErrDocIDRequired, "error mismatch")
	})
}

func TestLoad_notFound(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	_, err := Load(db, "missing")
	assert.Equal(t, err, ErrNotFound, "error mismatch")
}

func TestList(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	mustSave(t, db, "doc-b", "b")
	mustSave(t, db, "doc-a", "a")

	docs, err := List(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.Equal(t, len(docs), 2, "count mismatch")
	assert.Equal(t, docs[0].DocID, "doc-a", "order mismatch")

	n, err := Count(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}
	assert.Equal(t, n, 2, "count mismatch")
}

func TestMarkApplied(t *testing.T) {
	t.Run("synced when nothing else is queued", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		mustSave(t, db, "doc-1", "a")
		batch, err := queue.DrainBatch(db, 10)
		if err != nil {
			t.Fatal(errors.Wrap(err, "draining"))
		}

		doc, err := MarkApplied(db, batch[0].ID, "doc-1", 1)
		if err != nil {
			t.Fatal(errors.Wrap(err, "marking applied"))
		}

		assert.Equal(t, doc.BaseVersion, 1, "base version mismatch")
		assert.Equal(t, doc.Version, 1, "version mismatch")
		assert.Equal(t, doc.SyncState, consts.SyncStateSynced, "sync state mismatch")
		assert.Equal(t, queueLen(t, db, "doc-1"), 0, "entry should be acknowledged")
	})

	t.Run("stays local-only with a newer change queued", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		mustSave(t, db, "doc-1", "a")
		batch, err := queue.DrainBatch(db, 10)
		if err != nil {
			t.Fatal(errors.Wrap(err, "draining"))
		}
		mustSave(t, db, "doc-1", "b")

		doc, err := MarkApplied(db, batch[0].ID, "doc-1", 1)
		if err != nil {
			t.Fatal(errors.Wrap(err, "marking applied"))
		}

		assert.Equal(t, doc.BaseVersion, 1, "base version mismatch")
		assert.Equal(t, doc.Version, 2, "local version should not go backwards")
		assert.Equal(t, doc.SyncState, consts.SyncStateLocalOnly, "sync state mismatch")
		assert.Equal(t, queueLen(t, db, "doc-1"), 1, "newer change should stay queued")
	})
}

func TestAdopt(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	mustSave(t, db, "doc-1", "a")
	mustSave(t, db, "doc-1", "b")
	mustSave(t, db, "doc-1", "c")

	doc, err := Adopt(db, Remote{DocID: "doc-1", Title: "Cloud", Content: "cloud", Version: 2, LastEdited: t0, DeviceID: "other"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "adopting"))
	}

	assert.Equal(t, doc.Content, "cloud", "content mismatch")
	assert.Equal(t, doc.Title, "Cloud", "title mismatch")
	assert.Equal(t, doc.Version, 3, "local version should not go backwards")
	assert.Equal(t, doc.BaseVersion, 2, "base version mismatch")
	assert.Equal(t, doc.SyncState, consts.SyncStateSynced, "sync state mismatch")
	assert.Equal(t, queueLen(t, db, "doc-1"), 0, "queued changes should be dropped")
}

func TestRefresh(t *testing.T) {
	remote := Remote{DocID: "doc-1", Title: "T", Content: "server v2", Version: 2, LastEdited: t0}

	t.Run("new document", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		doc, ok, err := Refresh(db, remote)
		if err != nil {
			t.Fatal(errors.Wrap(err, "refreshing"))
		}
		assert.Equal(t, ok, true, "new document should be taken")
		assert.Equal(t, doc.Version, 2, "version mismatch")
		assert.Equal(t, doc.Synced(), true, "document should be synced")
	})

	t.Run("newer server copy", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)
		if _, err := Adopt(db, Remote{DocID: "doc-1", Content: "server v1", Version: 1, LastEdited: t0}); err != nil {
			t.Fatal(errors.Wrap(err, "adopting"))
		}

		doc, ok, err := Refresh(db, remote)
		if err != nil {
			t.Fatal(errors.Wrap(err, "refreshing"))
		}
		assert.Equal(t, ok, true, "newer copy should be taken")
		assert.Equal(t, doc.Content, "server v2", "content mismatch")
	})

	t.Run("not newer", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)
		if _, err := Adopt(db, Remote{DocID: "doc-1", Content: "server v2", Version: 2, LastEdited: t0}); err != nil {
			t.Fatal(errors.Wrap(err, "adopting"))
		}

		_, ok, err := Refresh(db, remote)
		if err != nil {
			t.Fatal(errors.Wrap(err, "refreshing"))
		}
		assert.Equal(t, ok, false, "same version should be skipped")
	})

	t.Run("local changes win", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)
		mustSave(t, db, "doc-1", "offline edit")

		doc, ok, err := Refresh(db, remote)
		if err != nil {
			t.Fatal(errors.Wrap(err, "refreshing"))
		}
		assert.Equal(t, ok, false, "pending local changes should be kept")
		assert.Equal(t, doc.Content, "offline edit", "content mismatch")
		assert.Equal(t, queueLen(t, db, "doc-1"), 1, "queued change should stay")
	})
}

func TestDurability(t *testing.T) {
	path := database.TestFilePath(t)

	db, err := database.Open(path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening"))
	}
	testutils.MigrateDB(t, db)
	saved := mustSave(t, db, "doc-1", "written before the restart")
	db.Close()

	reopened := database.InitTestFileDBRaw(t, path)
	got := mustLoad(t, reopened, "doc-1")
	assert.DeepEqual(t, got, saved, "document should survive a restart")
	assert.Equal(t, queueLen(t, reopened, "doc-1"), 1, "queued change should survive a restart")
}
