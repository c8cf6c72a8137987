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

package queue

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/testutils"
)

var t0 = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

func mustEnqueue(t *testing.T, db *database.DB, docID, content string) int64 {
	id, err := Enqueue(db, docID, "title "+docID, content, t0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "enqueueing"))
	}

	return id
}

func mustList(t *testing.T, db *database.DB) []Entry {
	entries, err := List(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}

	return entries
}

func mustLen(t *testing.T, db *database.DB) int {
	n, err := Len(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}

	return n
}

func TestEnqueue(t *testing.T) {
	t.Run("new documents", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		id1 := mustEnqueue(t, db, "doc-1", "a")
		id2 := mustEnqueue(t, db, "doc-2", "b")

		assert.NotEqual(t, id1, id2, "each document should get its own entry")
		entries := mustList(t, db)
		assert.Equal(t, len(entries), 2, "entry count mismatch")
		assert.Equal(t, entries[0].DocID, "doc-1", "order mismatch")
		assert.Equal(t, entries[0].Content, "a", "content mismatch")
		assert.Equal(t, entries[0].EnqueuedAt, t0, "enqueued_at mismatch")
		assert.Equal(t, entries[0].InFlight, false, "new entry should not be in flight")
	})

	t.Run("coalesce", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		id1 := mustEnqueue(t, db, "doc-1", "a")
		mustEnqueue(t, db, "doc-2", "b")
		id3 := mustEnqueue(t, db, "doc-1", "a2")

		assert.Equal(t, id3, id1, "a second save should reuse the queued entry")
		entries := mustList(t, db)
		assert.Equal(t, len(entries), 2, "entry count mismatch")
		assert.Equal(t, entries[0].ID, id1, "coalesced entry should keep its place")
		assert.Equal(t, entries[0].Content, "a2", "coalesced entry should carry the latest content")
	})

	t.Run("in flight entry is not touched", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		id1 := mustEnqueue(t, db, "doc-1", "a")
		if _, err := DrainBatch(db, 10); err != nil {
			t.Fatal(errors.Wrap(err, "draining"))
		}
		id2 := mustEnqueue(t, db, "doc-1", "b")

		assert.NotEqual(t, id2, id1, "a save during a push should get a new entry")
		entries := mustList(t, db)
		assert.Equal(t, len(entries), 2, "entry count mismatch")
		assert.Equal(t, entries[0].Content, "a", "in-flight content should not change")
		assert.Equal(t, entries[1].Content, "b", "new entry content mismatch")
	})
}

func TestDrainBatch(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	mustEnqueue(t, db, "doc-1", "a")
	mustEnqueue(t, db, "doc-2", "b")
	mustEnqueue(t, db, "doc-3", "c")

	batch, err := DrainBatch(db, 2)
	if err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}
	assert.Equal(t, len(batch), 2, "batch size mismatch")
	assert.Equal(t, batch[0].DocID, "doc-1", "batch should start with the oldest entry")
	assert.Equal(t, batch[1].DocID, "doc-2", "batch order mismatch")
	assert.Equal(t, batch[0].InFlight, true, "drained entry should be in flight")
	assert.Equal(t, batch[0].Attempts, 1, "attempts mismatch")

	// doc-1 is in flight so its new change waits
	mustEnqueue(t, db, "doc-1", "a2")
	batch, err = DrainBatch(db, 10)
	if err != nil {
		t.Fatal(errors.Wrap(err, "draining again"))
	}
	assert.Equal(t, len(batch), 1, "only doc-3 should be drained")
	assert.Equal(t, batch[0].DocID, "doc-3", "drained document mismatch")

	empty, err := DrainBatch(db, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "draining nothing"))
	}
	assert.Equal(t, len(empty), 0, "zero batch should be empty")
	assert.Equal(t, mustLen(t, db), 4, "draining should not remove entries")
}

func TestAcknowledge(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	id1 := mustEnqueue(t, db, "doc-1", "a")
	mustEnqueue(t, db, "doc-2", "b")

	if err := Acknowledge(db, id1); err != nil {
		t.Fatal(errors.Wrap(err, "acknowledging"))
	}
	if err := Acknowledge(db); err != nil {
		t.Fatal(errors.Wrap(err, "acknowledging nothing"))
	}

	entries := mustList(t, db)
	assert.Equal(t, len(entries), 1, "entry count mismatch")
	assert.Equal(t, entries[0].DocID, "doc-2", "remaining entry mismatch")
}

func TestRelease(t *testing.T) {
	t.Run("back to the queue", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		mustEnqueue(t, db, "doc-1", "a")
		batch, err := DrainBatch(db, 10)
		if err != nil {
			t.Fatal(errors.Wrap(err, "draining"))
		}

		if err := Release(db, []int64{batch[0].ID}, errors.New("connection refused")); err != nil {
			t.Fatal(errors.Wrap(err, "releasing"))
		}

		entries := mustList(t, db)
		assert.Equal(t, len(entries), 1, "released entry should stay")
		assert.Equal(t, entries[0].InFlight, false, "released entry should not be in flight")
		assert.Equal(t, entries[0].LastError, "connection refused", "last error mismatch")

		batch, err = DrainBatch(db, 10)
		if err != nil {
			t.Fatal(errors.Wrap(err, "draining again"))
		}
		assert.Equal(t, len(batch), 1, "released entry should be drained again")
		assert.Equal(t, batch[0].Attempts, 2, "attempts should accumulate")
	})

	t.Run("superseded by a newer change", func(t *testing.T) {
		db := testutils.InitMemoryDB(t)

		mustEnqueue(t, db, "doc-1", "a")
		batch, err := DrainBatch(db, 10)
		if err != nil {
			t.Fatal(errors.Wrap(err, "draining"))
		}
		newer := mustEnqueue(t, db, "doc-1", "b")

		if err := Release(db, []int64{batch[0].ID}, nil); err != nil {
			t.Fatal(errors.Wrap(err, "releasing"))
		}

		entries := mustList(t, db)
		assert.Equal(t, len(entries), 1, "the older change should be dropped")
		assert.Equal(t, entries[0].ID, newer, "remaining entry mismatch")
		assert.Equal(t, entries[0].Content, "b", "remaining content mismatch")
	})
}

func TestDropDocument(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	mustEnqueue(t, db, "doc-1", "a")
	if _, err := DrainBatch(db, 10); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}
	mustEnqueue(t, db, "doc-1", "b")
	mustEnqueue(t, db, "doc-2", "c")

	if err := DropDocument(db, "doc-1"); err != nil {
		t.Fatal(errors.Wrap(err, "dropping"))
	}

	n, err := LenDocument(db, "doc-1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}
	assert.Equal(t, n, 0, "every entry of the document should be dropped")
	assert.Equal(t, mustLen(t, db), 1, "other documents should stay")
}

func TestRecover(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	mustEnqueue(t, db, "doc-1", "a")
	mustEnqueue(t, db, "doc-2", "b")
	if _, err := DrainBatch(db, 10); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}
	mustEnqueue(t, db, "doc-1", "a2")

	n, err := Recover(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "recovering"))
	}
	assert.Equal(t, n, 2, "recovered count mismatch")

	entries := mustList(t, db)
	assert.Equal(t, len(entries), 2, "one entry per document should remain")
	for _, e := range entries {
		assert.Equal(t, e.InFlight, false, "no entry should be in flight")
	}

	byDoc := map[string]string{}
	for _, e := range entries {
		byDoc[e.DocID] = e.Content
	}
	assert.Equal(t, byDoc["doc-1"], "a2", "the newest change should win")
	assert.Equal(t, byDoc["doc-2"], "b", "doc-2 content mismatch")
}

func TestDurability(t *testing.T) {
	path := database.TestFilePath(t)

	db, err := database.Open(path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening"))
	}
	testutils.MigrateDB(t, db)
	mustEnqueue(t, db, "doc-1", "a")
	if _, err := DrainBatch(db, 10); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}
	db.Close()

	reopened := database.InitTestFileDBRaw(t, path)
	n, err := Recover(reopened)
	if err != nil {
		t.Fatal(errors.Wrap(err, "recovering"))
	}
	assert.Equal(t, n, 1, "the interrupted entry should be recovered")

	batch, err := DrainBatch(reopened, 10)
	if err != nil {
		t.Fatal(errors.Wrap(err, "draining after restart"))
	}
	assert.Equal(t, len(batch), 1, "the entry should be pushed again")
	assert.Equal(t, batch[0].Content, "a", "content mismatch")
}
