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

package app

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/testutils"
)

type mockNotifier struct {
	mu     sync.Mutex
	events []database.Conflict
}

func (n *mockNotifier) NotifyConflict(userID int, c database.Conflict) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, c)
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.events)
}

func mustPush(t *testing.T, a *App, user database.User, p PushParams) PushResult {
	res, err := a.PushDocument(user, p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing document"))
	}

	return res
}

func countConflicts(t *testing.T, a *App, docID string) int64 {
	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Conflict{}).Where("document_id = ?", docID).Count(&count), "counting conflicts")

	return count
}

func TestPushDocument_validation(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	_, err := a.PushDocument(user, PushParams{DocID: "", Content: "x"})
	assert.Equal(t, err, ErrDocIDRequired, "error mismatch")

	_, err = a.PushDocument(user, PushParams{DocID: "d1", BaseVersion: -1})
	assert.Equal(t, err, ErrInvalidBaseVersion, "error mismatch")
}

func TestPushDocument_new(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	device := testutils.SetupDevice(a.DB, user, "laptop")

	res := mustPush(t, &a, user, PushParams{DocID: "d1", Title: "Ch 1", Content: "hello", BaseVersion: 0, DeviceID: device.UUID})

	assert.Equal(t, res.Status, PushApplied, "status mismatch")
	assert.Equal(t, res.Version(), 1, "version mismatch")
	assert.Equal(t, res.Document.Content, "hello", "content mismatch")
	assert.Equal(t, res.Document.DeviceID, device.UUID, "device mismatch")

	var d database.Device
	testutils.MustExec(t, a.DB.Where("uuid = ?", device.UUID).First(&d), "finding device")
	assert.NotEqual(t, d.LastSyncAt, (*time.Time)(nil), "last sync should be recorded")
}

// Scenario A: a device that edited offline pushes once back online
func TestPushDocument_fastForward(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "v1", BaseVersion: 0})
	res := mustPush(t, &a, user, PushParams{DocID: "d1", Content: "v2", BaseVersion: 1})

	assert.Equal(t, res.Status, PushApplied, "status mismatch")
	assert.Equal(t, res.Version(), 2, "version mismatch")

	doc, err := a.GetDocument(user.ID, "d1")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, doc.Content, "v2", "content mismatch")
	assert.Equal(t, doc.Version, 2, "stored version mismatch")
}

func TestPushDocument_resend(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "v1", BaseVersion: 0})
	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "v2", BaseVersion: 1})

	// the device never saw the acknowledgement and sends again
	res := mustPush(t, &a, user, PushParams{DocID: "d1", Content: "v2", BaseVersion: 1})

	assert.Equal(t, res.Status, PushApplied, "status mismatch")
	assert.Equal(t, res.Version(), 2, "version should not advance")
	assert.Equal(t, countConflicts(t, &a, "d1"), int64(0), "no conflict expected")
}

// Scenario B: two devices edit from the same base
func TestPushDocument_conflict(t *testing.T) {
	a := NewTest(t)
	n := &mockNotifier{}
	a.Notifier = n
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	x := testutils.SetupDevice(a.DB, user, "x")
	y := testutils.SetupDevice(a.DB, user, "y")

	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "one", BaseVersion: 0, DeviceID: x.UUID})
	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "two", BaseVersion: 1, DeviceID: x.UUID})

	yEdit := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "bar", BaseVersion: 2, DeviceID: y.UUID, EditedAt: &yEdit})

	xEdit := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	res := mustPush(t, &a, user, PushParams{DocID: "d1", Content: "foo", BaseVersion: 2, DeviceID: x.UUID, EditedAt: &xEdit})

	assert.Equal(t, res.Status, PushConflict, "status mismatch")
	assert.Equal(t, res.ConflictCreated, true, "conflict should be created")
	assert.Equal(t, res.Document.Content, "bar", "server copy should be unchanged")
	assert.Equal(t, res.Version(), 3, "server version mismatch")

	c := res.Conflict
	assert.Equal(t, c.LocalVersion, 2, "local version mismatch")
	assert.Equal(t, c.CloudVersion, 3, "cloud version mismatch")
	assert.Equal(t, c.LocalDeviceID, x.UUID, "local device mismatch")
	assert.Equal(t, c.CloudDeviceID, y.UUID, "cloud device mismatch")
	assert.Equal(t, c.LocalTimestamp.Equal(xEdit), true, "local timestamp mismatch")
	assert.Equal(t, c.CloudTimestamp.Equal(yEdit), true, "cloud timestamp mismatch")
	assert.Equal(t, c.LocalPreview, "foo", "local preview mismatch")
	assert.Equal(t, c.CloudPreview, "bar", "cloud preview mismatch")
	assert.Equal(t, c.Status, database.ConflictStatusPending, "status mismatch")
	assert.Equal(t, n.count(), 1, "notification count mismatch")
}

func TestPushDocument_foldsIntoPendingConflict(t *testing.T) {
	a := NewTest(t)
	n := &mockNotifier{}
	a.Notifier = n
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "one", BaseVersion: 0})
	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "two", BaseVersion: 1})

	first := mustPush(t, &a, user, PushParams{DocID: "d1", Content: "three", BaseVersion: 1})
	second := mustPush(t, &a, user, PushParams{DocID: "d1", Content: "four", BaseVersion: 1})

	assert.Equal(t, second.Status, PushConflict, "status mismatch")
	assert.Equal(t, second.ConflictCreated, false, "no new conflict expected")
	assert.Equal(t, second.Conflict.UUID, first.Conflict.UUID, "conflict id mismatch")
	assert.Equal(t, second.Conflict.LocalPreview, "three", "pending conflict should be untouched")
	assert.Equal(t, countConflicts(t, &a, "d1"), int64(1), "conflict count mismatch")
	assert.Equal(t, n.count(), 1, "notification count mismatch")
}

func TestPushDocument_concurrent(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "base", BaseVersion: 0})

	var wg sync.WaitGroup
	results := make([]PushResult, 10)
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			results[i], errs[i] = a.PushDocument(user, PushParams{
				DocID:       "d1",
				Content:     fmt.Sprintf("edit %d", i),
				BaseVersion: 1,
			})
		}(i)
	}
	wg.Wait()

	applied := 0
	created := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatal(errors.Wrapf(errs[i], "push %d", i))
		}
		if results[i].Status == PushApplied {
			applied++
		}
		if results[i].ConflictCreated {
			created++
		}
	}

	assert.Equal(t, applied, 1, "exactly one push should win")
	assert.Equal(t, created, 1, "exactly one conflict should be created")
	assert.Equal(t, countConflicts(t, &a, "d1"), int64(1), "conflict count mismatch")
}

func TestPushDocument_previewLength(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	long := strings.Repeat("é", 300)
	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "one", BaseVersion: 0})
	mustPush(t, &a, user, PushParams{DocID: "d1", Content: "two", BaseVersion: 1})
	res := mustPush(t, &a, user, PushParams{DocID: "d1", Content: long, BaseVersion: 1})

	assert.Equal(t, res.Conflict.LocalPreview, strings.Repeat("é", 200), "preview mismatch")
}

func TestPreview(t *testing.T) {
	testCases := []struct {
		input    string
		n        int
		expected string
	}{
		{"", 5, ""},
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc"},
		{"日本語テキスト", 3, "日本語"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, preview(tc.input, tc.n), tc.expected, "preview mismatch")
		})
	}
}

func TestPushDocuments(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	res := a.PushDocuments(user, []PushParams{
		{DocID: "d1", Content: "a", BaseVersion: 0},
		{DocID: "", Content: "b"},
		{DocID: "d2", Content: "c", BaseVersion: 0},
	})

	assert.Equal(t, len(res), 3, "result count mismatch")
	assert.Equal(t, res[0].Err, nil, "d1 error mismatch")
	assert.Equal(t, res[0].Result.Version(), 1, "d1 version mismatch")
	assert.Equal(t, res[1].Err, ErrDocIDRequired, "invalid entry error mismatch")
	assert.Equal(t, res[2].Err, nil, "d2 error mismatch")
}

func TestListDocuments(t *testing.T) {
	a := NewTest(t)
	alice := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	bob := testutils.SetupUserData(a.DB, "bob@example.com", "pass1234")

	mustPush(t, &a, alice, PushParams{DocID: "b", Content: "1"})
	mustPush(t, &a, alice, PushParams{DocID: "a", Content: "2"})
	mustPush(t, &a, bob, PushParams{DocID: "c", Content: "3"})

	docs, err := a.ListDocuments(alice.ID, ListDocumentsParams{})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(docs), 2, "document count mismatch")
	assert.Equal(t, docs[0].DocID, "a", "order mismatch")
	assert.Equal(t, docs[1].DocID, "b", "order mismatch")

	future := time.Now().Add(time.Hour)
	docs, err = a.ListDocuments(alice.ID, ListDocumentsParams{UpdatedSince: &future})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(docs), 0, "filtered count mismatch")

	mustPush(t, &a, alice, PushParams{DocID: "a", Content: "2b", BaseVersion: 1})
	docs, err = a.ListDocuments(alice.ID, ListDocumentsParams{SinceVersion: 1})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(docs), 1, "version filtered count mismatch")
	assert.Equal(t, docs[0].DocID, "a", "version filtered doc mismatch")
}

func TestGetDocument_missing(t *testing.T) {
	a := NewTest(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	doc, err := a.GetDocument(user.ID, "nope")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, doc, (*database.Document)(nil), "document should be nil")
}
