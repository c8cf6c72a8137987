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

package presenters

import (
	"testing"
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
)

func TestPresentDocument(t *testing.T) {
	edited := time.Date(2025, 1, 15, 10, 30, 45, 123456789, time.UTC)

	got := PresentDocument(database.Document{
		DocID:      "d1",
		Title:      "Chapter 1",
		Content:    "It was a dark night",
		Version:    3,
		LastEdited: edited,
		DeviceID:   "dev-1",
	})

	assert.Equal(t, got.DocID, "d1", "doc id mismatch")
	assert.Equal(t, got.Version, 3, "version mismatch")
	assert.Equal(t, got.LastEdited, FormatTS(edited), "last edited mismatch")
	assert.Equal(t, got.DeviceID, "dev-1", "device mismatch")
}

func TestPresentConflict(t *testing.T) {
	local := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cloud := local.Add(-time.Hour)
	resolved := local.Add(time.Hour)

	got := PresentConflict(database.Conflict{
		UUID:             "c1",
		DocumentID:       "d1",
		LocalVersion:     2,
		CloudVersion:     3,
		LocalTimestamp:   local,
		CloudTimestamp:   cloud,
		LocalPreview:     "foo",
		CloudPreview:     "bar",
		Status:           database.ConflictStatusResolved,
		ResolutionChoice: database.ChoiceCloud,
		ResolvedAt:       &resolved,
	})

	assert.Equal(t, got.ConflictID, "c1", "id mismatch")
	assert.Equal(t, got.DocID, "d1", "doc id mismatch")
	assert.Equal(t, got.Suggested, database.ChoiceLocal, "suggested mismatch")
	assert.Equal(t, *got.ResolvedAt, FormatTS(resolved), "resolved at mismatch")
	assert.Equal(t, got.ResolutionChoice, database.ChoiceCloud, "choice mismatch")
}

func TestPresentPushResult(t *testing.T) {
	applied := PresentPushResult("d1", app.PushResult{
		Status:   app.PushApplied,
		Document: database.Document{DocID: "d1", Version: 4},
	})
	assert.Equal(t, applied.Version, 4, "version mismatch")
	assert.Equal(t, applied.ConflictID, "", "applied push should not carry a conflict")

	conflict := PresentPushResult("d1", app.PushResult{
		Status:   app.PushConflict,
		Document: database.Document{DocID: "d1", Version: 3},
		Conflict: &database.Conflict{UUID: "c1", DocumentID: "d1"},
	})
	assert.Equal(t, conflict.Version, 0, "conflict should omit the version")
	assert.Equal(t, conflict.ConflictID, "c1", "conflict id mismatch")
	assert.Equal(t, conflict.Conflict.DocID, "d1", "conflict doc mismatch")
}

func TestPresentConflicts_empty(t *testing.T) {
	assert.DeepEqual(t, PresentConflicts(nil), []Conflict{}, "empty list should not be nil")
}
