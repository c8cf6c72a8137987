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

package edit

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/session"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
)

func TestApply(t *testing.T) {
	ctx := context.InitTestCtx(t)
	s := session.New(ctx)
	defer s.Close()

	doc, saved, err := apply(s, store.Document{DocID: "chapter-1"}, "", "# Opening\ntext")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating"))
	}
	assert.Equal(t, saved, true, "a new document should be saved")
	assert.Equal(t, doc.Title, "Opening", "title mismatch")
	assert.Equal(t, doc.Version, 1, "version mismatch")

	same, saved, err := apply(s, doc, "", doc.Content)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving unchanged"))
	}
	assert.Equal(t, saved, false, "an unchanged document should not be saved")
	assert.Equal(t, same.Version, 1, "version should not move")

	doc, saved, err = apply(s, doc, "Renamed", doc.Content)
	if err != nil {
		t.Fatal(errors.Wrap(err, "renaming"))
	}
	assert.Equal(t, saved, true, "a new title should be saved")
	assert.Equal(t, doc.Title, "Renamed", "title mismatch")
	assert.Equal(t, doc.Version, 2, "version mismatch")
}
