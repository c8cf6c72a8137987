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

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
)

func capture(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	restore := log.SetOutput(&buf)
	noColor := color.NoColor
	color.NoColor = true

	t.Cleanup(func() {
		restore()
		color.NoColor = noColor
	})

	return &buf
}

func TestDiff(t *testing.T) {
	buf := capture(t)

	Diff("line one\nline two\n", "line one\nline 2\nline three\n")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	assert.DeepEqual(t, lines, []string{
		"line one",
		"- line two",
		"+ line 2",
		"+ line three",
	}, "diff mismatch")
}

func TestConflictInfo(t *testing.T) {
	buf := capture(t)

	ConflictInfo(store.Conflict{
		ConflictID:   "c1",
		DocID:        "chapter-1",
		LocalVersion: 2,
		CloudVersion: 3,
		Suggested:    "cloud",
		Status:       store.ConflictPending,
	}, "local draft", "cloud draft")

	got := buf.String()
	assert.Equal(t, strings.Contains(got, "conflict id: c1"), true, "should print the conflict id")
	assert.Equal(t, strings.Contains(got, "suggested: cloud"), true, "should print the suggestion")
	assert.Equal(t, strings.Contains(got, "+ local draft"), true, "should print the local side")
	assert.Equal(t, strings.Contains(got, "- cloud draft"), true, "should print the cloud side")
}
