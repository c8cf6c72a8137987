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

package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
)

func TestGetTmpContentPath(t *testing.T) {
	t.Run("no collision", func(t *testing.T) {
		ctx := context.InitTestCtx(t)

		res, err := GetTmpContentPath(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		expected := filepath.Join(ctx.Paths.App().Cache, "LITRIFT_TMPCONTENT_0.md")
		assert.Equal(t, res, expected, "filename did not match")
	})

	t.Run("two existing sessions", func(t *testing.T) {
		// set up
		ctx := context.InitTestCtx(t)

		for _, name := range []string{"LITRIFT_TMPCONTENT_0.md", "LITRIFT_TMPCONTENT_1.md"} {
			if _, err := os.Create(filepath.Join(ctx.Paths.App().Cache, name)); err != nil {
				t.Fatal(errors.Wrap(err, "preparing the conflicting file"))
			}
		}

		// execute
		res, err := GetTmpContentPath(ctx)
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		// test
		expected := filepath.Join(ctx.Paths.App().Cache, "LITRIFT_TMPCONTENT_2.md")
		assert.Equal(t, res, expected, "filename did not match")
	})
}

func TestGetEditorInput(t *testing.T) {
	ctx := context.InitTestCtx(t)
	// "true" exits without touching the file so the initial content comes back
	ctx.Editor = "true"

	p, err := GetTmpContentPath(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the path"))
	}

	got, err := GetEditorInput(ctx, p, "# Chapter 1\r\nDraft")
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, got, "# Chapter 1\nDraft", "content mismatch")

	_, err = os.Stat(p)
	assert.Equal(t, os.IsNotExist(err), true, "temporary file should be removed")
}

func TestGetEditorInput_noEditor(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.Editor = ""

	p, err := GetTmpContentPath(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting the path"))
	}

	_, err = GetEditorInput(ctx, p, "draft")
	assert.NotEqual(t, err, nil, "should fail without an editor")
}
