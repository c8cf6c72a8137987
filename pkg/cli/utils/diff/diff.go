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

// Package diff computes line diffs between two versions of a document
// using github.com/sergi/go-diff/diffmatchpatch
package diff

import (
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of change a line went through
type Op = diffmatchpatch.Operation

const (
	// Equal marks a line both versions have
	Equal = diffmatchpatch.DiffEqual
	// Insert marks a line only the later version has
	Insert = diffmatchpatch.DiffInsert
	// Delete marks a line only the earlier version has
	Delete = diffmatchpatch.DiffDelete
)

// Line is one line of a diff, without its line break
type Line struct {
	Op   Op
	Text string
}

// Do computes the line-by-line diff from one version to another
func Do(from, to string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = time.Hour

	fromChars, toChars, arr := dmp.DiffLinesToRunes(from, to)
	diffs := dmp.DiffMainRunes(fromChars, toChars, false)

	return dmp.DiffCharsToLines(diffs, arr)
}

// Lines computes the diff from one version to another and splits it into lines
func Lines(from, to string) []Line {
	var ret []Line
	for _, d := range Do(from, to) {
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}

			ret = append(ret, Line{Op: d.Type, Text: strings.TrimSuffix(text, "\n")})
		}
	}

	return ret
}
