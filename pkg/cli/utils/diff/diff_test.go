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

package diff

import (
	"fmt"
	"testing"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
)

func TestLines(t *testing.T) {
	testCases := []struct {
		from     string
		to       string
		expected []Line
	}{
		{
			from:     "",
			to:       "",
			expected: nil,
		},
		{
			from: "same\n",
			to:   "same\n",
			expected: []Line{
				{Op: Equal, Text: "same"},
			},
		},
		{
			from: "line one\nline two\n",
			to:   "line one\nline 2\nline three\n",
			expected: []Line{
				{Op: Equal, Text: "line one"},
				{Op: Delete, Text: "line two"},
				{Op: Insert, Text: "line 2"},
				{Op: Insert, Text: "line three"},
			},
		},
		{
			from: "no trailing break",
			to:   "",
			expected: []Line{
				{Op: Delete, Text: "no trailing break"},
			},
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			assert.DeepEqual(t, Lines(tc.from, tc.to), tc.expected, "lines mismatch")
		})
	}
}
