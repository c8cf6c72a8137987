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

package validate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
)

func TestDocID(t *testing.T) {
	testCases := []struct {
		input    string
		expected error
	}{
		{
			input:    "chapter-1",
			expected: nil,
		},
		{
			input:    "part-1:chapter-2",
			expected: nil,
		},
		{
			input:    "Chapter 1",
			expected: nil,
		},
		{
			input:    "",
			expected: ErrDocIDEmpty,
		},
		{
			input:    strings.Repeat("a", MaxDocIDLength+1),
			expected: ErrDocIDTooLong,
		},
		{
			input:    "part-1/chapter-2",
			expected: ErrDocIDHasSlash,
		},
		{
			input:    " chapter-1",
			expected: ErrDocIDHasSpace,
		},
		{
			input:    "chapter-1\n",
			expected: ErrDocIDHasSpace,
		},
		{
			input:    "chapter\n1",
			expected: ErrDocIDHasControl,
		},
		{
			input:    "chapter\x001",
			expected: ErrDocIDHasControl,
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("for input %q", tc.input), func(t *testing.T) {
			assert.Equal(t, DocID(tc.input), tc.expected, "result mismatch")
		})
	}
}
