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

package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
)

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Successf("pushed %d documents\n", 2)
	Plain("plain\n")

	got := buf.String()
	assert.Equal(t, strings.Contains(got, "pushed 2 documents"), true, "success message mismatch")
	assert.Equal(t, strings.HasSuffix(got, indent+"plain\n"), true, "plain message mismatch")
}

func TestDebug(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	os.Unsetenv(debugEnvName)
	Debug("hidden %d\n", 1)
	assert.Equal(t, buf.Len(), 0, "debug should be silent without the env")

	t.Setenv(debugEnvName, debugEnvValue)
	Debug("shown %d\n", 2)
	assert.Equal(t, strings.Contains(buf.String(), "shown 2"), true, "debug should print with the env")
}
