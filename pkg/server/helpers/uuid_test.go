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

package helpers

import (
	"testing"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
)

func TestGenUUID(t *testing.T) {
	u, err := GenUUID()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, ValidateUUID(u), true, "generated uuid is invalid")
	assert.Equal(t, ValidateUUID("not-a-uuid"), false, "invalid uuid accepted")
}

func TestGenSessionKey(t *testing.T) {
	a, err := GenSessionKey()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenSessionKey()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(a), 44, "key length mismatch")
	assert.NotEqual(t, a, b, "keys should differ")
}
