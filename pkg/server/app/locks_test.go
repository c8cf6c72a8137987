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
	"sync"
	"testing"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
)

func TestDocLocks(t *testing.T) {
	l := NewDocLocks()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := l.Lock(1, "d1")
			defer unlock()

			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, counter, 50, "counter mismatch")
	assert.Equal(t, l.size(), 0, "locks should be released")
}

func TestDocLocksAreScoped(t *testing.T) {
	l := NewDocLocks()

	unlockA := l.Lock(1, "d1")
	// A different document or user must not block.
	unlockB := l.Lock(1, "d2")
	unlockC := l.Lock(2, "d1")

	assert.Equal(t, l.size(), 3, "lock count mismatch")

	unlockA()
	unlockB()
	unlockC()
	assert.Equal(t, l.size(), 0, "locks should be released")
}
