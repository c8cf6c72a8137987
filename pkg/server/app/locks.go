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
	"fmt"
	"sync"
)

// DocLocks serializes writers per document within the process. Entries are
// reference counted and removed once no goroutine holds or waits for them.
type DocLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

// NewDocLocks returns an empty set of document locks
func NewDocLocks() *DocLocks {
	return &DocLocks{
		locks: map[string]*docLock{},
	}
}

func docLockKey(userID int, docID string) string {
	return fmt.Sprintf("%d/%s", userID, docID)
}

// Lock acquires the lock for the given user's document and returns the
// function releasing it.
func (l *DocLocks) Lock(userID int, docID string) func() {
	key := docLockKey(userID, docID)

	l.mu.Lock()
	dl, ok := l.locks[key]
	if !ok {
		dl = &docLock{}
		l.locks[key] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()

	return func() {
		dl.mu.Unlock()

		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *DocLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
