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

// Package events is the publish/subscribe bus through which a session tells
// its front end about conflicts, reloads and the health of the sync worker.
package events

import (
	"sync"
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
)

// Event is published on a Bus
type Event interface {
	Kind() string
}

// Kinds of events
const (
	KindConflictDetected = "conflict:detected"
	KindConflictResolved = "conflict:resolved"
	KindDocumentReloaded = "document:reloaded"
	KindStatusChanged    = "status:changed"
	KindSyncFailed       = "sync:failed"
)

// ConflictDetected is published when the device learns about a new conflict
type ConflictDetected struct {
	Conflict store.Conflict
}

// Kind implements Event
func (ConflictDetected) Kind() string { return KindConflictDetected }

// ConflictResolved is published after a resolution converged
type ConflictResolved struct {
	ConflictID string
	DocID      string
	Choice     string
}

// Kind implements Event
func (ConflictResolved) Kind() string { return KindConflictResolved }

// DocumentReloaded is published when the local copy of a document was
// replaced by the server copy. An open editor reloads it.
type DocumentReloaded struct {
	Document store.Document
}

// Kind implements Event
func (DocumentReloaded) Kind() string { return KindDocumentReloaded }

// StatusChanged is published when the worker goes online or offline, or
// completes a sync
type StatusChanged struct {
	IsRunning    bool
	IsOnline     bool
	LastSyncTime time.Time
}

// Kind implements Event
func (StatusChanged) Kind() string { return KindStatusChanged }

// SyncFailed is published when a sync cycle failed in a way the user should
// know about
type SyncFailed struct {
	Err error
	// Unauthorized is true if the server keeps rejecting the session
	Unauthorized bool
}

// Kind implements Event
func (SyncFailed) Kind() string { return KindSyncFailed }

// DefaultBuffer is the buffer size of a subscription
const DefaultBuffer = 64

// Bus fans events out to subscriptions. Publishing never blocks: a
// subscription whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBus returns a new bus
func NewBus() *Bus {
	return &Bus{subs: map[*Subscription]struct{}{}}
}

// Subscription receives the events published after it was made
type Subscription struct {
	ch      chan Event
	bus     *Bus
	once    sync.Once
	dropped int
}

// C returns the channel of events. It is closed when the subscription or the
// bus is closed.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped returns how many events the subscription missed
func (s *Subscription) Dropped() int {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()

	return s.dropped
}

// Close stops the subscription
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if _, ok := s.bus.subs[s]; ok {
		delete(s.bus.subs, s)
		s.close()
	}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Subscribe returns a subscription with the given buffer size. A
// subscription on a closed bus is already closed.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	s := &Subscription{ch: make(chan Event, buffer), bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		s.close()
		return s
	}

	b.subs[s] = struct{}{}
	return s
}

// Publish delivers the event to every subscription with room for it
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
			s.dropped++
		}
	}
}

// Close closes the bus and every subscription
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for s := range b.subs {
		s.close()
	}
	b.subs = map[*Subscription]struct{}{}
}
