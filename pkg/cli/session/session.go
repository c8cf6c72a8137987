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

// Package session is the entry point of an editor into the sync engine. A
// session owns the background worker, the realtime subscription and the
// event bus of one logged in user on one device.
package session

import (
	stdcontext "context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/events"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/realtime"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/resolve"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/validate"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/worker"
)

// ErrClosed is returned when using a closed session
var ErrClosed = errors.New("session is closed")

// Session ties the local store to the server for one user
type Session struct {
	ctx      context.LitriftCtx
	bus      *events.Bus
	engine   *syncer.Engine
	worker   *worker.Worker
	resolver *resolve.Controller

	mu         sync.Mutex
	started    bool
	closed     bool
	subscriber *realtime.Subscriber
	cancel     stdcontext.CancelFunc
	wg         sync.WaitGroup
}

// New returns a session that is not started
func New(ctx context.LitriftCtx) *Session {
	bus := events.NewBus()
	engine := syncer.New(ctx, bus)

	return &Session{
		ctx:    ctx,
		bus:    bus,
		engine: engine,
		worker: worker.New(engine, bus, worker.Config{
			SyncInterval:         ctx.SyncInterval,
			ConflictPollInterval: ctx.ConflictPollInterval,
			Clock:                ctx.Clock,
		}),
		resolver: resolve.New(ctx.DB, ctx.DeviceID, engine, bus),
	}
}

// Start starts the worker and, if enabled, the realtime subscription
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}
	s.started = true

	s.worker.Start()

	if !s.ctx.Realtime {
		return nil
	}

	sub, err := realtime.New(s.ctx, realtime.Options{
		OnConflict: func(ev realtime.ConflictEvent) {
			log.Debug("conflict %s announced for %s\n", ev.ConflictID, ev.DocID)
			s.worker.RequestPoll()
		},
	})
	if err != nil {
		return errors.Wrap(err, "subscribing to realtime events")
	}

	ctx, cancel := stdcontext.WithCancel(stdcontext.Background())
	s.subscriber = sub
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := sub.Run(ctx); err != nil {
			log.Debug("realtime subscription: %s\n", err)
		}
	}()

	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// OnSave stores an edit of a document and queues it for the server
func (s *Session) OnSave(docID, content, title string) (store.Document, error) {
	if s.isClosed() {
		return store.Document{}, ErrClosed
	}
	if err := validate.DocID(docID); err != nil {
		return store.Document{}, err
	}

	return store.Save(s.ctx.DB, store.SaveParams{
		DocID:    docID,
		Title:    title,
		Content:  content,
		DeviceID: s.ctx.DeviceID,
		Now:      s.ctx.Clock.Now(),
	})
}

// Load returns the local copy of a document
func (s *Session) Load(docID string) (store.Document, error) {
	return store.Load(s.ctx.DB, docID)
}

// List returns every local document
func (s *Session) List() ([]store.Document, error) {
	return store.List(s.ctx.DB)
}

// WorkerStatus returns the state of the background worker
func (s *Session) WorkerStatus() worker.Status {
	return s.worker.Status()
}

// RealtimeConnected reports whether the realtime subscription is joined
func (s *Session) RealtimeConnected() bool {
	s.mu.Lock()
	sub := s.subscriber
	s.mu.Unlock()

	return sub != nil && sub.Connected()
}

// SyncNow runs a push cycle and returns whether it ran
func (s *Session) SyncNow() bool {
	return s.worker.SyncNow()
}

// PollConflicts runs a conflict poll and returns whether it ran
func (s *Session) PollConflicts() bool {
	return s.worker.PollNow()
}

// ListPendingConflicts returns the cached conflicts awaiting a decision
func (s *Session) ListPendingConflicts() ([]store.Conflict, error) {
	return store.ListConflicts(s.ctx.DB, store.ConflictPending)
}

// ResolveConflict applies the user's choice on a conflict
func (s *Session) ResolveConflict(conflictID, choice string) (store.Document, error) {
	if s.isClosed() {
		return store.Document{}, ErrClosed
	}

	return s.resolver.Resolve(conflictID, choice)
}

// ResolutionState returns the resolution state of a conflict
func (s *Session) ResolutionState(conflictID string) string {
	return s.resolver.State(conflictID)
}

// Subscribe returns a subscription to the events of the session
func (s *Session) Subscribe(buffer int) *events.Subscription {
	return s.bus.Subscribe(buffer)
}

// Close stops the worker, waiting for a running cycle, closes the realtime
// subscription and closes every event subscription
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	s.worker.Stop()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.bus.Close()
}
