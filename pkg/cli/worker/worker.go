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

// Package worker runs the background sync of a session. A push cycle and a
// conflict poll run on their own cadence and never overlap.
package worker

import (
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/events"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/sorrowscry86/Lit-Rift/pkg/clock"
)

// AuthFailureThreshold is the number of consecutive unauthorized cycles after
// which the user is told
const AuthFailureThreshold = 3

// Default cadences
const (
	DefaultSyncInterval         = 30 * time.Second
	DefaultConflictPollInterval = 10 * time.Second
)

// Syncer is what the worker drives
type Syncer interface {
	RegisterDevice() error
	CheckOnline() error
	PushBatch() (syncer.PushReport, error)
	FetchConflicts() ([]store.Conflict, error)
}

// Status is the state of a worker
type Status struct {
	IsRunning bool
	IsOnline  bool
	// LastSyncTime is zero until a push cycle succeeds
	LastSyncTime time.Time
}

// Config configures a worker
type Config struct {
	SyncInterval         time.Duration
	ConflictPollInterval time.Duration
	Clock                clock.Clock
}

// Worker schedules the sync cycles of one session
type Worker struct {
	syncer Syncer
	bus    *events.Bus
	clock  clock.Clock

	syncInterval time.Duration
	pollInterval time.Duration

	// cycle is held while a cycle runs
	cycle sync.Mutex

	mu           sync.Mutex
	status       Status
	authFailures int
	pollWanted   bool // set by RequestPoll, cleared by the poll serving it
	started      bool
	stopped      bool
	cron         *cron.Cron
	wg           sync.WaitGroup
}

// New returns a worker that is not started. Events are published on the bus,
// which may be nil.
func New(s Syncer, bus *events.Bus, c Config) *Worker {
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.ConflictPollInterval <= 0 {
		c.ConflictPollInterval = DefaultConflictPollInterval
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}

	return &Worker{
		syncer:       s,
		bus:          bus,
		clock:        c.Clock,
		syncInterval: c.SyncInterval,
		pollInterval: c.ConflictPollInterval,
	}
}

func (w *Worker) publish(e events.Event) {
	if w.bus != nil {
		w.bus.Publish(e)
	}
}

// Start registers the device, runs a first push cycle in the background and
// schedules the cycles. Starting a started or stopped worker does nothing.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}
	w.started = true
	w.status.IsRunning = true

	w.cron = cron.New()
	w.cron.Schedule(cron.Every(w.syncInterval), cron.FuncJob(func() { w.SyncNow() }))
	w.cron.Schedule(cron.Every(w.pollInterval), cron.FuncJob(func() { w.PollNow() }))
	w.cron.Start()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		if err := w.syncer.RegisterDevice(); err != nil {
			log.Debug("registering device: %s\n", err)
		}
		w.SyncNow()
	}()

	w.publish(events.StatusChanged{IsRunning: true})
}

// Stop cancels the schedule and waits for a running cycle to finish
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.status.IsRunning = false
	c := w.cron
	status := w.status
	w.mu.Unlock()

	if c != nil {
		c.Stop()
	}
	w.wg.Wait()

	w.publish(events.StatusChanged{IsRunning: status.IsRunning, IsOnline: status.IsOnline, LastSyncTime: status.LastSyncTime})
}

// Status returns the state of the worker
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.status
}

// SyncNow runs a push cycle unless another cycle is running or the worker is
// stopped. It returns whether the cycle ran.
func (w *Worker) SyncNow() bool {
	return w.run("push", w.pushCycle)
}

// PollNow runs a conflict poll unless another cycle is running or the worker
// is stopped. It returns whether the poll ran.
func (w *Worker) PollNow() bool {
	return w.run("conflict poll", w.pollCycle)
}

// RequestPoll runs a conflict poll now or, if a cycle is running, as soon as
// that cycle is done. Requests made while a poll is pending are merged.
func (w *Worker) RequestPoll() {
	w.mu.Lock()
	w.pollWanted = true
	w.mu.Unlock()

	w.PollNow()
}

// takePollRequest clears a pending poll request and returns whether there was one
func (w *Worker) takePollRequest() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	wanted := w.pollWanted && !w.stopped
	w.pollWanted = false
	return wanted
}

func (w *Worker) run(name string, fn func() error) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	ran := false
	for {
		if !w.cycle.TryLock() {
			log.Debug("skipping %s: a cycle is running\n", name)
			return ran
		}
		w.handle(name, fn())
		w.cycle.Unlock()
		ran = true

		// The request is read after the unlock, so a caller that set it while
		// the cycle was held either is seen here or gets the lock itself.
		if !w.takePollRequest() {
			return ran
		}
		name, fn = "requested conflict poll", w.pollCycle
	}
}

func (w *Worker) pushCycle() error {
	if err := w.syncer.CheckOnline(); err != nil {
		return err
	}
	w.setOnline(true)

	report, err := w.syncer.PushBatch()
	if err != nil {
		return err
	}
	log.Debug("pushed: %s\n", report)

	w.mu.Lock()
	w.status.LastSyncTime = w.clock.Now()
	status := w.status
	w.mu.Unlock()

	w.publish(events.StatusChanged{IsRunning: status.IsRunning, IsOnline: status.IsOnline, LastSyncTime: status.LastSyncTime})
	return nil
}

func (w *Worker) pollCycle() error {
	w.mu.Lock()
	w.pollWanted = false
	w.mu.Unlock()

	conflicts, err := w.syncer.FetchConflicts()
	if err != nil {
		return err
	}
	log.Debug("%d conflicts pending\n", len(conflicts))

	w.setOnline(true)
	return nil
}

func (w *Worker) setOnline(online bool) {
	w.mu.Lock()
	changed := w.status.IsOnline != online
	w.status.IsOnline = online
	status := w.status
	w.mu.Unlock()

	if changed {
		w.publish(events.StatusChanged{IsRunning: status.IsRunning, IsOnline: status.IsOnline, LastSyncTime: status.LastSyncTime})
	}
}

// handle classifies the outcome of a cycle. Transport failures take the
// worker offline and are retried on the next tick. Unauthorized responses are
// reported once they repeat.
func (w *Worker) handle(name string, err error) {
	if err == nil {
		w.mu.Lock()
		w.authFailures = 0
		w.mu.Unlock()
		return
	}

	switch {
	case client.IsTransport(err):
		log.Debug("%s: server unreachable: %s\n", name, err)
		w.setOnline(false)
	case client.IsUnauthorized(err):
		w.mu.Lock()
		w.authFailures++
		n := w.authFailures
		w.mu.Unlock()

		log.Debug("%s: unauthorized (%d in a row): %s\n", name, n, err)
		if n == AuthFailureThreshold {
			w.publish(events.SyncFailed{Err: err, Unauthorized: true})
		}
	default:
		log.Debug("%s failed: %s\n", name, err)
		w.publish(events.SyncFailed{Err: err})
	}
}
