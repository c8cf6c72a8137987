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

// Package resolve applies the user's decision on a conflict and converges the
// local store on the result
package resolve

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/events"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
)

var (
	// ErrInvalidChoice is returned for a choice other than local or cloud
	ErrInvalidChoice = errors.New("choice must be 'local' or 'cloud'")
	// ErrResolving is returned while another resolution of the conflict is
	// in progress
	ErrResolving = errors.New("conflict is being resolved")
	// ErrNotLocalDevice is returned when choosing the local side of a conflict
	// from a device other than the one that made the local edit
	ErrNotLocalDevice = errors.New("the local side of this conflict belongs to another device")
)

// Resolution states
const (
	StatePending   = "pending"
	StateResolving = "resolving"
	StateResolved  = "resolved"
)

// Remote is the server side of a resolution
type Remote interface {
	GetConflict(conflictID string) (store.Conflict, error)
	Resolve(conflictID, choice string, content, title *string) (syncer.Resolution, error)
}

// Controller resolves conflicts one at a time per conflict
type Controller struct {
	db       *database.DB
	deviceID string
	remote   Remote
	bus      *events.Bus

	mu     sync.Mutex
	states map[string]string
}

// New returns a controller for the device with the given id. Events are
// published on the bus, which may be nil.
func New(db *database.DB, deviceID string, remote Remote, bus *events.Bus) *Controller {
	return &Controller{
		db:       db,
		deviceID: deviceID,
		remote:   remote,
		bus:      bus,
		states:   map[string]string{},
	}
}

func (c *Controller) publish(e events.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

// ValidChoice returns true if the choice is local or cloud
func ValidChoice(choice string) bool {
	return choice == consts.ChoiceLocal || choice == consts.ChoiceCloud
}

// State returns the resolution state of a conflict
func (c *Controller) State(conflictID string) string {
	c.mu.Lock()
	s, ok := c.states[conflictID]
	c.mu.Unlock()
	if ok {
		return s
	}

	cached, err := store.GetConflict(c.db, conflictID)
	if err == nil && !cached.Pending() {
		return StateResolved
	}

	return StatePending
}

// Resolve sends the choice to the server and adopts the converged document.
// Resolving a resolved conflict returns the local document without asking the
// server again. On failure the conflict stays pending and the call can be
// retried.
func (c *Controller) Resolve(conflictID, choice string) (store.Document, error) {
	if !ValidChoice(choice) {
		return store.Document{}, ErrInvalidChoice
	}

	c.mu.Lock()
	if c.states[conflictID] == StateResolving {
		c.mu.Unlock()
		return store.Document{}, ErrResolving
	}
	c.states[conflictID] = StateResolving
	c.mu.Unlock()

	doc, err := c.resolve(conflictID, choice)

	c.mu.Lock()
	if err != nil {
		c.states[conflictID] = StatePending
	} else {
		c.states[conflictID] = StateResolved
	}
	c.mu.Unlock()

	return doc, err
}

func (c *Controller) conflict(conflictID string) (store.Conflict, error) {
	cached, err := store.GetConflict(c.db, conflictID)
	if err == nil {
		return cached, nil
	}
	if err != store.ErrConflictNotFound {
		return cached, err
	}

	fetched, err := c.remote.GetConflict(conflictID)
	if err != nil {
		return fetched, errors.Wrapf(err, "fetching conflict %s", conflictID)
	}
	if _, err := store.SaveConflict(c.db, fetched); err != nil {
		return fetched, err
	}

	return fetched, nil
}

func (c *Controller) resolve(conflictID, choice string) (store.Document, error) {
	conflict, err := c.conflict(conflictID)
	if err != nil {
		return store.Document{}, err
	}
	if !conflict.Pending() {
		return store.Load(c.db, conflict.DocID)
	}

	var content, title *string
	if choice == consts.ChoiceLocal {
		// Only the device holding the local side can promote it
		if conflict.LocalDeviceID != c.deviceID {
			return store.Document{}, errors.Wrapf(ErrNotLocalDevice, "resolve it from %s", conflict.LocalDeviceID)
		}

		local, err := store.Load(c.db, conflict.DocID)
		if err != nil {
			return local, errors.Wrapf(err, "loading the local copy of %s", conflict.DocID)
		}

		content = &local.Content
		title = &local.Title
	}

	res, err := c.remote.Resolve(conflictID, choice, content, title)
	if err != nil {
		return store.Document{}, err
	}

	doc, err := store.Adopt(c.db, res.Document)
	if err != nil {
		return doc, errors.Wrap(err, "adopting the resolved document")
	}

	resolved := res.Choice
	if resolved == "" {
		resolved = choice
	}
	if err := store.MarkConflictResolved(c.db, conflictID, resolved); err != nil {
		return doc, err
	}

	c.publish(events.ConflictResolved{ConflictID: conflictID, DocID: doc.DocID, Choice: resolved})
	c.publish(events.DocumentReloaded{Document: doc})

	return doc, nil
}
