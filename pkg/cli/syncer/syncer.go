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

// Package syncer moves changes between the local store and the server. It
// pushes the sync queue, pulls server copies and keeps the local conflict
// cache in step with the server.
package syncer

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/events"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/queue"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
)

// ErrRemoteNotFound is returned when the server has no copy of a document
var ErrRemoteNotFound = errors.New("document not found on the server")

// defaultBatchSize is used when the context does not set one
const defaultBatchSize = 50

// Engine syncs the local store of a device with the server
type Engine struct {
	ctx context.LitriftCtx
	bus *events.Bus
}

// New returns an engine. Events are published on the bus, which may be nil.
func New(ctx context.LitriftCtx, bus *events.Bus) *Engine {
	return &Engine{ctx: ctx, bus: bus}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) batchSize() int {
	if e.ctx.BatchSize > 0 {
		return e.ctx.BatchSize
	}

	return defaultBatchSize
}

// RegisterDevice announces the device to the server
func (e *Engine) RegisterDevice() error {
	_, err := client.RegisterDevice(e.ctx, client.RegisterDeviceParams{
		DeviceID:   e.ctx.DeviceID,
		Name:       e.ctx.DeviceName,
		AppVersion: e.ctx.Version,
	})

	return err
}

// CheckOnline returns nil if the server is reachable
func (e *Engine) CheckOnline() error {
	res, err := client.CheckHealth(e.ctx)
	if err != nil {
		return err
	}
	if res.Status != "ok" {
		return errors.Errorf("server is not healthy: %s", res.Status)
	}

	return nil
}

// PushReport counts the outcomes of PushBatch
type PushReport struct {
	Applied   int
	Conflicts int
	Failed    int
}

func (r PushReport) String() string {
	return fmt.Sprintf("%d applied, %d conflicts, %d failed", r.Applied, r.Conflicts, r.Failed)
}

// PushBatch pushes the queued changes in batches until the queue has nothing
// left to claim or an entry had to be released. A request that fails as a
// whole releases its entries and returns the error.
func (e *Engine) PushBatch() (PushReport, error) {
	var report PushReport
	size := e.batchSize()

	for {
		entries, err := queue.DrainBatch(e.ctx.DB, size)
		if err != nil {
			return report, errors.Wrap(err, "draining queue")
		}
		if len(entries) == 0 {
			break
		}

		before := report.Failed
		if err := e.push(entries, &report); err != nil {
			return report, err
		}

		if report.Failed > before || len(entries) < size {
			break
		}
	}

	if report.Applied > 0 || report.Conflicts > 0 {
		if err := e.touchLastSync(); err != nil {
			return report, err
		}
	}

	return report, nil
}

func entryIDs(entries []queue.Entry) []int64 {
	ret := make([]int64, 0, len(entries))
	for _, en := range entries {
		ret = append(ret, en.ID)
	}

	return ret
}

func (e *Engine) push(entries []queue.Entry, report *PushReport) error {
	db := e.ctx.DB

	params := make([]client.PushParams, 0, len(entries))
	pushed := make([]queue.Entry, 0, len(entries))
	for _, en := range entries {
		doc, err := store.Load(db, en.DocID)
		if err == store.ErrNotFound {
			// Nothing to carry the change against.
			if err := queue.Acknowledge(db, en.ID); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			if rerr := queue.Release(db, entryIDs(entries), err); rerr != nil {
				log.Debug("releasing entries: %s\n", rerr)
			}
			return errors.Wrapf(err, "loading %s", en.DocID)
		}

		editedAt := en.EnqueuedAt
		params = append(params, client.PushParams{
			DocID:       en.DocID,
			Title:       en.Title,
			Content:     en.Content,
			BaseVersion: doc.BaseVersion,
			DeviceID:    e.ctx.DeviceID,
			EditedAt:    &editedAt,
		})
		pushed = append(pushed, en)
	}
	if len(pushed) == 0 {
		return nil
	}

	resp, err := client.PushBatch(e.ctx, params)
	if err == nil && len(resp.Results) != len(pushed) {
		err = errors.Errorf("got %d results for %d documents", len(resp.Results), len(pushed))
	}
	if err != nil {
		if rerr := queue.Release(db, entryIDs(pushed), err); rerr != nil {
			log.Debug("releasing entries: %s\n", rerr)
		}
		report.Failed += len(pushed)
		return err
	}

	for i, res := range resp.Results {
		en := pushed[i]

		var err error
		switch {
		case res.DocID != en.DocID:
			err = e.release(en, errors.Errorf("result for %s returned for %s", res.DocID, en.DocID), report)
		case res.Status == client.PushApplied:
			if _, err = store.MarkApplied(db, en.ID, en.DocID, res.Version); err == nil {
				report.Applied++
			}
		case res.Status == client.PushConflict:
			if err = e.recordConflict(en, res); err == nil {
				report.Conflicts++
			}
		default:
			err = e.release(en, errors.New(res.Error), report)
		}
		if err != nil {
			if rerr := queue.Release(db, entryIDs(pushed[i:]), err); rerr != nil {
				log.Debug("releasing entries: %s\n", rerr)
			}
			return errors.Wrapf(err, "handling the result for %s", en.DocID)
		}
	}

	return nil
}

func (e *Engine) release(en queue.Entry, cause error, report *PushReport) error {
	log.Debug("push of %s failed: %s\n", en.DocID, cause)
	report.Failed++

	return queue.Release(e.ctx.DB, []int64{en.ID}, cause)
}

// recordConflict acknowledges the entry and caches the conflict the server
// reported. The local copy keeps its content and stays local-only until the
// conflict is resolved.
func (e *Engine) recordConflict(en queue.Entry, res client.PushResult) error {
	if err := queue.Acknowledge(e.ctx.DB, en.ID); err != nil {
		return err
	}

	remote := res.Conflict
	if remote == nil {
		c, err := client.GetConflict(e.ctx, res.ConflictID)
		if err != nil {
			// The poll picks the conflict up later.
			log.Debug("fetching conflict %s: %s\n", res.ConflictID, err)
			return nil
		}
		remote = &c
	}

	_, err := e.cacheConflict(*remote)
	return err
}

func (e *Engine) cacheConflict(c client.Conflict) (store.Conflict, error) {
	local := ToStoreConflict(c, e.ctx.Clock.Now())

	created, err := store.SaveConflict(e.ctx.DB, local)
	if err != nil {
		return local, err
	}
	if created && local.Pending() {
		e.publish(events.ConflictDetected{Conflict: local})
	}

	return local, nil
}

// Pull brings the server copy of a document into the local store unless the
// local copy has changes of its own. It returns the local document and
// whether it was replaced.
func (e *Engine) Pull(docID string) (store.Document, bool, error) {
	remote, err := client.GetDocument(e.ctx, docID)
	if client.IsNotFound(err) {
		return store.Document{}, false, ErrRemoteNotFound
	}
	if err != nil {
		return store.Document{}, false, err
	}

	return e.refresh(remote)
}

func (e *Engine) refresh(remote client.Document) (store.Document, bool, error) {
	doc, taken, err := store.Refresh(e.ctx.DB, ToRemote(remote))
	if err != nil {
		return doc, false, errors.Wrapf(err, "refreshing %s", remote.DocID)
	}
	if taken {
		e.publish(events.DocumentReloaded{Document: doc})
	}

	return doc, taken, nil
}

// PullAll refreshes every document the server holds. It returns the number of
// local copies that were replaced.
func (e *Engine) PullAll() (int, error) {
	resp, err := client.ListDocuments(e.ctx, client.ListDocumentsParams{})
	if err != nil {
		return 0, err
	}

	var count int
	for _, remote := range resp.Documents {
		_, taken, err := e.refresh(remote)
		if err != nil {
			return count, err
		}
		if taken {
			count++
		}
	}

	if err := e.touchLastSync(); err != nil {
		return count, err
	}

	return count, nil
}

// FetchConflicts caches the conflicts pending on the server and converges the
// cached ones that another device resolved. It returns the pending conflicts.
func (e *Engine) FetchConflicts() ([]store.Conflict, error) {
	resp, err := client.ListConflicts(e.ctx, client.ListConflictsParams{Status: store.ConflictPending})
	if err != nil {
		return nil, err
	}

	ret := []store.Conflict{}
	ids := []string{}
	for _, c := range resp.Conflicts {
		local, err := e.cacheConflict(c)
		if err != nil {
			return ret, err
		}

		ids = append(ids, c.ConflictID)
		ret = append(ret, local)
	}

	stale, err := store.StaleConflicts(e.ctx.DB, ids)
	if err != nil {
		return ret, err
	}
	for _, c := range stale {
		if err := e.convergeResolved(c); err != nil {
			// Retried on the next poll.
			log.Debug("converging conflict %s: %s\n", c.ConflictID, err)
		}
	}

	return ret, nil
}

// convergeResolved adopts the server copy of a document whose conflict was
// resolved on another device
func (e *Engine) convergeResolved(c store.Conflict) error {
	remote, err := client.GetConflict(e.ctx, c.ConflictID)
	if client.IsNotFound(err) {
		return store.MarkConflictResolved(e.ctx.DB, c.ConflictID, "")
	}
	if err != nil {
		return err
	}
	if remote.Status != store.ConflictResolved {
		return nil
	}

	doc, err := client.GetDocument(e.ctx, c.DocID)
	if err != nil {
		return err
	}

	adopted, err := store.Adopt(e.ctx.DB, ToRemote(doc))
	if err != nil {
		return err
	}
	if err := store.MarkConflictResolved(e.ctx.DB, c.ConflictID, remote.ResolutionChoice); err != nil {
		return err
	}

	e.publish(events.ConflictResolved{ConflictID: c.ConflictID, DocID: c.DocID, Choice: remote.ResolutionChoice})
	e.publish(events.DocumentReloaded{Document: adopted})

	return nil
}

// GetConflict fetches a conflict from the server
func (e *Engine) GetConflict(conflictID string) (store.Conflict, error) {
	c, err := client.GetConflict(e.ctx, conflictID)
	if err != nil {
		return store.Conflict{}, err
	}

	return ToStoreConflict(c, e.ctx.Clock.Now()), nil
}

// Resolution is the converged state returned by the server after a
// resolution
type Resolution struct {
	Document        store.Remote
	Choice          string
	AlreadyResolved bool
}

// Resolve forwards a resolution choice to the server. Content and title carry
// the local copy when the choice is local.
func (e *Engine) Resolve(conflictID, choice string, content, title *string) (Resolution, error) {
	resp, err := client.ResolveConflict(e.ctx, client.ResolveParams{
		ConflictID: conflictID,
		Choice:     choice,
		Content:    content,
		Title:      title,
		DeviceID:   e.ctx.DeviceID,
	})
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Document:        ToRemote(resp.Document),
		Choice:          resp.Conflict.ResolutionChoice,
		AlreadyResolved: resp.AlreadyResolved,
	}, nil
}

// Status fetches the sync status of the user from the server
func (e *Engine) Status() (client.StatusResp, error) {
	return client.GetStatus(e.ctx)
}

func (e *Engine) touchLastSync() error {
	return database.UpsertSystem(e.ctx.DB, consts.SystemLastSyncAt, e.ctx.Clock.Now().Unix())
}

// LocalStatus describes what the device has not synced yet
type LocalStatus struct {
	Unsynced         int
	PendingConflicts int
	Documents        int
	// LastSync is zero if the device never synced
	LastSync time.Time
}

// GetLocalStatus reads the sync status of the device from the local database
func GetLocalStatus(db *database.DB) (LocalStatus, error) {
	var ret LocalStatus

	unsynced, err := queue.Len(db)
	if err != nil {
		return ret, err
	}
	conflicts, err := store.ListConflicts(db, store.ConflictPending)
	if err != nil {
		return ret, err
	}
	docs, err := store.Count(db)
	if err != nil {
		return ret, err
	}

	var lastSync int64
	err = database.GetSystem(db, consts.SystemLastSyncAt, &lastSync)
	if err != nil && errors.Cause(err) != sql.ErrNoRows {
		return ret, err
	}

	ret.Unsynced = unsynced
	ret.PendingConflicts = len(conflicts)
	ret.Documents = docs
	if lastSync > 0 {
		ret.LastSync = time.Unix(lastSync, 0).UTC()
	}

	return ret, nil
}

// ToStoreConflict converts a server conflict into its local cache entry
func ToStoreConflict(c client.Conflict, receivedAt time.Time) store.Conflict {
	return store.Conflict{
		ConflictID:       c.ConflictID,
		DocID:            c.DocID,
		LocalVersion:     c.LocalVersion,
		CloudVersion:     c.CloudVersion,
		LocalDeviceID:    c.LocalDeviceID,
		CloudDeviceID:    c.CloudDeviceID,
		LocalTimestamp:   c.LocalTimestamp,
		CloudTimestamp:   c.CloudTimestamp,
		LocalPreview:     c.LocalPreview,
		CloudPreview:     c.CloudPreview,
		Suggested:        c.Suggested,
		Status:           c.Status,
		ResolutionChoice: c.ResolutionChoice,
		ReceivedAt:       receivedAt,
	}
}

// ToRemote converts a server document for the local store
func ToRemote(d client.Document) store.Remote {
	return store.Remote{
		DocID:      d.DocID,
		Title:      d.Title,
		Content:    d.Content,
		Version:    d.Version,
		LastEdited: d.LastEdited,
		DeviceID:   d.DeviceID,
	}
}
