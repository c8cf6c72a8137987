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
	"errors"
	"time"

	pkgErrors "github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"gorm.io/gorm"
)

// ConflictStatusAll lists conflicts regardless of status
const ConflictStatusAll = "all"

// ListConflictsParams filters ListConflicts
type ListConflictsParams struct {
	// Status is pending, resolved or all. Empty means pending.
	Status string
	DocID  string
}

// ListConflicts returns the user's conflicts, oldest first
func (a *App) ListConflicts(userID int, p ListConflictsParams) ([]database.Conflict, error) {
	conn := a.DB.Where("user_id = ?", userID)

	switch p.Status {
	case "", database.ConflictStatusPending:
		conn = conn.Where("status = ?", database.ConflictStatusPending)
	case database.ConflictStatusResolved:
		conn = conn.Where("status = ?", database.ConflictStatusResolved)
	case ConflictStatusAll:
	default:
		return nil, pkgErrors.Errorf("unknown conflict status '%s'", p.Status)
	}

	if p.DocID != "" {
		conn = conn.Where("document_id = ?", p.DocID)
	}

	var ret []database.Conflict
	if err := conn.Order("created_at ASC, id ASC").Find(&ret).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "finding conflicts")
	}

	return ret, nil
}

// GetConflict returns the user's conflict with the given id. It returns nil
// if there is no such conflict.
func (a *App) GetConflict(userID int, conflictID string) (*database.Conflict, error) {
	return findConflict(a.DB, userID, conflictID, false)
}

func findConflict(tx *gorm.DB, userID int, conflictID string, lock bool) (*database.Conflict, error) {
	conn := tx
	if lock {
		conn = forUpdate(tx)
	}

	var c database.Conflict
	err := conn.Where("user_id = ? AND uuid = ?", userID, conflictID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgErrors.Wrap(err, "finding conflict")
	}

	return &c, nil
}

// ResolveParams is a user's decision on a conflict
type ResolveParams struct {
	ConflictID string
	Choice     string
	// Content and Title carry the device's copy when Choice is local
	Content  *string
	Title    *string
	DeviceID string
}

// ResolveResult is the converged state after a resolution
type ResolveResult struct {
	Conflict database.Conflict
	Document database.Document
	// AlreadyResolved is true if the conflict had been resolved before
	AlreadyResolved bool
}

func validateResolve(p ResolveParams) error {
	switch p.Choice {
	case database.ChoiceLocal:
		if p.Content == nil {
			return ErrContentRequired
		}
	case database.ChoiceCloud:
	default:
		return ErrInvalidChoice
	}

	return nil
}

func maxInt(vals ...int) int {
	ret := vals[0]
	for _, v := range vals[1:] {
		if v > ret {
			ret = v
		}
	}

	return ret
}

// ResolveConflict applies the chosen side and marks the conflict resolved.
// Resolving a conflict that is already resolved succeeds without changes.
func (a *App) ResolveConflict(user database.User, p ResolveParams) (ResolveResult, error) {
	if err := validateResolve(p); err != nil {
		return ResolveResult{}, err
	}

	c, err := a.GetConflict(user.ID, p.ConflictID)
	if err != nil {
		return ResolveResult{}, err
	}
	if c == nil {
		return ResolveResult{}, ErrConflictNotFound
	}

	unlock := a.Locks.Lock(user.ID, c.DocumentID)
	defer unlock()

	tx := a.DB.Begin()
	if err := tx.Error; err != nil {
		return ResolveResult{}, pkgErrors.Wrap(err, "beginning a transaction")
	}

	res, err := a.resolve(tx, user, p)
	if err != nil {
		tx.Rollback()
		return ResolveResult{}, err
	}

	if err := tx.Commit().Error; err != nil {
		return ResolveResult{}, pkgErrors.Wrap(err, "committing resolution")
	}

	if !res.AlreadyResolved {
		log.WithFields(log.Fields{
			"user_id":     user.ID,
			"doc_id":      res.Conflict.DocumentID,
			"conflict_id": res.Conflict.UUID,
			"choice":      res.Conflict.ResolutionChoice,
			"version":     res.Document.Version,
		}).Info("Resolved conflict.")
	}

	return res, nil
}

func (a *App) resolve(tx *gorm.DB, user database.User, p ResolveParams) (ResolveResult, error) {
	c, err := findConflict(tx, user.ID, p.ConflictID, true)
	if err != nil {
		return ResolveResult{}, err
	}
	if c == nil {
		return ResolveResult{}, ErrConflictNotFound
	}

	doc, err := findDocument(tx, user.ID, c.DocumentID)
	if err != nil {
		return ResolveResult{}, err
	}
	if doc == nil {
		return ResolveResult{}, pkgErrors.Wrapf(ErrDocumentNotFound, "conflict %s", c.UUID)
	}

	if !c.IsPending() {
		return ResolveResult{Conflict: *c, Document: *doc, AlreadyResolved: true}, nil
	}

	now := a.Clock.Now().UTC()

	if p.Choice == database.ChoiceLocal {
		doc.Content = *p.Content
		if p.Title != nil {
			doc.Title = *p.Title
		}
		doc.Version = maxInt(c.LocalVersion, c.CloudVersion, doc.Version) + 1
		doc.LastEdited = now
		doc.DeviceID = c.LocalDeviceID
		if p.DeviceID != "" {
			doc.DeviceID = p.DeviceID
		}

		if err := tx.Save(doc).Error; err != nil {
			return ResolveResult{}, pkgErrors.Wrap(err, "promoting local content")
		}
	}

	c.Status = database.ConflictStatusResolved
	c.ResolutionChoice = p.Choice
	c.ResolvedAt = &now
	if err := tx.Save(c).Error; err != nil {
		return ResolveResult{}, pkgErrors.Wrap(err, "marking conflict resolved")
	}

	return ResolveResult{Conflict: *c, Document: *doc}, nil
}

// SuggestedChoice returns the side with the later edit timestamp. It is a
// display hint and never used to resolve.
func SuggestedChoice(c database.Conflict) string {
	if c.CloudTimestamp.After(c.LocalTimestamp) {
		return database.ChoiceCloud
	}

	return database.ChoiceLocal
}

// StatusResult summarizes a user's sync state
type StatusResult struct {
	DocumentCount int64
	ConflictCount int64
	LastSync      *time.Time
	CurrentTime   time.Time
}

// SyncStatus returns the user's document and pending conflict counts and the
// most recent sync across the user's devices
func (a *App) SyncStatus(userID int) (StatusResult, error) {
	ret := StatusResult{CurrentTime: a.Clock.Now().UTC()}

	if err := a.DB.Model(&database.Document{}).Where("user_id = ?", userID).Count(&ret.DocumentCount).Error; err != nil {
		return ret, pkgErrors.Wrap(err, "counting documents")
	}
	if err := a.DB.Model(&database.Conflict{}).
		Where("user_id = ? AND status = ?", userID, database.ConflictStatusPending).
		Count(&ret.ConflictCount).Error; err != nil {
		return ret, pkgErrors.Wrap(err, "counting conflicts")
	}

	var device database.Device
	err := a.DB.Where("user_id = ? AND last_sync_at IS NOT NULL", userID).Order("last_sync_at DESC").First(&device).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ret, pkgErrors.Wrap(err, "finding last sync")
	}
	if err == nil {
		ret.LastSync = device.LastSyncAt
	}

	return ret, nil
}
