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
	"unicode/utf8"

	pkgErrors "github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/helpers"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// PushApplied means the pushed content is what the server now holds
	PushApplied = "applied"
	// PushConflict means the push diverged from the server copy
	PushConflict = "conflict"
)

// PushParams is a single document mutation sent by a device
type PushParams struct {
	DocID       string
	Title       string
	Content     string
	BaseVersion int
	DeviceID    string
	EditedAt    *time.Time
}

// PushResult is the outcome of a push
type PushResult struct {
	Status   string
	Document database.Document
	// Conflict is set when Status is PushConflict
	Conflict *database.Conflict
	// ConflictCreated is true if this push recorded a new conflict rather
	// than running into an existing pending one
	ConflictCreated bool
}

// Version returns the server version after the push
func (r PushResult) Version() int {
	return r.Document.Version
}

func validatePush(p PushParams) error {
	if p.DocID == "" {
		return ErrDocIDRequired
	}
	if p.BaseVersion < 0 {
		return ErrInvalidBaseVersion
	}

	return nil
}

// preview returns at most n characters from the start of s
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)
	return string(runes[:n])
}

// forUpdate locks the selected rows on dialects that support it. SQLite
// transactions already serialize writers.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if database.IsPostgres(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	return tx
}

func findDocument(tx *gorm.DB, userID int, docID string) (*database.Document, error) {
	var doc database.Document
	err := forUpdate(tx).Where("user_id = ? AND doc_id = ?", userID, docID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgErrors.Wrap(err, "finding document")
	}

	return &doc, nil
}

func findPendingConflict(tx *gorm.DB, userID int, docID string) (*database.Conflict, error) {
	var c database.Conflict
	err := tx.Where("user_id = ? AND document_id = ? AND status = ?", userID, docID, database.ConflictStatusPending).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgErrors.Wrap(err, "finding pending conflict")
	}

	return &c, nil
}

// PushDocument compares the pushed base version against the stored copy and
// either applies the content or records a conflict. The comparison and the
// write happen in one transaction while holding the document lock.
func (a *App) PushDocument(user database.User, p PushParams) (PushResult, error) {
	if err := validatePush(p); err != nil {
		return PushResult{}, err
	}

	unlock := a.Locks.Lock(user.ID, p.DocID)
	defer unlock()

	tx := a.DB.Begin()
	if err := tx.Error; err != nil {
		return PushResult{}, pkgErrors.Wrap(err, "beginning a transaction")
	}

	res, err := a.push(tx, user, p)
	if err != nil {
		tx.Rollback()
		return PushResult{}, err
	}

	if err := tx.Commit().Error; err != nil {
		return PushResult{}, pkgErrors.Wrap(err, "committing push")
	}

	a.touchDevice(user.ID, p.DeviceID)

	if res.ConflictCreated {
		log.WithFields(log.Fields{
			"user_id":       user.ID,
			"doc_id":        p.DocID,
			"conflict_id":   res.Conflict.UUID,
			"local_version": res.Conflict.LocalVersion,
			"cloud_version": res.Conflict.CloudVersion,
		}).Info("Recorded conflict.")

		a.notifyConflict(user.ID, *res.Conflict)
	}

	return res, nil
}

func (a *App) push(tx *gorm.DB, user database.User, p PushParams) (PushResult, error) {
	now := a.Clock.Now().UTC()
	editedAt := now
	if p.EditedAt != nil {
		editedAt = p.EditedAt.UTC()
	}

	doc, err := findDocument(tx, user.ID, p.DocID)
	if err != nil {
		return PushResult{}, err
	}

	if doc == nil {
		version := p.BaseVersion + 1
		created := database.Document{
			UserID:     user.ID,
			DocID:      p.DocID,
			Title:      p.Title,
			Content:    p.Content,
			Version:    version,
			LastEdited: editedAt,
			DeviceID:   p.DeviceID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return PushResult{}, pkgErrors.Wrap(err, "creating document")
		}

		return PushResult{Status: PushApplied, Document: created}, nil
	}

	if p.BaseVersion == doc.Version {
		doc.Title = p.Title
		doc.Content = p.Content
		doc.Version++
		doc.LastEdited = editedAt
		doc.DeviceID = p.DeviceID
		if err := tx.Save(doc).Error; err != nil {
			return PushResult{}, pkgErrors.Wrap(err, "updating document")
		}

		return PushResult{Status: PushApplied, Document: *doc}, nil
	}

	// A stale base with the content already stored is a re-send of an
	// applied push.
	if p.Content == doc.Content {
		return PushResult{Status: PushApplied, Document: *doc}, nil
	}

	existing, err := findPendingConflict(tx, user.ID, p.DocID)
	if err != nil {
		return PushResult{}, err
	}
	if existing != nil {
		return PushResult{Status: PushConflict, Document: *doc, Conflict: existing}, nil
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		return PushResult{}, err
	}

	c := database.Conflict{
		UUID:           uuid,
		UserID:         user.ID,
		DocumentID:     p.DocID,
		LocalVersion:   p.BaseVersion,
		CloudVersion:   doc.Version,
		LocalDeviceID:  p.DeviceID,
		CloudDeviceID:  doc.DeviceID,
		LocalTimestamp: editedAt,
		CloudTimestamp: doc.LastEdited,
		LocalPreview:   preview(p.Content, a.PreviewLength),
		CloudPreview:   preview(doc.Content, a.PreviewLength),
		Status:         database.ConflictStatusPending,
	}
	if err := tx.Create(&c).Error; err != nil {
		return PushResult{}, pkgErrors.Wrap(err, "creating conflict")
	}

	return PushResult{Status: PushConflict, Document: *doc, Conflict: &c, ConflictCreated: true}, nil
}

// BatchPushResult is the outcome of one document in a batch push
type BatchPushResult struct {
	DocID  string
	Result PushResult
	Err    error
}

// PushDocuments pushes each document in its own transaction. A failure on
// one document does not prevent the others from being applied.
func (a *App) PushDocuments(user database.User, params []PushParams) []BatchPushResult {
	ret := make([]BatchPushResult, 0, len(params))

	for _, p := range params {
		res, err := a.PushDocument(user, p)
		if err != nil {
			log.WithFields(log.Fields{
				"user_id": user.ID,
				"doc_id":  p.DocID,
			}).ErrorWrap(err, "pushing document in batch")
		}

		ret = append(ret, BatchPushResult{DocID: p.DocID, Result: res, Err: err})
	}

	return ret
}

// GetDocument returns the server copy of a document. It returns nil if the
// document does not exist.
func (a *App) GetDocument(userID int, docID string) (*database.Document, error) {
	var doc database.Document
	err := a.DB.Where("user_id = ? AND doc_id = ?", userID, docID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgErrors.Wrap(err, "finding document")
	}

	return &doc, nil
}

// ListDocumentsParams filters ListDocuments
type ListDocumentsParams struct {
	// UpdatedSince limits the result to documents changed after the time
	UpdatedSince *time.Time
	// SinceVersion limits the result to documents above the version
	SinceVersion int
}

// ListDocuments returns the user's documents ordered by id
func (a *App) ListDocuments(userID int, p ListDocumentsParams) ([]database.Document, error) {
	conn := a.DB.Where("user_id = ?", userID)
	if p.UpdatedSince != nil {
		conn = conn.Where("updated_at > ?", *p.UpdatedSince)
	}
	if p.SinceVersion > 0 {
		conn = conn.Where("version > ?", p.SinceVersion)
	}

	var ret []database.Document
	if err := conn.Order("doc_id ASC").Find(&ret).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "finding documents")
	}

	return ret, nil
}
