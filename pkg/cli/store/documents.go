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

// Package store is the local document store of a device. Every write is
// committed together with the queue entry that will carry it to the server.
package store

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/queue"
)

var (
	// ErrNotFound is returned when a document does not exist locally
	ErrNotFound = errors.New("document not found")
	// ErrDocIDRequired is returned when saving without a document id
	ErrDocIDRequired = errors.New("doc_id is required")
)

// Document is the local copy of a document
type Document struct {
	DocID   string
	Title   string
	Content string
	// Version is the local version. It never decreases.
	Version int
	// BaseVersion is the server version this copy was last confirmed against
	BaseVersion int
	LastEdited  time.Time
	DeviceID    string
	SyncState   string
}

// Synced returns true if the server has confirmed the content of the document
func (d Document) Synced() bool {
	return d.SyncState == consts.SyncStateSynced
}

// Remote is the server copy of a document
type Remote struct {
	DocID      string
	Title      string
	Content    string
	Version    int
	LastEdited time.Time
	DeviceID   string
}

const documentColumns = "doc_id, title, content, version, base_version, last_edited, device_id, sync_state"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(s scanner) (Document, error) {
	var d Document
	var lastEdited int64
	if err := s.Scan(&d.DocID, &d.Title, &d.Content, &d.Version, &d.BaseVersion, &lastEdited, &d.DeviceID, &d.SyncState); err != nil {
		return d, err
	}
	d.LastEdited = time.Unix(0, lastEdited).UTC()

	return d, nil
}

// Load returns the local copy of the document
func Load(db *database.DB, docID string) (Document, error) {
	d, err := scanDocument(db.QueryRow("SELECT "+documentColumns+" FROM documents WHERE doc_id = ?", docID))
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, errors.Wrapf(err, "loading document %s", docID)
	}

	return d, nil
}

// List returns every local document ordered by id
func List(db *database.DB) ([]Document, error) {
	rows, err := db.Query("SELECT " + documentColumns + " FROM documents ORDER BY doc_id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	defer rows.Close()

	ret := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning document")
		}

		ret = append(ret, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating documents")
	}

	return ret, nil
}

// Count returns the number of local documents
func Count(db *database.DB) (int, error) {
	var ret int
	if err := db.QueryRow("SELECT count(*) FROM documents").Scan(&ret); err != nil {
		return 0, errors.Wrap(err, "counting documents")
	}

	return ret, nil
}

func write(db *database.DB, d Document) error {
	_, err := db.Exec(`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (doc_id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			version = excluded.version,
			base_version = excluded.base_version,
			last_edited = excluded.last_edited,
			device_id = excluded.device_id,
			sync_state = excluded.sync_state`,
		d.DocID, d.Title, d.Content, d.Version, d.BaseVersion, d.LastEdited.UnixNano(), d.DeviceID, d.SyncState)
	if err != nil {
		return errors.Wrapf(err, "writing document %s", d.DocID)
	}

	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

// SaveParams is a local edit of a document
type SaveParams struct {
	DocID    string
	Title    string
	Content  string
	DeviceID string
	Now      time.Time
}

// Save writes a local edit, bumps the local version and queues the change
// for the server, all in one transaction. A document that does not exist yet
// is created at version 1.
func Save(db *database.DB, p SaveParams) (Document, error) {
	if p.DocID == "" {
		return Document{}, ErrDocIDRequired
	}

	tx, err := db.Begin()
	if err != nil {
		return Document{}, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	doc, err := Load(tx, p.DocID)
	if err != nil && err != ErrNotFound {
		return doc, err
	}
	if err == ErrNotFound {
		doc = Document{DocID: p.DocID}
	}

	doc.Title = p.Title
	doc.Content = p.Content
	doc.Version = maxInt(doc.Version, doc.BaseVersion) + 1
	doc.LastEdited = p.Now
	doc.DeviceID = p.DeviceID
	doc.SyncState = consts.SyncStateLocalOnly

	if err := write(tx, doc); err != nil {
		return doc, err
	}
	if _, err := queue.Enqueue(tx, p.DocID, p.Title, p.Content, p.Now); err != nil {
		return doc, errors.Wrap(err, "queueing the change")
	}

	if err := tx.Commit(); err != nil {
		return doc, errors.Wrap(err, "committing transaction")
	}

	return doc, nil
}

func adopt(tx *database.DB, r Remote) (Document, error) {
	doc, err := Load(tx, r.DocID)
	if err != nil && err != ErrNotFound {
		return doc, err
	}

	doc.DocID = r.DocID
	doc.Title = r.Title
	doc.Content = r.Content
	doc.Version = maxInt(doc.Version, r.Version)
	doc.BaseVersion = r.Version
	doc.LastEdited = r.LastEdited
	doc.DeviceID = r.DeviceID
	doc.SyncState = consts.SyncStateSynced

	if err := write(tx, doc); err != nil {
		return doc, err
	}

	return doc, nil
}

// Adopt overwrites the local copy with the server copy and discards the queued
// changes of the document. The local version never goes backwards.
func Adopt(db *database.DB, r Remote) (Document, error) {
	tx, err := db.Begin()
	if err != nil {
		return Document{}, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	if err := queue.DropDocument(tx, r.DocID); err != nil {
		return Document{}, err
	}
	doc, err := adopt(tx, r)
	if err != nil {
		return doc, err
	}

	if err := tx.Commit(); err != nil {
		return doc, errors.Wrap(err, "committing transaction")
	}

	return doc, nil
}

// Refresh brings the server copy into the local store unless the document has
// local changes that are still queued, or the server copy is not newer than
// what the device already confirmed. It returns whether the copy was taken.
func Refresh(db *database.DB, r Remote) (Document, bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return Document{}, false, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	pending, err := queue.LenDocument(tx, r.DocID)
	if err != nil {
		return Document{}, false, err
	}

	local, err := Load(tx, r.DocID)
	switch {
	case err == ErrNotFound:
	case err != nil:
		return local, false, err
	case pending > 0 || !local.Synced():
		return local, false, nil
	case r.Version <= local.BaseVersion:
		return local, false, nil
	}

	doc, err := adopt(tx, r)
	if err != nil {
		return doc, false, err
	}

	if err := tx.Commit(); err != nil {
		return doc, false, errors.Wrap(err, "committing transaction")
	}

	return doc, true, nil
}

// MarkApplied records that the server applied a queued change at the given
// version. The entry is removed from the queue and the document becomes
// synced unless further changes are queued for it.
func MarkApplied(db *database.DB, entryID int64, docID string, serverVersion int) (Document, error) {
	tx, err := db.Begin()
	if err != nil {
		return Document{}, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	if err := queue.Acknowledge(tx, entryID); err != nil {
		return Document{}, err
	}

	doc, err := Load(tx, docID)
	if err != nil {
		return doc, err
	}

	pending, err := queue.LenDocument(tx, docID)
	if err != nil {
		return doc, err
	}

	doc.BaseVersion = maxInt(doc.BaseVersion, serverVersion)
	doc.Version = maxInt(doc.Version, serverVersion)
	if pending == 0 {
		doc.SyncState = consts.SyncStateSynced
	}

	if err := write(tx, doc); err != nil {
		return doc, err
	}

	if err := tx.Commit(); err != nil {
		return doc, errors.Wrap(err, "committing transaction")
	}

	return doc, nil
}
