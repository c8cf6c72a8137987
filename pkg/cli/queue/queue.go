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

// Package queue persists the local changes waiting to be pushed to the server.
// Entries survive restarts and are removed only once the server has answered
// for them.
package queue

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
)

// Entry is a queued document mutation
type Entry struct {
	ID         int64
	DocID      string
	Title      string
	Content    string
	EnqueuedAt time.Time
	InFlight   bool
	Attempts   int
	LastError  string
}

const entryColumns = "id, doc_id, title, content, enqueued_at, in_flight, attempts, last_error"

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	ret := []Entry{}
	for rows.Next() {
		var e Entry
		var enqueuedAt int64
		if err := rows.Scan(&e.ID, &e.DocID, &e.Title, &e.Content, &enqueuedAt, &e.InFlight, &e.Attempts, &e.LastError); err != nil {
			return nil, errors.Wrap(err, "scanning queue entry")
		}
		e.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()

		ret = append(ret, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating queue entries")
	}

	return ret, nil
}

// Enqueue records a change of a document. If the document already has an
// entry that is not in flight, that entry takes the new content and keeps its
// place in the queue. It returns the id of the entry holding the change.
// Callers run it inside the transaction that writes the document.
func Enqueue(db *database.DB, docID, title, content string, now time.Time) (int64, error) {
	var id int64
	err := db.QueryRow("SELECT id FROM sync_queue WHERE doc_id = ? AND in_flight = false ORDER BY id DESC LIMIT 1", docID).Scan(&id)
	if err != nil && err != sql.ErrNoRows {
		return 0, errors.Wrapf(err, "finding queued entry for %s", docID)
	}

	if err == nil {
		res, err := db.Exec("UPDATE sync_queue SET title = ?, content = ? WHERE id = ? AND in_flight = false", title, content, id)
		if err != nil {
			return 0, errors.Wrapf(err, "coalescing queue entry %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.Wrap(err, "counting coalesced entries")
		}
		if n == 1 {
			return id, nil
		}
	}

	res, err := db.Exec("INSERT INTO sync_queue (doc_id, title, content, enqueued_at) VALUES (?, ?, ?, ?)",
		docID, title, content, now.UnixNano())
	if err != nil {
		return 0, errors.Wrapf(err, "inserting queue entry for %s", docID)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "getting the entry id")
	}

	return id, nil
}

// DrainBatch claims up to n of the oldest entries and marks them in flight.
// Documents that already have an entry in flight are skipped so that the
// changes of a document reach the server in order.
func DrainBatch(db *database.DB, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT `+entryColumns+` FROM sync_queue
		WHERE in_flight = false
		AND doc_id NOT IN (SELECT doc_id FROM sync_queue WHERE in_flight = true)
		ORDER BY id ASC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying queue entries")
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if _, err := tx.Exec("UPDATE sync_queue SET in_flight = true, attempts = attempts + 1 WHERE id = ?", entries[i].ID); err != nil {
			return nil, errors.Wrapf(err, "claiming queue entry %d", entries[i].ID)
		}

		entries[i].InFlight = true
		entries[i].Attempts++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	return entries, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []interface{} {
	ret := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, id)
	}

	return ret
}

// Acknowledge removes entries the server has answered for
func Acknowledge(db *database.DB, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := db.Exec("DELETE FROM sync_queue WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...); err != nil {
		return errors.Wrap(err, "deleting acknowledged entries")
	}

	return nil
}

// Release returns in-flight entries to the queue after a failed push. An entry
// is dropped instead if a newer change of the same document was queued while
// it was in flight.
func Release(db *database.DB, ids []int64, cause error) error {
	if len(ids) == 0 {
		return nil
	}

	var msg string
	if cause != nil {
		msg = cause.Error()
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	in := placeholders(len(ids))
	args := idArgs(ids)

	_, err = tx.Exec(`DELETE FROM sync_queue WHERE id IN (`+in+`) AND EXISTS (
		SELECT 1 FROM sync_queue AS newer
		WHERE newer.doc_id = sync_queue.doc_id AND newer.in_flight = false AND newer.id > sync_queue.id
	)`, args...)
	if err != nil {
		return errors.Wrap(err, "dropping superseded entries")
	}

	if _, err := tx.Exec("UPDATE sync_queue SET in_flight = false, last_error = ? WHERE id IN ("+in+")", append([]interface{}{msg}, args...)...); err != nil {
		return errors.Wrap(err, "releasing entries")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// DropDocument removes every entry of a document
func DropDocument(db *database.DB, docID string) error {
	if _, err := db.Exec("DELETE FROM sync_queue WHERE doc_id = ?", docID); err != nil {
		return errors.Wrapf(err, "dropping queue entries of %s", docID)
	}

	return nil
}

// Len returns the number of queued entries
func Len(db *database.DB) (int, error) {
	var ret int
	if err := db.QueryRow("SELECT count(*) FROM sync_queue").Scan(&ret); err != nil {
		return 0, errors.Wrap(err, "counting queue entries")
	}

	return ret, nil
}

// LenDocument returns the number of queued entries of a document
func LenDocument(db *database.DB, docID string) (int, error) {
	var ret int
	if err := db.QueryRow("SELECT count(*) FROM sync_queue WHERE doc_id = ?", docID).Scan(&ret); err != nil {
		return 0, errors.Wrapf(err, "counting queue entries of %s", docID)
	}

	return ret, nil
}

// List returns every entry in queue order
func List(db *database.DB) ([]Entry, error) {
	rows, err := db.Query("SELECT " + entryColumns + " FROM sync_queue ORDER BY id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying queue entries")
	}

	return scanEntries(rows)
}

// Recover clears the in-flight markers left by a process that stopped in the
// middle of a push, so that those entries are sent again. When that leaves a
// document with more than one entry, only the newest is kept. It returns the
// number of entries put back in the queue.
func Recover(db *database.DB) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE sync_queue SET in_flight = false WHERE in_flight = true")
	if err != nil {
		return 0, errors.Wrap(err, "clearing in-flight markers")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting recovered entries")
	}

	_, err = tx.Exec(`DELETE FROM sync_queue WHERE id NOT IN (
		SELECT max(id) FROM sync_queue GROUP BY doc_id
	)`)
	if err != nil {
		return 0, errors.Wrap(err, "dropping superseded entries")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing transaction")
	}

	return int(n), nil
}
