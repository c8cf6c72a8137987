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

package store

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
)

// ErrConflictNotFound is returned when a conflict is not cached locally
var ErrConflictNotFound = errors.New("conflict not found")

// Conflict statuses
const (
	ConflictPending  = "pending"
	ConflictResolved = "resolved"
)

// Conflict is the local cache of a conflict record held by the server
type Conflict struct {
	ConflictID       string
	DocID            string
	LocalVersion     int
	CloudVersion     int
	LocalDeviceID    string
	CloudDeviceID    string
	LocalTimestamp   time.Time
	CloudTimestamp   time.Time
	LocalPreview     string
	CloudPreview     string
	Suggested        string
	Status           string
	ResolutionChoice string
	ReceivedAt       time.Time
}

// Pending returns true if the conflict awaits a resolution
func (c Conflict) Pending() bool {
	return c.Status == ConflictPending
}

const conflictColumns = `conflict_id, doc_id, local_version, cloud_version, local_device_id, cloud_device_id,
	local_timestamp, cloud_timestamp, local_preview, cloud_preview, suggested, status, resolution_choice, received_at`

func scanConflict(s scanner) (Conflict, error) {
	var c Conflict
	var localTS, cloudTS, receivedAt int64
	err := s.Scan(&c.ConflictID, &c.DocID, &c.LocalVersion, &c.CloudVersion, &c.LocalDeviceID, &c.CloudDeviceID,
		&localTS, &cloudTS, &c.LocalPreview, &c.CloudPreview, &c.Suggested, &c.Status, &c.ResolutionChoice, &receivedAt)
	if err != nil {
		return c, err
	}

	c.LocalTimestamp = time.Unix(0, localTS).UTC()
	c.CloudTimestamp = time.Unix(0, cloudTS).UTC()
	c.ReceivedAt = time.Unix(0, receivedAt).UTC()

	return c, nil
}

// SaveConflict caches a conflict record. A record that is already resolved
// locally stays resolved. It returns true if the conflict was not known
// before.
func SaveConflict(db *database.DB, c Conflict) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM conflicts WHERE conflict_id = ?", c.ConflictID).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "finding conflict %s", c.ConflictID)
	}

	if c.Status == "" {
		c.Status = ConflictPending
	}

	_, err := db.Exec(`INSERT INTO conflicts (`+conflictColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (conflict_id) DO UPDATE SET
			local_preview = excluded.local_preview,
			cloud_preview = excluded.cloud_preview,
			suggested = excluded.suggested,
			status = CASE WHEN conflicts.status = 'resolved' THEN conflicts.status ELSE excluded.status END,
			resolution_choice = CASE WHEN conflicts.status = 'resolved' THEN conflicts.resolution_choice ELSE excluded.resolution_choice END`,
		c.ConflictID, c.DocID, c.LocalVersion, c.CloudVersion, c.LocalDeviceID, c.CloudDeviceID,
		c.LocalTimestamp.UnixNano(), c.CloudTimestamp.UnixNano(), c.LocalPreview, c.CloudPreview, c.Suggested,
		c.Status, c.ResolutionChoice, c.ReceivedAt.UnixNano())
	if err != nil {
		return false, errors.Wrapf(err, "saving conflict %s", c.ConflictID)
	}

	return count == 0, nil
}

// GetConflict returns the cached conflict
func GetConflict(db *database.DB, conflictID string) (Conflict, error) {
	c, err := scanConflict(db.QueryRow("SELECT "+conflictColumns+" FROM conflicts WHERE conflict_id = ?", conflictID))
	if err == sql.ErrNoRows {
		return c, ErrConflictNotFound
	}
	if err != nil {
		return c, errors.Wrapf(err, "finding conflict %s", conflictID)
	}

	return c, nil
}

// ListConflicts returns the cached conflicts with the given status, oldest
// first. An empty status lists every conflict.
func ListConflicts(db *database.DB, status string) ([]Conflict, error) {
	query := "SELECT " + conflictColumns + " FROM conflicts"
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY received_at ASC, conflict_id ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying conflicts")
	}
	defer rows.Close()

	ret := []Conflict{}
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning conflict")
		}

		ret = append(ret, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating conflicts")
	}

	return ret, nil
}

// MarkConflictResolved records the resolution of a cached conflict
func MarkConflictResolved(db *database.DB, conflictID, choice string) error {
	res, err := db.Exec("UPDATE conflicts SET status = ?, resolution_choice = ? WHERE conflict_id = ?", ConflictResolved, choice, conflictID)
	if err != nil {
		return errors.Wrapf(err, "resolving conflict %s", conflictID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting resolved conflicts")
	}
	if n == 0 {
		return ErrConflictNotFound
	}

	return nil
}

// StaleConflicts returns the cached pending conflicts that are missing from
// the given list of conflicts still pending on the server. Another device
// resolved them.
func StaleConflicts(db *database.DB, pendingIDs []string) ([]Conflict, error) {
	keep := map[string]bool{}
	for _, id := range pendingIDs {
		keep[id] = true
	}

	pending, err := ListConflicts(db, ConflictPending)
	if err != nil {
		return nil, err
	}

	ret := []Conflict{}
	for _, c := range pending {
		if !keep[c.ConflictID] {
			ret = append(ret, c)
		}
	}

	return ret, nil
}
