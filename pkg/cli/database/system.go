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

package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// GetSystem scans the value of the system entry with the given key into dest.
// It returns sql.ErrNoRows, wrapped, if the key is not set.
func GetSystem(db *DB, key string, dest interface{}) error {
	if err := db.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest); err != nil {
		return errors.Wrapf(err, "finding system configuration record %s", key)
	}

	return nil
}

// UpsertSystem sets the system entry with the given key
func UpsertSystem(db *DB, key string, val interface{}) error {
	_, err := db.Exec(`INSERT INTO system (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, val)
	if err != nil {
		return errors.Wrapf(err, "saving system config %s", key)
	}

	return nil
}

// DeleteSystem deletes the system entry with the given key
func DeleteSystem(db *DB, key string) error {
	if _, err := db.Exec("DELETE FROM system WHERE key = ?", key); err != nil {
		return errors.Wrapf(err, "deleting system config %s", key)
	}

	return nil
}

// GetSystemString returns the value of the given key, or an empty string if
// it is not set
func GetSystemString(db *DB, key string) (string, error) {
	var ret string
	err := GetSystem(db, key, &ret)
	if errors.Cause(err) == sql.ErrNoRows {
		return "", nil
	}

	return ret, err
}
