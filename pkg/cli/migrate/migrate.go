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

// Package migrate runs the schema migrations of the local database
package migrate

import (
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
)

// TableName is the table recording the applied migrations
const TableName = "migrations"

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-create-documents",
			Up: []string{
				`CREATE TABLE documents (
					doc_id text PRIMARY KEY,
					title text NOT NULL DEFAULT '',
					content text NOT NULL DEFAULT '',
					version integer NOT NULL DEFAULT 0,
					base_version integer NOT NULL DEFAULT 0,
					last_edited integer NOT NULL,
					device_id text NOT NULL DEFAULT '',
					sync_state text NOT NULL DEFAULT 'local-only'
				)`,
				`CREATE TABLE system (
					key text PRIMARY KEY,
					value text NOT NULL
				)`,
			},
			Down: []string{
				"DROP TABLE system",
				"DROP TABLE documents",
			},
		},
		{
			Id: "2-create-sync-queue",
			Up: []string{
				`CREATE TABLE sync_queue (
					id integer PRIMARY KEY AUTOINCREMENT,
					doc_id text NOT NULL,
					title text NOT NULL DEFAULT '',
					content text NOT NULL DEFAULT '',
					enqueued_at integer NOT NULL,
					in_flight boolean NOT NULL DEFAULT false,
					attempts integer NOT NULL DEFAULT 0,
					last_error text NOT NULL DEFAULT ''
				)`,
				"CREATE INDEX idx_sync_queue_doc_id ON sync_queue(doc_id)",
			},
			Down: []string{
				"DROP TABLE sync_queue",
			},
		},
		{
			Id: "3-create-conflicts",
			Up: []string{
				`CREATE TABLE conflicts (
					conflict_id text PRIMARY KEY,
					doc_id text NOT NULL,
					local_version integer NOT NULL,
					cloud_version integer NOT NULL,
					local_device_id text NOT NULL DEFAULT '',
					cloud_device_id text NOT NULL DEFAULT '',
					local_timestamp integer NOT NULL,
					cloud_timestamp integer NOT NULL,
					local_preview text NOT NULL DEFAULT '',
					cloud_preview text NOT NULL DEFAULT '',
					suggested text NOT NULL DEFAULT '',
					status text NOT NULL DEFAULT 'pending',
					resolution_choice text NOT NULL DEFAULT '',
					received_at integer NOT NULL
				)`,
				"CREATE INDEX idx_conflicts_doc_id_status ON conflicts(doc_id, status)",
			},
			Down: []string{
				"DROP TABLE conflicts",
			},
		},
	},
}

func newSet() *migrate.MigrationSet {
	return &migrate.MigrationSet{TableName: TableName}
}

// Run applies the pending migrations and returns how many were applied
func Run(db *database.DB) (int, error) {
	n, err := newSet().Exec(db.Conn, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "applying migrations")
	}

	return n, nil
}

// Pending returns the ids of the migrations not yet applied
func Pending(db *database.DB) ([]string, error) {
	planned, _, err := newSet().PlanMigration(db.Conn, "sqlite3", migrations, migrate.Up, 0)
	if err != nil {
		return nil, errors.Wrap(err, "planning migrations")
	}

	ret := []string{}
	for _, m := range planned {
		ret = append(ret, m.Id)
	}

	return ret, nil
}

// Count returns the number of migrations known to this build
func Count() int {
	return len(migrations.Migrations)
}
