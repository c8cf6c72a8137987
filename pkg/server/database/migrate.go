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
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database/migrations"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"gorm.io/gorm"
)

// migrationTable records the applied migration versions
const migrationTable = "schema_migrations"

type migrationFile struct {
	filename string
	version  int
}

// parseMigrationFilename parses a filename of the form NNN-description.sql
// and returns its version.
func parseMigrationFilename(name string) (int, error) {
	base, ok := strings.CutSuffix(name, ".sql")
	if !ok {
		return 0, errors.Errorf("invalid migration filename %s: must end with .sql", name)
	}

	version, description, ok := strings.Cut(base, "-")
	if !ok || description == "" {
		return 0, errors.Errorf("invalid migration filename %s: must be NNN-description.sql", name)
	}
	if len(version) != 3 {
		return 0, errors.Errorf("invalid migration filename %s: version must be 3 digits", name)
	}

	v, err := strconv.Atoi(version)
	if err != nil || v < 0 {
		return 0, errors.Errorf("invalid migration filename %s: version must be numeric", name)
	}

	return v, nil
}

// readMigrations returns the migration files in fsys sorted by version
func readMigrations(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading migration directory")
	}

	var ret []migrationFile
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() || e.Name() == "embed.go" {
			continue
		}

		v, err := parseMigrationFilename(e.Name())
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[v]; ok {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", v, existing, e.Name())
		}
		seen[v] = e.Name()

		ret = append(ret, migrationFile{filename: e.Name(), version: v})
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].version < ret[j].version
	})

	return ret, nil
}

// Migrate applies the embedded SQL migrations that have not run yet
func Migrate(db *gorm.DB) error {
	return migrate(db, migrations.Files)
}

func migrate(db *gorm.DB, fsys fs.FS) error {
	if err := db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, migrationTable)).Error; err != nil {
		return errors.Wrap(err, "initializing migration table")
	}

	var current int
	if err := db.Raw(fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", migrationTable)).Scan(&current).Error; err != nil {
		return errors.Wrap(err, "reading current version")
	}

	files, err := readMigrations(fsys)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": current,
		"files":   len(files),
	}).Info("Database schema version.")

	for _, m := range files {
		if m.version <= current {
			continue
		}

		body, err := fs.ReadFile(fsys, m.filename)
		if err != nil {
			return errors.Wrapf(err, "reading migration file %s", m.filename)
		}
		if strings.TrimSpace(string(body)) == "" {
			return errors.Errorf("migration file %s is empty", m.filename)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(body)).Error; err != nil {
				return errors.Wrapf(err, "running migration %s", m.filename)
			}
			if err := tx.Exec(fmt.Sprintf("INSERT INTO %s (version) VALUES (?)", migrationTable), m.version).Error; err != nil {
				return errors.Wrapf(err, "recording migration %s", m.filename)
			}

			return nil
		})
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"file": m.filename,
		}).Info("Applied migration.")
	}

	return nil
}
