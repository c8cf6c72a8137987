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
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/clock"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"gorm.io/gorm"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptyLocks is an error for missing document locks in the app configuration
	ErrEmptyLocks = errors.New("No document locks were provided")
	// ErrInvalidPreviewLength is an error for a non-positive preview length
	ErrInvalidPreviewLength = errors.New("Preview length must be positive")
)

// Notifier is told about every newly recorded conflict
type Notifier interface {
	NotifyConflict(userID int, conflict database.Conflict)
}

// App is an application context
type App struct {
	DB            *gorm.DB
	Clock         clock.Clock
	Locks         *DocLocks
	Notifier      Notifier
	PreviewLength int
	SessionTTL    time.Duration
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.DB == nil {
		return ErrEmptyDB
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.Locks == nil {
		return ErrEmptyLocks
	}
	if a.PreviewLength <= 0 {
		return ErrInvalidPreviewLength
	}

	return nil
}

func (a *App) notifyConflict(userID int, c database.Conflict) {
	if a.Notifier == nil {
		return
	}

	a.Notifier.NotifyConflict(userID, c)
}
