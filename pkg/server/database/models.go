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
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for a user
type User struct {
	Model
	UUID     string `json:"uuid" gorm:"type:text;uniqueIndex"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"`
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"index"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// Device is a client installation that pushes documents for a user
type Device struct {
	Model
	UUID       string `gorm:"type:text;uniqueIndex"`
	UserID     int    `gorm:"index"`
	Name       string
	AppVersion string
	LastSyncAt *time.Time
}

// Document is the server's authoritative copy of a document
type Document struct {
	Model
	UserID     int    `gorm:"uniqueIndex:idx_documents_user_doc"`
	DocID      string `gorm:"type:text;uniqueIndex:idx_documents_user_doc"`
	Title      string
	Content    string
	Version    int `gorm:"not null;default:0"`
	LastEdited time.Time
	DeviceID   string `gorm:"type:text"`
}

// Conflict records two divergent edits to the same document. Rows are never
// deleted; resolution only changes the status.
type Conflict struct {
	Model
	UUID             string `gorm:"type:text;uniqueIndex"`
	UserID           int    `gorm:"index"`
	DocumentID       string `gorm:"type:text;index"`
	LocalVersion     int
	CloudVersion     int
	LocalDeviceID    string
	CloudDeviceID    string
	LocalTimestamp   time.Time
	CloudTimestamp   time.Time
	LocalPreview     string
	CloudPreview     string
	Status           string `gorm:"type:text;not null;default:pending"`
	ResolutionChoice string
	ResolvedAt       *time.Time
}

// IsPending returns true if the conflict still awaits resolution
func (c Conflict) IsPending() bool {
	return c.Status == ConflictStatusPending
}
