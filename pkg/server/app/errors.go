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
	"github.com/pkg/errors"
)

var (
	// ErrDocIDRequired is returned for a push without a document id
	ErrDocIDRequired = errors.New("doc_id is required")
	// ErrInvalidBaseVersion is returned for a negative base version
	ErrInvalidBaseVersion = errors.New("base_version must not be negative")
	// ErrDocumentNotFound is returned when a document does not exist for the user
	ErrDocumentNotFound = errors.New("document not found")
	// ErrConflictNotFound is returned when a conflict does not exist for the user
	ErrConflictNotFound = errors.New("conflict not found")
	// ErrInvalidChoice is returned for a resolution choice other than local or cloud
	ErrInvalidChoice = errors.New("choice must be 'local' or 'cloud'")
	// ErrContentRequired is returned when a local resolution carries no content
	ErrContentRequired = errors.New("content is required to resolve with the local version")
	// ErrInvalidDeviceID is returned for a device id that is not a uuid
	ErrInvalidDeviceID = errors.New("device_id must be a uuid")
	// ErrDeviceOwnership is returned when a device id is registered to another user
	ErrDeviceOwnership = errors.New("device belongs to another user")
	// ErrEmailRequired is returned when creating a user without an email
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordTooShort is returned when a password is shorter than 8 characters
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrDuplicateEmail is returned when the email is already taken
	ErrDuplicateEmail = errors.New("duplicate email")
)
