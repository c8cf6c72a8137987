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

// Package validate checks user input before it reaches the store
package validate

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// MaxDocIDLength is the longest document id accepted
const MaxDocIDLength = 255

var (
	// ErrDocIDEmpty is an error for an empty document id
	ErrDocIDEmpty = errors.New("The document id is empty")
	// ErrDocIDTooLong is an error for a document id over MaxDocIDLength bytes
	ErrDocIDTooLong = errors.New("The document id is too long")
	// ErrDocIDHasSlash is an error for a document id containing a slash
	ErrDocIDHasSlash = errors.New("The document id cannot contain '/'")
	// ErrDocIDHasSpace is an error for a document id with leading or trailing spaces
	ErrDocIDHasSpace = errors.New("The document id cannot start or end with a space")
	// ErrDocIDHasControl is an error for a document id with line breaks or other control characters
	ErrDocIDHasControl = errors.New("The document id cannot contain control characters")
)

// DocID validates a document id
func DocID(id string) error {
	if id == "" {
		return ErrDocIDEmpty
	}

	if len(id) > MaxDocIDLength {
		return ErrDocIDTooLong
	}

	if strings.Contains(id, "/") {
		return ErrDocIDHasSlash
	}

	if strings.TrimSpace(id) != id {
		return ErrDocIDHasSpace
	}

	if strings.IndexFunc(id, unicode.IsControl) != -1 {
		return ErrDocIDHasControl
	}

	return nil
}
