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

// Package realtime pushes sync events to connected devices over websockets
package realtime

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
)

// Message types
const (
	TypeJoin     = "join"
	TypeJoined   = "joined"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeConflict = "sync:conflict"
	TypeError    = "error"
)

// Envelope wraps every message on the channel
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConflictPayload is the payload of a sync:conflict event
type ConflictPayload struct {
	ConflictID     string    `json:"conflict_id"`
	DocID          string    `json:"doc_id"`
	LocalVersion   int       `json:"local_version"`
	CloudVersion   int       `json:"cloud_version"`
	LocalDevice    string    `json:"local_device"`
	CloudDevice    string    `json:"cloud_device"`
	LocalTimestamp time.Time `json:"local_timestamp"`
	CloudTimestamp time.Time `json:"cloud_timestamp"`
}

// JoinedPayload acknowledges a join
type JoinedPayload struct {
	Room string `json:"room"`
}

// NewConflictPayload builds the event payload for a conflict record
func NewConflictPayload(c database.Conflict) ConflictPayload {
	return ConflictPayload{
		ConflictID:     c.UUID,
		DocID:          c.DocumentID,
		LocalVersion:   c.LocalVersion,
		CloudVersion:   c.CloudVersion,
		LocalDevice:    c.LocalDeviceID,
		CloudDevice:    c.CloudDeviceID,
		LocalTimestamp: c.LocalTimestamp.UTC(),
		CloudTimestamp: c.CloudTimestamp.UTC(),
	}
}

// NewEnvelope encodes the payload into an envelope of the given type
func NewEnvelope(typ string, payload interface{}) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: typ}, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "marshalling %s payload", typ)
	}

	return Envelope{Type: typ, Payload: b}, nil
}
