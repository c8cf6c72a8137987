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

package presenters

import (
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
)

// Conflict is a result of PresentConflict
type Conflict struct {
	ConflictID       string     `json:"conflict_id"`
	DocID            string     `json:"doc_id"`
	LocalVersion     int        `json:"local_version"`
	CloudVersion     int        `json:"cloud_version"`
	LocalDeviceID    string     `json:"local_device_id"`
	CloudDeviceID    string     `json:"cloud_device_id"`
	LocalTimestamp   time.Time  `json:"local_timestamp"`
	CloudTimestamp   time.Time  `json:"cloud_timestamp"`
	LocalPreview     string     `json:"local_preview"`
	CloudPreview     string     `json:"cloud_preview"`
	Status           string     `json:"status"`
	ResolutionChoice string     `json:"resolution_choice,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	Suggested        string     `json:"suggested"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PresentConflict presents a conflict record
func PresentConflict(c database.Conflict) Conflict {
	return Conflict{
		ConflictID:       c.UUID,
		DocID:            c.DocumentID,
		LocalVersion:     c.LocalVersion,
		CloudVersion:     c.CloudVersion,
		LocalDeviceID:    c.LocalDeviceID,
		CloudDeviceID:    c.CloudDeviceID,
		LocalTimestamp:   FormatTS(c.LocalTimestamp),
		CloudTimestamp:   FormatTS(c.CloudTimestamp),
		LocalPreview:     c.LocalPreview,
		CloudPreview:     c.CloudPreview,
		Status:           c.Status,
		ResolutionChoice: c.ResolutionChoice,
		ResolvedAt:       formatTSPtr(c.ResolvedAt),
		Suggested:        app.SuggestedChoice(c),
		CreatedAt:        FormatTS(c.CreatedAt),
	}
}

// PresentConflicts presents conflict records
func PresentConflicts(conflicts []database.Conflict) []Conflict {
	ret := []Conflict{}

	for _, c := range conflicts {
		ret = append(ret, PresentConflict(c))
	}

	return ret
}
