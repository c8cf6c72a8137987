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
)

// PushResult is the response to a single push
type PushResult struct {
	DocID      string    `json:"doc_id"`
	Status     string    `json:"status"`
	Version    int       `json:"version,omitempty"`
	ConflictID string    `json:"conflict_id,omitempty"`
	Conflict   *Conflict `json:"conflict,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// PresentPushResult presents the outcome of a push. The version is the
// server version for an applied push and omitted for a conflict.
func PresentPushResult(docID string, res app.PushResult) PushResult {
	ret := PushResult{
		DocID:  docID,
		Status: res.Status,
	}

	if res.Status == app.PushApplied {
		ret.Version = res.Version()
	}
	if res.Conflict != nil {
		c := PresentConflict(*res.Conflict)
		ret.ConflictID = c.ConflictID
		ret.Conflict = &c
	}

	return ret
}

// ResolveResult is the response to a resolution
type ResolveResult struct {
	Conflict        Conflict `json:"conflict"`
	Document        Document `json:"document"`
	AlreadyResolved bool     `json:"already_resolved"`
}

// PresentResolveResult presents the converged state after a resolution
func PresentResolveResult(res app.ResolveResult) ResolveResult {
	return ResolveResult{
		Conflict:        PresentConflict(res.Conflict),
		Document:        PresentDocument(res.Document),
		AlreadyResolved: res.AlreadyResolved,
	}
}

// Status is the response of the sync status endpoint
type Status struct {
	DocumentCount int64      `json:"document_count"`
	ConflictCount int64      `json:"conflict_count"`
	LastSync      *time.Time `json:"last_sync"`
	CurrentTime   time.Time  `json:"current_time"`
}

// PresentStatus presents a sync status
func PresentStatus(s app.StatusResult) Status {
	return Status{
		DocumentCount: s.DocumentCount,
		ConflictCount: s.ConflictCount,
		LastSync:      formatTSPtr(s.LastSync),
		CurrentTime:   FormatTS(s.CurrentTime),
	}
}
