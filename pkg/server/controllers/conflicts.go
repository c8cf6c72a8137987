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

package controllers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/helpers"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/presenters"
)

// NewConflicts creates a new Conflicts controller
func NewConflicts(app *app.App) *Conflicts {
	return &Conflicts{
		app: app,
	}
}

// Conflicts is a conflict controller.
type Conflicts struct {
	app *app.App
}

type listConflictsQuery struct {
	Status string `schema:"status"`
	DocID  string `schema:"doc_id"`
}

func parseListConflictsQuery(q url.Values) (app.ListConflictsParams, error) {
	var query listConflictsQuery
	if err := queryDecoder.Decode(&query, q); err != nil {
		return app.ListConflictsParams{}, errBadRequest{errors.Wrap(err, "decoding query")}
	}

	switch query.Status {
	case "", database.ConflictStatusPending, database.ConflictStatusResolved, app.ConflictStatusAll:
	default:
		return app.ListConflictsParams{}, &queryParamError{
			key:     "status",
			value:   query.Status,
			message: "must be one of pending, resolved, all",
		}
	}

	return app.ListConflictsParams{Status: query.Status, DocID: query.DocID}, nil
}

// ListConflictsResponse is the response of the conflict list
type ListConflictsResponse struct {
	Conflicts []presenters.Conflict `json:"conflicts"`
	Total     int                   `json:"total"`
}

// Index handles GET /v1/sync/conflicts
func (c *Conflicts) Index(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	p, err := parseListConflictsQuery(r.URL.Query())
	if err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	conflicts, err := c.app.ListConflicts(user.ID, p)
	if err != nil {
		handleJSONError(w, err, "listing conflicts")
		return
	}

	mw.RespondJSON(w, http.StatusOK, ListConflictsResponse{
		Conflicts: presenters.PresentConflicts(conflicts),
		Total:     len(conflicts),
	})
}

// Show handles GET /v1/sync/conflicts/{conflictID}
func (c *Conflicts) Show(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)
	conflictID := mux.Vars(r)["conflictID"]

	if !helpers.ValidateUUID(conflictID) {
		handleJSONError(w, app.ErrConflictNotFound, conflictID)
		return
	}

	conflict, err := c.app.GetConflict(user.ID, conflictID)
	if err != nil {
		handleJSONError(w, err, "finding conflict")
		return
	}
	if conflict == nil {
		handleJSONError(w, app.ErrConflictNotFound, conflictID)
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentConflict(*conflict))
}

// ResolvePayload is a user's decision on a conflict
type ResolvePayload struct {
	ConflictID string  `json:"conflict_id"`
	Choice     string  `json:"choice"`
	Content    *string `json:"content"`
	Title      *string `json:"title"`
	DeviceID   string  `json:"device_id"`
}

// Resolve handles POST /v1/sync/resolve
func (c *Conflicts) Resolve(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	var payload ResolvePayload
	if err := parseJSON(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	res, err := c.app.ResolveConflict(user, app.ResolveParams{
		ConflictID: payload.ConflictID,
		Choice:     payload.Choice,
		Content:    payload.Content,
		Title:      payload.Title,
		DeviceID:   getDeviceID(r, payload.DeviceID),
	})
	if err != nil {
		handleJSONError(w, err, "resolving conflict")
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentResolveResult(res))
}
