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
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/presenters"
)

// maxBatchSize is the most documents accepted by a batch push
const maxBatchSize = 100

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{
		app: app,
	}
}

// Sync is a sync controller.
type Sync struct {
	app *app.App
}

// PushPayload is a single document mutation
type PushPayload struct {
	DocID       string     `json:"doc_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	BaseVersion int        `json:"base_version"`
	DeviceID    string     `json:"device_id"`
	EditedAt    *time.Time `json:"edited_at"`
}

func (p PushPayload) toParams(r *http.Request) app.PushParams {
	return app.PushParams{
		DocID:       p.DocID,
		Title:       p.Title,
		Content:     p.Content,
		BaseVersion: p.BaseVersion,
		DeviceID:    getDeviceID(r, p.DeviceID),
		EditedAt:    p.EditedAt,
	}
}

// Push handles POST /v1/sync/push
func (s *Sync) Push(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	var payload PushPayload
	if err := parseJSON(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	res, err := s.app.PushDocument(user, payload.toParams(r))
	if err != nil {
		handleJSONError(w, err, "pushing document")
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentPushResult(payload.DocID, res))
}

// BatchPushPayload is a batch of document mutations
type BatchPushPayload struct {
	Documents []PushPayload `json:"documents"`
}

// BatchPushResponse is the response to a batch push
type BatchPushResponse struct {
	Results   []presenters.PushResult `json:"results"`
	Synced    int                     `json:"synced"`
	Conflicts int                     `json:"conflicts"`
}

// statusError marks a document in a batch that could not be pushed
const statusError = "error"

// PushBatch handles POST /v1/sync/push/batch
func (s *Sync) PushBatch(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	var payload BatchPushPayload
	if err := parseJSON(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	if len(payload.Documents) > maxBatchSize {
		handleJSONError(w, errBadRequest{errors.Errorf("at most %d documents are accepted", maxBatchSize)}, "validating payload")
		return
	}

	params := make([]app.PushParams, 0, len(payload.Documents))
	for _, p := range payload.Documents {
		params = append(params, p.toParams(r))
	}

	resp := BatchPushResponse{Results: []presenters.PushResult{}}
	for _, item := range s.app.PushDocuments(user, params) {
		if item.Err != nil {
			msg := item.Err.Error()
			if getStatusCode(item.Err) >= 500 {
				msg = http.StatusText(http.StatusInternalServerError)
			}

			resp.Results = append(resp.Results, presenters.PushResult{DocID: item.DocID, Status: statusError, Error: msg})
			continue
		}

		resp.Results = append(resp.Results, presenters.PresentPushResult(item.DocID, item.Result))
		switch item.Result.Status {
		case app.PushApplied:
			resp.Synced++
		case app.PushConflict:
			resp.Conflicts++
		}
	}

	mw.RespondJSON(w, http.StatusOK, resp)
}

// GetDocument handles GET /v1/sync/documents/{docID}
func (s *Sync) GetDocument(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)
	docID := mux.Vars(r)["docID"]

	doc, err := s.app.GetDocument(user.ID, docID)
	if err != nil {
		handleJSONError(w, err, "finding document")
		return
	}
	if doc == nil {
		handleJSONError(w, app.ErrDocumentNotFound, docID)
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentDocument(*doc))
}

type listDocumentsQuery struct {
	Since        time.Time `schema:"since"`
	SinceVersion int       `schema:"since_version"`
}

func parseListDocumentsQuery(q url.Values) (app.ListDocumentsParams, error) {
	var query listDocumentsQuery
	if err := queryDecoder.Decode(&query, q); err != nil {
		return app.ListDocumentsParams{}, errBadRequest{errors.Wrap(err, "decoding query")}
	}
	if query.SinceVersion < 0 {
		return app.ListDocumentsParams{}, &queryParamError{
			key:     "since_version",
			value:   q.Get("since_version"),
			message: "must not be negative",
		}
	}

	ret := app.ListDocumentsParams{SinceVersion: query.SinceVersion}
	if !query.Since.IsZero() {
		ret.UpdatedSince = &query.Since
	}

	return ret, nil
}

// ListDocumentsResponse is the full sync manifest
type ListDocumentsResponse struct {
	Documents []presenters.Document `json:"documents"`
	Total     int                   `json:"total"`
}

// ListDocuments handles GET /v1/sync/documents
func (s *Sync) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	p, err := parseListDocumentsQuery(r.URL.Query())
	if err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	docs, err := s.app.ListDocuments(user.ID, p)
	if err != nil {
		handleJSONError(w, err, "listing documents")
		return
	}

	mw.RespondJSON(w, http.StatusOK, ListDocumentsResponse{
		Documents: presenters.PresentDocuments(docs),
		Total:     len(docs),
	})
}

// Status handles GET /v1/sync/status
func (s *Sync) Status(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	st, err := s.app.SyncStatus(user.ID)
	if err != nil {
		handleJSONError(w, err, "getting sync status")
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentStatus(st))
}
