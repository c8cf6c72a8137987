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

	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
)

// NewSessions creates a new Sessions controller
func NewSessions(app *app.App) *Sessions {
	return &Sessions{
		app: app,
	}
}

// Sessions is a session controller.
type Sessions struct {
	app *app.App
}

// Delete handles DELETE /v1/session by ending the session the request was
// authenticated with
func (s *Sessions) Delete(w http.ResponseWriter, r *http.Request) {
	key, err := mw.GetCredential(r)
	if err != nil {
		handleJSONError(w, err, "getting credentials")
		return
	}

	if err := s.app.DeleteSession(key); err != nil {
		handleJSONError(w, err, "deleting session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
