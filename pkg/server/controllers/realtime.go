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

	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/realtime"
)

// NewRealtime creates a new Realtime controller
func NewRealtime(hub *realtime.Hub) *Realtime {
	return &Realtime{
		hub: hub,
	}
}

// Realtime serves the realtime notifier channel.
type Realtime struct {
	hub *realtime.Hub
}

// Connect handles GET /v1/sync/ws
func (rt *Realtime) Connect(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	if err := rt.hub.ServeWS(w, r, user.ID); err != nil {
		if err == realtime.ErrHubClosed {
			mw.RespondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		// The upgrader has already replied.
		log.WithFields(log.Fields{
			"user_id": user.ID,
		}).ErrorWrap(err, "serving realtime connection")
	}
}
