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
	"github.com/sorrowscry86/Lit-Rift/pkg/server/buildinfo"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
)

// NewHealth creates a new Health controller.
func NewHealth(app *app.App) *Health {
	return &Health{}
}

// Health is a health controller.
type Health struct {
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Index handles GET /health
func (n *Health) Index(w http.ResponseWriter, r *http.Request) {
	mw.RespondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}
