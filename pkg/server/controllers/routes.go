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

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, true},

		// v1
		{"POST", "/v1/devices", mw.Auth(a.DB, c.Devices.Register), true},
		{"DELETE", "/v1/session", mw.Auth(a.DB, c.Sessions.Delete), true},
		{"POST", "/v1/sync/push", mw.Auth(a.DB, c.Sync.Push), true},
		{"POST", "/v1/sync/push/batch", mw.Auth(a.DB, c.Sync.PushBatch), true},
		{"GET", "/v1/sync/documents", mw.Auth(a.DB, c.Sync.ListDocuments), true},
		{"GET", "/v1/sync/documents/{docID}", mw.Auth(a.DB, c.Sync.GetDocument), true},
		{"GET", "/v1/sync/conflicts", mw.Auth(a.DB, c.Conflicts.Index), true},
		{"GET", "/v1/sync/conflicts/{conflictID}", mw.Auth(a.DB, c.Conflicts.Show), true},
		{"POST", "/v1/sync/resolve", mw.Auth(a.DB, c.Conflicts.Resolve), true},
		{"GET", "/v1/sync/status", mw.Auth(a.DB, c.Sync.Status), true},
		{"GET", "/v1/sync/ws", mw.Auth(a.DB, c.Realtime.Connect), false},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, app *app.App, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, app, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, mw.APIMw, app, rc.APIRoutes)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw.RespondNotFound(w)
	})

	return mw.Global(router), nil
}
