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
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
)

// maxBodySize caps request bodies
const maxBodySize = 8 << 20

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Time{}, func(s string) reflect.Value {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return reflect.Value{}
		}

		return reflect.ValueOf(t)
	})

	return d
}

type queryParamError struct {
	key     string
	value   string
	message string
}

func (e *queryParamError) Error() string {
	return fmt.Sprintf("invalid query param %s=%s. %s", e.key, e.value, e.message)
}

// errBadRequest marks an error caused by a malformed request
type errBadRequest struct {
	err error
}

func (e errBadRequest) Error() string {
	return e.err.Error()
}

func parseJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return errBadRequest{errors.Wrap(err, "decoding payload")}
	}

	return nil
}

func getStatusCode(err error) int {
	var badReq errBadRequest
	if errors.As(err, &badReq) {
		return http.StatusBadRequest
	}
	var qpErr *queryParamError
	if errors.As(err, &qpErr) {
		return http.StatusBadRequest
	}

	switch errors.Cause(err) {
	case app.ErrDocIDRequired,
		app.ErrInvalidBaseVersion,
		app.ErrInvalidChoice,
		app.ErrContentRequired,
		app.ErrInvalidDeviceID:
		return http.StatusBadRequest
	case app.ErrDocumentNotFound, app.ErrConflictNotFound:
		return http.StatusNotFound
	case app.ErrDeviceOwnership:
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

// handleJSONError responds with the status code that corresponds to the
// error and logs server errors
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	mw.DoError(w, msg, err, getStatusCode(err))
}

// mustGetUser returns the authenticated user. Routes using it are behind
// the auth middleware.
func mustGetUser(r *http.Request) database.User {
	user := context.User(r.Context())
	if user == nil {
		panic("no user in request context")
	}

	return *user
}

// getDeviceID returns the device id from the payload, falling back to the
// request header
func getDeviceID(r *http.Request, fromPayload string) string {
	if fromPayload != "" {
		return fromPayload
	}

	return context.DeviceID(r.Context())
}
