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

package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
)

// ErrMalformedAuthorization is returned for an Authorization header that is
// not a bearer credential
var ErrMalformedAuthorization = errors.New("malformed authorization header")

// ErrorResponse is the JSON body of a failed API request
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes the JSON encoding of v with the given status
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// RespondError writes a JSON error body with the given status
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// DoError logs the error and responds with the given status. Details of
// internal errors are not sent to the client.
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	var message string
	if err == nil {
		message = msg
	} else {
		message = errors.Wrap(err, msg).Error()
	}

	if statusCode >= 500 {
		log.WithFields(log.Fields{
			"statusCode": statusCode,
		}).Error(message)

		RespondError(w, statusCode, http.StatusText(statusCode))
		return
	}

	RespondError(w, statusCode, message)
}

// RespondUnauthorized responds with 401 unauthorized
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Bearer realm="LitRift"`)
	RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
}

// RespondNotFound responds with 404 not found
func RespondNotFound(w http.ResponseWriter) {
	RespondError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func getSessionKeyFromAuth(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}

// getSessionKeyFromQuery reads the key passed as a query parameter. Browser
// websocket clients cannot set headers on the upgrade request.
func getSessionKeyFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

// GetCredential extracts a session key from the request. The Authorization
// header takes precedence over the query parameter.
func GetCredential(r *http.Request) (string, error) {
	key, err := getSessionKeyFromAuth(r)
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}

	return getSessionKeyFromQuery(r), nil
}
