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

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
)

func newTestCtx(endpoint string) context.LitriftCtx {
	return context.LitriftCtx{
		APIEndpoint: endpoint,
		Version:     "test",
		SessionKey:  "someSessionKey",
		DeviceID:    "device-1",
		HTTPClient:  NewRateLimitedHTTPClient(2 * time.Second),
	}
}

func respondJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(errors.Wrap(err, "encoding response"))
	}
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		respondJSON(t, w, http.StatusOK, StatusResp{DocumentCount: 3})
	}))
	defer ts.Close()

	res, err := GetStatus(newTestCtx(ts.URL))
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting status"))
	}

	assert.Equal(t, res.DocumentCount, int64(3), "document count mismatch")
	assert.Equal(t, got.Get("Authorization"), "Bearer someSessionKey", "authorization header mismatch")
	assert.Equal(t, got.Get(DeviceHeader), "device-1", "device header mismatch")
	assert.Equal(t, got.Get("Client-Version"), "test", "version header mismatch")
}

func TestPushBatch(t *testing.T) {
	var payload pushBatchPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, "POST", "method mismatch")
		assert.Equal(t, r.URL.Path, "/v1/sync/push/batch", "path mismatch")
		assert.Equal(t, r.Header.Get("Content-Type"), "application/json", "content type mismatch")

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(errors.Wrap(err, "decoding payload"))
		}

		respondJSON(t, w, http.StatusOK, PushBatchResp{
			Results: []PushResult{
				{DocID: "doc-1", Status: PushApplied, Version: 2},
				{DocID: "doc-2", Status: PushConflict, ConflictID: "c1", Conflict: &Conflict{ConflictID: "c1", DocID: "doc-2"}},
			},
			Synced:    1,
			Conflicts: 1,
		})
	}))
	defer ts.Close()

	res, err := PushBatch(newTestCtx(ts.URL), []PushParams{
		{DocID: "doc-1", Content: "a", BaseVersion: 1},
		{DocID: "doc-2", Content: "b", BaseVersion: 2},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "pushing"))
	}

	assert.Equal(t, len(payload.Documents), 2, "payload size mismatch")
	assert.Equal(t, payload.Documents[1].BaseVersion, 2, "base version mismatch")
	assert.Equal(t, res.Results[0].Version, 2, "applied version mismatch")
	assert.Equal(t, res.Results[1].Conflict.ConflictID, "c1", "conflict mismatch")
}

func TestListQueries(t *testing.T) {
	var rawQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		switch r.URL.Path {
		case "/v1/sync/documents":
			respondJSON(t, w, http.StatusOK, ListDocumentsResp{Documents: []Document{}})
		case "/v1/sync/conflicts":
			respondJSON(t, w, http.StatusOK, ListConflictsResp{Conflicts: []Conflict{}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()
	ctx := newTestCtx(ts.URL)

	if _, err := ListDocuments(ctx, ListDocumentsParams{SinceVersion: 4}); err != nil {
		t.Fatal(errors.Wrap(err, "listing documents"))
	}
	assert.Equal(t, rawQuery, "since_version=4", "documents query mismatch")

	if _, err := ListConflicts(ctx, ListConflictsParams{Status: "all", DocID: "doc-1"}); err != nil {
		t.Fatal(errors.Wrap(err, "listing conflicts"))
	}
	assert.Equal(t, rawQuery, "doc_id=doc-1&status=all", "conflicts query mismatch")

	if _, err := ListConflicts(ctx, ListConflictsParams{}); err != nil {
		t.Fatal(errors.Wrap(err, "listing conflicts"))
	}
	assert.Equal(t, rawQuery, "", "empty query mismatch")
}

func TestErrors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(t, w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		}))
		defer ts.Close()

		_, err := GetStatus(newTestCtx(ts.URL))

		var he *HTTPError
		assert.Equal(t, errors.As(err, &he), true, "should be an HTTPError")
		assert.Equal(t, he.StatusCode, http.StatusUnauthorized, "status mismatch")
		assert.Equal(t, he.Message, "unauthorized", "message should come from the JSON body")
		assert.Equal(t, IsUnauthorized(err), true, "should be classified as unauthorized")
		assert.Equal(t, IsTransport(err), false, "should not be a transport error")
	})

	t.Run("not found", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(t, w, http.StatusNotFound, errorBody{Error: "conflict not found"})
		}))
		defer ts.Close()

		_, err := GetConflict(newTestCtx(ts.URL), "c1")
		assert.Equal(t, IsNotFound(err), true, "should be classified as not found")
	})

	t.Run("transport", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		_, err := GetStatus(newTestCtx(url))
		assert.Equal(t, IsTransport(err), true, "closed server should be a transport error")
		assert.Equal(t, IsUnauthorized(err), false, "should not be unauthorized")
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer ts.Close()
		defer close(release)

		ctx := newTestCtx(ts.URL)
		ctx.HTTPClient = NewRateLimitedHTTPClient(50 * time.Millisecond)

		_, err := GetStatus(ctx)
		assert.Equal(t, IsTransport(err), true, "timeout should be a transport error")
	})

	t.Run("content type", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html></html>"))
		}))
		defer ts.Close()

		_, err := GetStatus(newTestCtx(ts.URL))
		assert.Equal(t, errors.Cause(err), ErrContentTypeMismatch, "error mismatch")
	})

	t.Run("no session", func(t *testing.T) {
		ctx := newTestCtx("http://127.0.0.1:1")
		ctx.SessionKey = ""

		_, err := GetStatus(ctx)
		assert.Equal(t, errors.Cause(err), ErrNoSession, "error mismatch")
		assert.Equal(t, IsUnauthorized(err), true, "missing session should count as unauthorized")
	})
}

func TestCheckHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/health", "path mismatch")
		assert.Equal(t, r.Header.Get("Authorization"), "", "health should not need a session")
		respondJSON(t, w, http.StatusOK, HealthResp{Status: "ok"})
	}))
	defer ts.Close()

	ctx := newTestCtx(ts.URL)
	ctx.SessionKey = ""

	res, err := CheckHealth(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking health"))
	}
	assert.Equal(t, res.Status, "ok", "status mismatch")
}

func TestSignout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, "DELETE", "method mismatch")
		assert.Equal(t, r.URL.Path, "/v1/session", "path mismatch")
		assert.Equal(t, r.Header.Get("Authorization"), "Bearer someSessionKey", "authorization header mismatch")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	if err := Signout(newTestCtx(ts.URL)); err != nil {
		t.Fatal(errors.Wrap(err, "signing out"))
	}
}
