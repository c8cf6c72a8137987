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

package testutils

import (
	"testing"

	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/controllers"
	serverdb "github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	servertestutils "github.com/sorrowscry86/Lit-Rift/pkg/server/testutils"
)

// Server is a sync server running in-process with one user
type Server struct {
	App        *app.App
	Endpoint   string
	User       serverdb.User
	SessionKey string
}

// NewServer starts a sync server backed by an in-memory database and creates
// a user with a session. The server is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Setenv("APP_ENV", "TEST")

	a := app.NewTest(t)
	server := controllers.MustNewServer(t, &a)

	user := servertestutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	session := servertestutils.SetupSession(a.DB, user)

	return &Server{
		App:        &a,
		Endpoint:   server.URL + "/api",
		User:       user,
		SessionKey: session.Key,
	}
}

// NewDevice returns the context of a device logged in to the server
func (s *Server) NewDevice(t *testing.T, deviceID string) context.LitriftCtx {
	ctx := context.InitTestCtx(t)
	s.Connect(t, &ctx, deviceID)

	return ctx
}

// Connect points the context at the server and logs it in
func (s *Server) Connect(t *testing.T, ctx *context.LitriftCtx, deviceID string) {
	ctx.APIEndpoint = s.Endpoint
	ctx.DeviceID = deviceID
	ctx.DeviceName = deviceID
	Login(t, ctx, s.SessionKey)
}

// MustGetDocument returns the server copy of a document
func (s *Server) MustGetDocument(t *testing.T, docID string) serverdb.Document {
	doc, err := s.App.GetDocument(s.User.ID, docID)
	if err != nil {
		t.Fatalf("getting server document %s: %s", docID, err)
	}
	if doc == nil {
		t.Fatalf("server document %s not found", docID)
	}

	return *doc
}

// SetupDocument stores a document on the server directly
func (s *Server) SetupDocument(t *testing.T, doc serverdb.Document) serverdb.Document {
	doc.UserID = s.User.ID

	return servertestutils.SetupDocument(s.App.DB, doc)
}

// PendingConflicts returns the conflicts pending on the server
func (s *Server) PendingConflicts(t *testing.T) []serverdb.Conflict {
	conflicts, err := s.App.ListConflicts(s.User.ID, app.ListConflictsParams{})
	if err != nil {
		t.Fatalf("listing server conflicts: %s", err)
	}

	return conflicts
}
