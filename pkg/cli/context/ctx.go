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

// Package context defines the litrift runtime context
package context

import (
	"net/http"
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/clock"
	"github.com/sorrowscry86/Lit-Rift/pkg/dirs"
)

// Paths contain the base directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// App returns the application directories under the base directories
func (p Paths) App() dirs.App {
	return dirs.NewApp(p.Config, p.Data, p.Cache)
}

// LitriftCtx is a context holding the information of the current runtime
type LitriftCtx struct {
	Paths       Paths
	APIEndpoint string
	Version     string
	DB          *database.DB
	SessionKey  string
	DeviceID    string
	DeviceName  string
	Editor      string

	SyncInterval         time.Duration
	ConflictPollInterval time.Duration
	RequestTimeout       time.Duration
	Realtime             bool
	BatchSize            int

	Clock      clock.Clock
	HTTPClient *http.Client
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx LitriftCtx) LitriftCtx {
	var sessionKey string
	if ctx.SessionKey != "" {
		sessionKey = "1"
	} else {
		sessionKey = "0"
	}
	ctx.SessionKey = sessionKey

	return ctx
}
