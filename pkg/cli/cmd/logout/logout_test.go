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

package logout

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/testutils"
	serverdb "github.com/sorrowscry86/Lit-Rift/pkg/server/database"
)

func TestDo(t *testing.T) {
	srv := testutils.NewServer(t)
	ctx := srv.NewDevice(t, "device-a")

	if err := Do(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	var count int
	database.MustScan(t, "counting session keys",
		ctx.DB.QueryRow("SELECT count(*) FROM system WHERE key = ?", consts.SystemSessionKey), &count)
	assert.Equal(t, count, 0, "session key should be deleted")

	var remote int64
	srv.App.DB.Model(&serverdb.Session{}).Where("key = ?", srv.SessionKey).Count(&remote)
	assert.Equal(t, remote, int64(0), "server session should be deleted")

	assert.Equal(t, Do(ctx), ErrNotLoggedIn, "a second logout should report not logged in")
}

func TestDo_unknownSession(t *testing.T) {
	srv := testutils.NewServer(t)
	ctx := srv.NewDevice(t, "device-a")
	testutils.Login(t, &ctx, "expired-key")

	if err := Do(ctx); err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	key, err := database.GetSystemString(ctx.DB, consts.SystemSessionKey)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting session key"))
	}
	assert.Equal(t, key, "", "session key should be deleted")
}

func TestDo_offline(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ctx.APIEndpoint = "http://127.0.0.1:1/api"
	testutils.Login(t, &ctx, "session-key")

	err := Do(ctx)
	assert.Equal(t, client.IsTransport(err), true, "an unreachable server should be a transport error")

	key, err := database.GetSystemString(ctx.DB, consts.SystemSessionKey)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting session key"))
	}
	assert.Equal(t, key, "session-key", "session key should be kept for a retry")
}
