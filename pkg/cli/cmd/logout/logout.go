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
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/spf13/cobra"
)

// ErrNotLoggedIn is an error for logging out when not logged in
var ErrNotLoggedIn = errors.New("not logged in")

var example = `
  litrift logout`

// NewCmd returns a new logout command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Logout from the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do ends the session on the server and clears the session key. A session
// the server no longer knows is cleared locally all the same. Queued changes
// stay in the queue and are pushed after the next login.
func Do(ctx context.LitriftCtx) error {
	key, err := database.GetSystemString(ctx.DB, consts.SystemSessionKey)
	if err != nil {
		return errors.Wrap(err, "getting session key")
	}
	if key == "" {
		return ErrNotLoggedIn
	}

	ctx.SessionKey = key
	if err := client.Signout(ctx); err != nil && !client.IsUnauthorized(err) {
		return errors.Wrap(err, "requesting logout")
	}

	if err := database.DeleteSystem(ctx.DB, consts.SystemSessionKey); err != nil {
		return errors.Wrap(err, "deleting session key")
	}

	return nil
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := Do(ctx)
		if err == ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
