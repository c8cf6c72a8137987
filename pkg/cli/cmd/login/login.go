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

package login

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/ui"
	"github.com/spf13/cobra"
)

// ErrInvalidToken is returned when the server rejects the session key
var ErrInvalidToken = errors.New("the server rejected the token")

var example = `
  litrift login

  * Skip the prompt
  litrift login --token <session key>`

var tokenFlag string
var apiEndpointFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the sync server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&tokenFlag, "token", "t", "", "the session key printed by 'litrift-server user create'")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Do registers the device with the session key and stores the key once the
// server accepts it
func Do(ctx context.LitriftCtx, token string) error {
	ctx.SessionKey = token

	err := syncer.New(ctx, nil).RegisterDevice()
	if client.IsUnauthorized(err) {
		return ErrInvalidToken
	} else if err != nil {
		return errors.Wrap(err, "registering the device")
	}

	if err := database.UpsertSystem(ctx.DB, consts.SystemSessionKey, token); err != nil {
		return errors.Wrap(err, "saving session key")
	}

	return nil
}

func getToken() (string, error) {
	if tokenFlag != "" {
		return tokenFlag, nil
	}

	var token string
	if err := ui.PromptPassword("token", &token); err != nil {
		return "", errors.Wrap(err, "getting token input")
	}
	if token == "" {
		return "", errors.New("Token is empty")
	}

	return token, nil
}

// getServerDisplayURL returns the scheme and host of the API endpoint, or an
// empty string if it cannot be parsed
func getServerDisplayURL(ctx context.LitriftCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		if serverURL := getServerDisplayURL(ctx); serverURL != "" {
			log.Plainf("logging in to %s\n", log.ColorBlue.Sprint(serverURL))
		}

		token, err := getToken()
		if err != nil {
			return err
		}

		if err := Do(ctx, token); err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Successf("logged in as %s\n", ctx.DeviceName)

		return nil
	}
}
