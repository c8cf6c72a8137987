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

package status

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/output"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/spf13/cobra"
)

var localOnly bool

// NewCmd returns a new status command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is waiting to be synced",
		RunE:  newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&localOnly, "local", "l", false, "do not contact the server")

	return cmd
}

func printServerStatus(ctx context.LitriftCtx) {
	if ctx.SessionKey == "" {
		log.Plain("not logged in\n")
		return
	}

	st, err := syncer.New(ctx, nil).Status()
	if client.IsTransport(err) {
		log.Warnf("server unreachable\n")
		return
	} else if err != nil {
		log.Warnf("getting server status: %s\n", err)
		return
	}

	log.Infof("server documents: %d\n", st.DocumentCount)
	log.Infof("server conflicts: %d\n", st.ConflictCount)
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		st, err := syncer.GetLocalStatus(ctx.DB)
		if err != nil {
			return errors.Wrap(err, "reading the local status")
		}

		output.LocalStatus(st)

		if !localOnly {
			printServerStatus(ctx)
		}

		return nil
	}
}
