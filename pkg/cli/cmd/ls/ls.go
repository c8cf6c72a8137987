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

package ls

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/output"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/spf13/cobra"
)

// NewCmd returns a new ls command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"l"},
		Short:   "List documents",
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		docs, err := store.List(ctx.DB)
		if err != nil {
			return errors.Wrap(err, "listing documents")
		}

		if len(docs) == 0 {
			log.Info("no documents yet\n")
			return nil
		}

		output.DocumentList(docs)

		return nil
	}
}
