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

package resolve

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/output"
	resolver "github.com/sorrowscry86/Lit-Rift/pkg/cli/resolve"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/session"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/ui"
	"github.com/spf13/cobra"
)

var choiceFlag string
var yesFlag bool

var example = `
  * Keep the version on this device
  litrift resolve 2f9c1d1e-0b5e-4c8a-9f43-6c1a52a1c0de --choice local

  * Take the server version without confirming
  litrift resolve 2f9c1d1e-0b5e-4c8a-9f43-6c1a52a1c0de --choice cloud --yes`

// NewCmd returns a new resolve command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve <conflict id>",
		Short:   "Resolve a conflict",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&choiceFlag, "choice", "c", "", "the side to keep: local or cloud")
	f.BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation")

	return cmd
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}
	if choiceFlag != "" && !resolver.ValidChoice(choiceFlag) {
		return resolver.ErrInvalidChoice
	}

	return nil
}

// Do applies the choice on the conflict and returns the resulting document
func Do(ctx context.LitriftCtx, conflictID, choice string) (store.Document, error) {
	s := session.New(ctx)
	defer s.Close()

	return s.ResolveConflict(conflictID, choice)
}

func getChoice(c store.Conflict) (string, error) {
	if choiceFlag != "" {
		return choiceFlag, nil
	}

	log.Infof("suggested: %s\n", c.Suggested)

	return ui.Choose("keep which side?", []string{consts.ChoiceLocal, consts.ChoiceCloud})
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		conflictID := args[0]

		c, err := store.GetConflict(ctx.DB, conflictID)
		if err != nil && errors.Cause(err) != store.ErrConflictNotFound {
			return errors.Wrap(err, "getting the conflict")
		}
		if err == nil && !c.Pending() {
			log.Infof("already resolved with %s\n", c.ResolutionChoice)
			return nil
		}

		choice, err := getChoice(c)
		if err != nil {
			return errors.Wrap(err, "getting the choice")
		}

		if !yesFlag {
			question := "overwrite the server copy with this device's version?"
			if choice == consts.ChoiceCloud {
				question = "replace this device's version with the server copy?"
			}

			ok, err := ui.Confirm(question, false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		doc, err := Do(ctx, conflictID, choice)
		if err != nil {
			return errors.Wrap(err, "resolving the conflict")
		}

		log.Successf("resolved with %s\n", choice)
		output.DocumentInfo(doc)

		return nil
	}
}
