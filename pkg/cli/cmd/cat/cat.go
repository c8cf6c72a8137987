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

package cat

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/output"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/spf13/cobra"
)

var contentOnly bool

var example = `
 * See a document
 litrift cat chapter-1

 * Print the content only
 litrift cat chapter-1 --content-only`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new cat command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cat <doc id>",
		Aliases: []string{"c"},
		Short:   "See a document",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.BoolVarP(&contentOnly, "content-only", "", false, "print the content only")

	return cmd
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		doc, err := store.Load(ctx.DB, args[0])
		if err != nil {
			return err
		}

		if contentOnly {
			output.DocumentContent(doc)
		} else {
			output.DocumentInfo(doc)
		}

		return nil
	}
}
