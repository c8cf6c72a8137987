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

package conflicts

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/output"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/spf13/cobra"
)

var fetch bool

var example = `
  * List the conflicts waiting for a decision
  litrift conflicts

  * Ask the server first
  litrift conflicts --fetch

  * Compare both sides of a conflict
  litrift conflicts show 2f9c1d1e-0b5e-4c8a-9f43-6c1a52a1c0de`

// NewCmd returns a new conflicts command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conflicts",
		Short:   "List pending conflicts",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&fetch, "fetch", "f", false, "fetch the pending conflicts from the server first")

	cmd.AddCommand(newShowCmd(ctx))

	return cmd
}

func newShowCmd(ctx context.LitriftCtx) *cobra.Command {
	return &cobra.Command{
		Use:   "show <conflict id>",
		Short: "Show a conflict and the difference between its sides",
		Args:  cobra.ExactArgs(1),
		RunE:  newShowRun(ctx),
	}
}

// List returns the pending conflicts, refreshing the cache from the server
// if fetch is set
func List(ctx context.LitriftCtx, fetch bool) ([]store.Conflict, error) {
	if fetch {
		return syncer.New(ctx, nil).FetchConflicts()
	}

	return store.ListConflicts(ctx.DB, store.ConflictPending)
}

// Sides returns the conflict, read from the cache or else the server, with the content of both sides. The local side
// is what the device holds now. The cloud side is the server copy, or the
// preview recorded with the conflict if the server cannot be reached.
func Sides(ctx context.LitriftCtx, conflictID string) (store.Conflict, string, string, error) {
	c, err := store.GetConflict(ctx.DB, conflictID)
	if errors.Cause(err) == store.ErrConflictNotFound {
		c, err = syncer.New(ctx, nil).GetConflict(conflictID)
	}
	if err != nil {
		return c, "", "", errors.Wrap(err, "getting the conflict")
	}

	// The store holds the local side only on the device that made the edit
	local := c.LocalPreview
	if c.LocalDeviceID == ctx.DeviceID {
		doc, err := store.Load(ctx.DB, c.DocID)
		if err == nil {
			local = doc.Content
		} else if errors.Cause(err) != store.ErrNotFound {
			return c, "", "", errors.Wrap(err, "loading the local document")
		}
	}

	cloud := c.CloudPreview
	remote, err := client.GetDocument(ctx, c.DocID)
	if err == nil {
		cloud = remote.Content
	} else {
		log.Debug("using the cloud preview of %s: %s\n", c.ConflictID, err)
	}

	return c, local, cloud, nil
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		conflicts, err := List(ctx, fetch)
		if err != nil {
			return errors.Wrap(err, "listing conflicts")
		}

		if len(conflicts) == 0 {
			log.Success("no pending conflicts\n")
			return nil
		}

		output.ConflictList(conflicts)

		return nil
	}
}

func newShowRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		c, local, cloud, err := Sides(ctx, args[0])
		if err != nil {
			return err
		}

		output.ConflictInfo(c, local, cloud)
		if c.Pending() && c.LocalDeviceID != ctx.DeviceID {
			log.Warnf("the local side was written on %s; choose local from that device\n", c.LocalDeviceID)
		}

		return nil
	}
}
