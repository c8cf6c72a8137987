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

package sync

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/spf13/cobra"
)

var example = `
  litrift sync

  * Also refresh every document from the server
  litrift sync --full`

var isFullSync bool
var apiEndpointFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Sync data with the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&isFullSync, "full", "f", false, "also pull every document the server has")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Result summarizes a sync run
type Result struct {
	Push      syncer.PushReport
	Pulled    int
	Conflicts int
}

// Do pushes the queued changes, optionally pulls every document, and
// refreshes the conflict cache
func Do(ctx context.LitriftCtx, full bool) (Result, error) {
	var ret Result

	engine := syncer.New(ctx, nil)

	if err := engine.CheckOnline(); err != nil {
		return ret, errors.Wrap(err, "reaching the server")
	}
	if err := engine.RegisterDevice(); err != nil {
		return ret, errors.Wrap(err, "registering the device")
	}

	report, err := engine.PushBatch()
	ret.Push = report
	if err != nil {
		return ret, errors.Wrap(err, "pushing changes")
	}

	if full {
		n, err := engine.PullAll()
		if err != nil {
			return ret, errors.Wrap(err, "pulling documents")
		}
		ret.Pulled = n
	}

	conflicts, err := engine.FetchConflicts()
	if err != nil {
		return ret, errors.Wrap(err, "fetching conflicts")
	}
	ret.Conflicts = len(conflicts)

	return ret, nil
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}
		if ctx.SessionKey == "" {
			return errors.New("not logged in. Run \"litrift login\" first")
		}

		res, err := Do(ctx, isFullSync)
		if client.IsUnauthorized(err) {
			return errors.New("the session is no longer valid. Run \"litrift login\" again")
		} else if err != nil {
			return err
		}

		log.Successf("pushed: %s\n", res.Push)
		if isFullSync {
			log.Infof("refreshed %d documents\n", res.Pulled)
		}
		if res.Push.Failed > 0 {
			log.Warnf("%d changes stay queued for the next sync\n", res.Push.Failed)
		}
		if res.Conflicts > 0 {
			log.Warnf("%d conflicts need a decision. Run \"litrift conflicts\"\n", res.Conflicts)
		}

		return nil
	}
}
