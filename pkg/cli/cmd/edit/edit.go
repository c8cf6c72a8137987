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

package edit

import (
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/session"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/ui"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/utils"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/validate"
	"github.com/spf13/cobra"
)

var titleFlag string

var example = `
  * Edit a document in your editor
  litrift edit chapter-1

  * Start a new document
  litrift edit chapter-2 --title "Chapter 2"`

// NewCmd returns a new edit command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <doc id>",
		Short:   "Edit a document in an editor",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&titleFlag, "title", "t", "", "a new title for the document")

	return cmd
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return validate.DocID(args[0])
}

// apply saves the edited content unless nothing changed. It returns whether
// a save happened.
func apply(s *session.Session, current store.Document, title, content string) (store.Document, bool, error) {
	if title == "" {
		title = current.Title
		if title == "" {
			title = utils.TitleFromContent(content)
		}
	}
	if current.DocID != "" && current.Content == content && current.Title == title {
		return current, false, nil
	}

	doc, err := s.OnSave(current.DocID, content, title)
	if err != nil {
		return doc, false, err
	}

	return doc, true, nil
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		docID := args[0]

		s := session.New(ctx)
		defer s.Close()

		current, err := s.Load(docID)
		if err != nil && errors.Cause(err) != store.ErrNotFound {
			return errors.Wrap(err, "loading the document")
		}
		current.DocID = docID

		fpath, err := ui.GetTmpContentPath(ctx)
		if err != nil {
			return errors.Wrap(err, "getting temporarily content file path")
		}

		content, err := ui.GetEditorInput(ctx, fpath, current.Content)
		if err != nil {
			return errors.Wrap(err, "getting editor input")
		}

		doc, saved, err := apply(s, current, titleFlag, content)
		if err != nil {
			return errors.Wrap(err, "saving the document")
		}
		if !saved {
			log.Info("nothing changed\n")
			return nil
		}

		log.Successf("saved %s at version %d\n", doc.DocID, doc.Version)

		return nil
	}
}
