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

package save

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/output"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/session"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/ui"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/utils"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/validate"
	"github.com/spf13/cobra"
)

var titleFlag string
var fileFlag string
var contentFlag string

var example = `
 * Save the content of a file as a document
 litrift save chapter-1 --file ./chapter-1.md

 * Save content directly
 litrift save chapter-1 -c "It was a dark and stormy night." --title "Chapter 1"

 * Send stdin content to a document
 cat chapter-1.md | litrift save chapter-1`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}
	if fileFlag != "" && contentFlag != "" {
		return errors.New("--file and --content cannot be used together")
	}

	return nil
}

// NewCmd returns a new save command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "save <doc id>",
		Short:   "Save a document and queue it for sync",
		Aliases: []string{"s"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&titleFlag, "title", "t", "", "the title of the document (defaults to its first line)")
	f.StringVarP(&fileFlag, "file", "f", "", "a file to read the content from")
	f.StringVarP(&contentFlag, "content", "c", "", "the content of the document")

	return cmd
}

func getContent() (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}
	if fileFlag != "" {
		return utils.ReadTextFile(fileFlag)
	}

	fInfo, err := os.Stdin.Stat()
	if err != nil {
		return "", errors.Wrap(err, "inspecting stdin")
	}
	if fInfo.Mode()&os.ModeCharDevice == 0 {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "getting piped input")
		}
		return c, nil
	}

	return "", errors.New("no content given. Use --content, --file or pipe it in")
}

// Do saves the content as the document. An empty title is derived from the
// content.
func Do(ctx context.LitriftCtx, docID, title, content string) (store.Document, error) {
	if err := validate.DocID(docID); err != nil {
		return store.Document{}, errors.Wrap(err, "invalid doc id")
	}
	if title == "" {
		title = utils.TitleFromContent(content)
	}

	s := session.New(ctx)
	defer s.Close()

	return s.OnSave(docID, content, title)
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		content, err := getContent()
		if err != nil {
			return errors.Wrap(err, "getting content")
		}

		doc, err := Do(ctx, args[0], titleFlag, content)
		if err != nil {
			return errors.Wrap(err, "saving the document")
		}

		log.Successf("saved %s at version %d\n", doc.DocID, doc.Version)
		output.DocumentInfo(doc)

		return nil
	}
}
