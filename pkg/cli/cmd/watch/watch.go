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

package watch

import (
	stdcontext "context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/events"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/infra"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/session"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/utils"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/validate"
	"github.com/spf13/cobra"
)

var pollInterval time.Duration

var example = `
  * Sync every file under a directory while you write
  litrift watch ~/novel

  The path of a file relative to the directory, without its extension, is
  its document id: ~/novel/part-1/chapter-2.md is saved as part-1:chapter-2.`

// NewCmd returns a new watch command
func NewCmd(ctx context.LitriftCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch <dir>",
		Short:   "Save file edits under a directory and keep them in sync",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.DurationVar(&pollInterval, "interval", 500*time.Millisecond, "how often the directory is checked for changes")

	return cmd
}

// handler turns file events into document saves and writes reloaded documents
// back to the files they came from
type handler struct {
	root string
	s    *session.Session

	mu    sync.Mutex
	paths map[string]string
}

func newHandler(root string, s *session.Session) *handler {
	return &handler{root: root, s: s, paths: map[string]string{}}
}

func ignored(path string) bool {
	base := filepath.Base(path)

	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

// save stores the content of the file at path unless the document already
// holds it. It returns whether a save happened.
func (h *handler) save(path string) (bool, error) {
	if ignored(path) {
		return false, nil
	}

	docID, err := utils.DocIDFromPath(h.root, path)
	if err != nil {
		return false, err
	}
	if err := validate.DocID(docID); err != nil {
		return false, errors.Wrapf(err, "skipping %s", path)
	}

	h.mu.Lock()
	h.paths[docID] = path
	h.mu.Unlock()

	content, err := utils.ReadTextFile(path)
	if err != nil {
		return false, err
	}

	current, err := h.s.Load(docID)
	if err == nil && current.Content == content {
		return false, nil
	} else if err != nil && errors.Cause(err) != store.ErrNotFound {
		return false, errors.Wrapf(err, "loading %s", docID)
	}

	doc, err := h.s.OnSave(docID, content, utils.TitleFromContent(content))
	if err != nil {
		return false, errors.Wrapf(err, "saving %s", docID)
	}

	log.Successf("saved %s at version %d\n", doc.DocID, doc.Version)

	return true, nil
}

func (h *handler) handle(ev watcher.Event) error {
	if ev.IsDir() {
		return nil
	}

	_, err := h.save(ev.Path)
	return err
}

// reload writes a document that changed from elsewhere back to its file
func (h *handler) reload(doc store.Document) error {
	h.mu.Lock()
	path, ok := h.paths[doc.DocID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	current, err := utils.ReadTextFile(path)
	if err == nil && current == doc.Content {
		return nil
	}

	if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	log.Infof("reloaded %s from the server\n", doc.DocID)

	return nil
}

func (h *handler) notify(e events.Event) {
	switch ev := e.(type) {
	case events.ConflictDetected:
		log.Warnf("conflict on %s. Run \"litrift conflicts show %s\"\n", ev.Conflict.DocID, ev.Conflict.ConflictID)
	case events.ConflictResolved:
		log.Infof("conflict on %s resolved with %s\n", ev.DocID, ev.Choice)
	case events.DocumentReloaded:
		if err := h.reload(ev.Document); err != nil {
			log.Errorf("%s\n", err)
		}
	case events.SyncFailed:
		if ev.Unauthorized {
			log.Errorf("the session is no longer valid. Run \"litrift login\" again\n")
		} else {
			log.Debug("sync failed: %s\n", ev.Err)
		}
	case events.StatusChanged:
		log.Debug("status: running %t, online %t\n", ev.IsRunning, ev.IsOnline)
	}
}

// scan saves every file already under the watched directory
func (h *handler) scan(w *watcher.Watcher) {
	for path, info := range w.WatchedFiles() {
		if info.IsDir() {
			continue
		}
		if _, err := h.save(path); err != nil {
			log.Errorf("%s\n", err)
		}
	}
}

func newRun(ctx context.LitriftCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return errors.Wrap(err, "resolving the directory")
		}
		if ctx.SessionKey == "" {
			log.Warnf("not logged in. Edits are saved locally only\n")
		}

		s := session.New(ctx)
		defer s.Close()

		h := newHandler(root, s)
		sub := s.Subscribe(events.DefaultBuffer)

		w := watcher.New()
		w.FilterOps(watcher.Write, watcher.Create, watcher.Rename, watcher.Move)
		if err := w.AddRecursive(root); err != nil {
			return errors.Wrapf(err, "watching %s", root)
		}

		h.scan(w)
		if ctx.SessionKey != "" {
			if err := s.Start(); err != nil {
				return errors.Wrap(err, "starting the sync session")
			}
		}

		sigCtx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			subC := sub.C()
			for {
				select {
				case ev := <-w.Event:
					if err := h.handle(ev); err != nil {
						log.Errorf("%s\n", err)
					}
				case err := <-w.Error:
					log.Errorf("watching: %s\n", err)
				case e, ok := <-subC:
					if !ok {
						subC = nil
						continue
					}
					h.notify(e)
				case <-sigCtx.Done():
					w.Close()
					return
				case <-w.Closed:
					return
				}
			}
		}()

		log.Infof("watching %s. Press Ctrl+C to stop\n", root)

		if err := w.Start(pollInterval); err != nil {
			return errors.Wrap(err, "running the watcher")
		}

		return nil
	}
}
