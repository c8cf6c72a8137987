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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/store"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/syncer"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/utils/diff"
)

const timeLayout = "Jan 2, 2006 3:04pm (MST)"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return t.Local().Format(timeLayout)
}

// DocumentInfo prints the metadata and the content of a document
func DocumentInfo(d store.Document) {
	log.Infof("doc id: %s\n", d.DocID)
	if d.Title != "" {
		log.Infof("title: %s\n", d.Title)
	}
	log.Infof("version: %d (server %d)\n", d.Version, d.BaseVersion)
	log.Infof("edited at: %s\n", formatTime(d.LastEdited))
	log.Infof("sync state: %s\n", d.SyncState)

	log.Plain("\n------------------------content------------------------\n")
	log.Plainf("%s", d.Content)
	log.Plain("\n-------------------------------------------------------\n")
}

// DocumentContent prints the content of a document only
func DocumentContent(d store.Document) {
	log.Plainf("%s", d.Content)
}

// DocumentList prints one line per document
func DocumentList(docs []store.Document) {
	for _, d := range docs {
		state := log.ColorGreen.Sprint(d.SyncState)
		if !d.Synced() {
			state = log.ColorYellow.Sprint(d.SyncState)
		}

		log.Printf("%s %s v%d %s\n", d.DocID, log.ColorGray.Sprintf("(%s)", d.Title), d.Version, state)
	}
}

// ConflictList prints one line per conflict
func ConflictList(conflicts []store.Conflict) {
	for _, c := range conflicts {
		log.Printf("%s %s local v%d / cloud v%d, suggested %s\n",
			c.ConflictID, c.DocID, c.LocalVersion, c.CloudVersion, c.Suggested)
	}
}

// ConflictInfo prints a conflict with a line diff of its two sides. local is
// the content the device holds now, which may be newer than the preview
// stored with the conflict.
func ConflictInfo(c store.Conflict, local, cloud string) {
	log.Infof("conflict id: %s\n", c.ConflictID)
	log.Infof("doc id: %s\n", c.DocID)
	log.Infof("status: %s\n", c.Status)
	log.Infof("local: v%d from %s at %s\n", c.LocalVersion, c.LocalDeviceID, formatTime(c.LocalTimestamp))
	log.Infof("cloud: v%d from %s at %s\n", c.CloudVersion, c.CloudDeviceID, formatTime(c.CloudTimestamp))
	if c.Pending() {
		log.Infof("suggested: %s\n", c.Suggested)
	} else {
		log.Infof("resolved with: %s\n", c.ResolutionChoice)
	}

	log.Plain("\n")
	Diff(cloud, local)
}

// Diff prints a line diff from the cloud content to the local content. Lines
// only the local side has are marked with "+", lines only the cloud has with "-".
func Diff(cloud, local string) {
	for _, l := range diff.Lines(cloud, local) {
		switch l.Op {
		case diff.Insert:
			log.Plain(log.ColorGreen.Sprintf("+ %s\n", l.Text))
		case diff.Delete:
			log.Plain(log.ColorRed.Sprintf("- %s\n", l.Text))
		default:
			log.Plainf("  %s\n", l.Text)
		}
	}
}

// LocalStatus prints the sync status of the device
func LocalStatus(s syncer.LocalStatus) {
	log.Infof("documents: %d\n", s.Documents)
	log.Infof("unsynced changes: %d\n", s.Unsynced)
	log.Infof("pending conflicts: %d\n", s.PendingConflicts)
	log.Infof("last sync: %s\n", formatTime(s.LastSync))
}
