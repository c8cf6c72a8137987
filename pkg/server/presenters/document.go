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

package presenters

import (
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
)

// Document is a result of PresentDocument
type Document struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Version    int       `json:"version"`
	LastEdited time.Time `json:"last_edited"`
	DeviceID   string    `json:"device_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PresentDocument presents a document
func PresentDocument(doc database.Document) Document {
	return Document{
		DocID:      doc.DocID,
		Title:      doc.Title,
		Content:    doc.Content,
		Version:    doc.Version,
		LastEdited: FormatTS(doc.LastEdited),
		DeviceID:   doc.DeviceID,
		UpdatedAt:  FormatTS(doc.UpdatedAt),
	}
}

// PresentDocuments presents documents
func PresentDocuments(docs []database.Document) []Document {
	ret := []Document{}

	for _, doc := range docs {
		ret = append(ret, PresentDocument(doc))
	}

	return ret
}
