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

package database

const (
	// ConflictStatusPending marks a conflict awaiting a user decision
	ConflictStatusPending = "pending"
	// ConflictStatusResolved marks a conflict that has been resolved
	ConflictStatusResolved = "resolved"
)

const (
	// ChoiceLocal promotes the pushing device's content
	ChoiceLocal = "local"
	// ChoiceCloud keeps the server's content
	ChoiceCloud = "cloud"
)
