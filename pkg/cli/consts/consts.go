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

// Package consts provides definitions of constants
package consts

var (
	// AppDirName is the name of the directory containing litrift files
	AppDirName = "litrift"
	// DBFileName is a filename for the local SQLite database
	DBFileName = "litrift.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "litriftrc"

	// SystemDeviceID is the key for the device id in the system table
	SystemDeviceID = "device_id"
	// SystemLastSyncAt is the unix timestamp of the last successful exchange with the server
	SystemLastSyncAt = "last_sync_time"
	// SystemSessionKey is the session key
	SystemSessionKey = "session_token"
)

// Sync states of a local document
const (
	// SyncStateLocalOnly marks a document with changes the server has not confirmed
	SyncStateLocalOnly = "local-only"
	// SyncStateSynced marks a document whose content the server has confirmed
	SyncStateSynced = "synced"
)

// Resolution choices
const (
	// ChoiceLocal keeps the content of this device
	ChoiceLocal = "local"
	// ChoiceCloud keeps the content stored on the server
	ChoiceCloud = "cloud"
)

const (
	// TmpContentFileBase is the base name of the temporary file an editor
	// session writes to
	TmpContentFileBase = "LITRIFT_TMPCONTENT"
	// TmpContentFileExt is the extension of the temporary content file
	TmpContentFileExt = "md"
)
