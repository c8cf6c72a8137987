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

// Device is a result of PresentDevice
type Device struct {
	DeviceID   string     `json:"device_id"`
	Name       string     `json:"name"`
	AppVersion string     `json:"app_version"`
	LastSyncAt *time.Time `json:"last_sync_at"`
}

// PresentDevice presents a device
func PresentDevice(d database.Device) Device {
	return Device{
		DeviceID:   d.UUID,
		Name:       d.Name,
		AppVersion: d.AppVersion,
		LastSyncAt: formatTSPtr(d.LastSyncAt),
	}
}
