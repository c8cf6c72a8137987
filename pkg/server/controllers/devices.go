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

package controllers

import (
	"net/http"

	"github.com/sorrowscry86/Lit-Rift/pkg/server/app"
	mw "github.com/sorrowscry86/Lit-Rift/pkg/server/middleware"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/presenters"
)

// NewDevices creates a new Devices controller
func NewDevices(app *app.App) *Devices {
	return &Devices{
		app: app,
	}
}

// Devices is a device controller.
type Devices struct {
	app *app.App
}

// RegisterPayload announces a device
type RegisterPayload struct {
	DeviceID   string `json:"device_id"`
	Name       string `json:"name"`
	AppVersion string `json:"app_version"`
}

// Register handles POST /v1/devices
func (d *Devices) Register(w http.ResponseWriter, r *http.Request) {
	user := mustGetUser(r)

	var payload RegisterPayload
	if err := parseJSON(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	device, err := d.app.RegisterDevice(user, app.RegisterDeviceParams{
		DeviceID:   getDeviceID(r, payload.DeviceID),
		Name:       payload.Name,
		AppVersion: payload.AppVersion,
	})
	if err != nil {
		handleJSONError(w, err, "registering device")
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentDevice(device))
}
