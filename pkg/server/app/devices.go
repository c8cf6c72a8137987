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

package app

import (
	"errors"

	pkgErrors "github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/helpers"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"gorm.io/gorm"
)

// RegisterDeviceParams describes a device announcing itself
type RegisterDeviceParams struct {
	DeviceID   string
	Name       string
	AppVersion string
}

// RegisterDevice creates or updates the device record for the user
func (a *App) RegisterDevice(user database.User, p RegisterDeviceParams) (database.Device, error) {
	if !helpers.ValidateUUID(p.DeviceID) {
		return database.Device{}, ErrInvalidDeviceID
	}

	var device database.Device
	err := a.DB.Where("uuid = ?", p.DeviceID).First(&device).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return device, pkgErrors.Wrap(err, "finding device")
	}

	if err == nil && device.UserID != user.ID {
		return database.Device{}, ErrDeviceOwnership
	}

	device.UUID = p.DeviceID
	device.UserID = user.ID
	device.Name = p.Name
	device.AppVersion = p.AppVersion

	if err := a.DB.Save(&device).Error; err != nil {
		return device, pkgErrors.Wrap(err, "saving device")
	}

	return device, nil
}

// touchDevice records a sync for the device. Unknown devices are ignored.
func (a *App) touchDevice(userID int, deviceID string) {
	if deviceID == "" {
		return
	}

	now := a.Clock.Now().UTC()
	err := a.DB.Model(&database.Device{}).
		Where("uuid = ? AND user_id = ?", deviceID, userID).
		Update("last_sync_at", now).Error
	if err != nil {
		log.WithFields(log.Fields{
			"device_id": deviceID,
		}).ErrorWrap(err, "updating device last sync")
	}
}
