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
	stdErrors "errors"
	"strings"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/helpers"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser creates a user with a hashed password
func (a *App) CreateUser(email, password string) (database.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return database.User{}, ErrEmailRequired
	}
	if len(password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}

	var count int64
	if err := a.DB.Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return database.User{}, errors.Wrap(err, "counting user")
	}
	if count > 0 {
		return database.User{}, ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.User{}, errors.Wrap(err, "hashing password")
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		return database.User{}, err
	}

	user := database.User{
		UUID:     uuid,
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := a.DB.Save(&user).Error; err != nil {
		return database.User{}, errors.Wrap(err, "saving user")
	}

	return user, nil
}

// GetUserByEmail finds a user by email. It returns nil if there is no such
// user.
func (a *App) GetUserByEmail(email string) (*database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding user")
	}

	return &user, nil
}
