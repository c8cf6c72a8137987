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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
)

func userCreateCmd(args []string, w io.Writer) {
	fs := setupFlagSet("create", "litrift-server user create")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "User password (required)")
	db := addDBFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, db.params())
	defer cleanup()

	user, err := a.CreateUser(*email, *password)
	if err != nil {
		log.ErrorWrap(err, "creating user")
		os.Exit(1)
	}

	session, err := a.CreateSession(user.ID)
	if err != nil {
		log.ErrorWrap(err, "creating session")
		os.Exit(1)
	}

	fmt.Fprintf(w, "User created successfully\n")
	fmt.Fprintf(w, "Email: %s\n", user.Email)
	fmt.Fprintf(w, "Session key: %s\n", session.Key)
}

func userSessionCmd(args []string, w io.Writer) {
	fs := setupFlagSet("session", "litrift-server user session")

	email := fs.String("email", "", "User email address (required)")
	db := addDBFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")

	a, cleanup := setupAppWithDB(fs, db.params())
	defer cleanup()

	user, err := a.GetUserByEmail(*email)
	if err != nil {
		log.ErrorWrap(err, "finding user")
		os.Exit(1)
	}
	if user == nil {
		fmt.Fprintf(w, "Error: user with email %s not found\n", *email)
		os.Exit(1)
	}

	session, err := a.CreateSession(user.ID)
	if err != nil {
		log.ErrorWrap(err, "creating session")
		os.Exit(1)
	}

	fmt.Fprintf(w, "Session key: %s\n", session.Key)
}

const userUsage = `Available commands:
  create: Create a new user and print a session key
  session: Issue a new session key for an existing user`

func userCmd(args []string, w io.Writer) {
	if len(args) < 1 {
		fmt.Println("Usage:\n  litrift-server user [command]\n\n" + userUsage)
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "create":
		userCreateCmd(subArgs, w)
	case "session":
		userSessionCmd(subArgs, w)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", subcommand)
		fmt.Println(userUsage)
		os.Exit(1)
	}
}
