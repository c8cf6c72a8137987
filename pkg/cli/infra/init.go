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

// Package infra provides operations and definitions for the
// local infrastructure for litrift
package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/client"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/config"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/consts"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/migrate"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/queue"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/utils"
	"github.com/sorrowscry86/Lit-Rift/pkg/clock"
	"github.com/sorrowscry86/Lit-Rift/pkg/dirs"
	"github.com/spf13/cobra"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
)

// RunEFunc is a function type of litrift commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return filepath.Join(paths.App().Data, consts.DBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.LitriftCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	// the database directory must exist before sqlite can create the file
	if err := context.InitDirs(paths); err != nil {
		return context.LitriftCtx{}, errors.Wrap(err, "creating the litrift dirs")
	}

	db, err := database.Open(getDBPath(paths, customDBPath))
	if err != nil {
		return context.LitriftCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.LitriftCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the litrift environment and returns a new context.
// A non-empty apiEndpoint overrides the configured one without rewriting
// the config file. dbPath, if set, replaces the default database location.
func Init(versionTag, apiEndpoint, dbPath string) (*context.LitriftCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initFiles(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "initializing files")
	}

	n, err := migrate.Run(ctx.DB)
	if err != nil {
		return nil, errors.Wrap(err, "running migration")
	}
	if n > 0 {
		log.Debug("applied %d migrations\n", n)
	}

	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	recovered, err := queue.Recover(ctx.DB)
	if err != nil {
		return nil, errors.Wrap(err, "recovering the sync queue")
	}
	if recovered > 0 {
		log.Debug("requeued %d in-flight changes\n", recovered)
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}
	if apiEndpoint != "" {
		ctx.APIEndpoint = apiEndpoint
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.LitriftCtx) (context.LitriftCtx, error) {
	db := ctx.DB

	sessionKey, err := database.GetSystemString(db, consts.SystemSessionKey)
	if err != nil {
		return ctx, errors.Wrap(err, "finding session key")
	}
	deviceID, err := database.GetSystemString(db, consts.SystemDeviceID)
	if err != nil {
		return ctx, errors.Wrap(err, "finding device id")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}
	intervals, err := cf.GetIntervals()
	if err != nil {
		return ctx, errors.Wrap(err, "reading intervals")
	}

	deviceName := cf.DeviceName
	if deviceName == "" {
		deviceName = getHostname()
	}

	ret := context.LitriftCtx{
		Paths:                ctx.Paths,
		Version:              ctx.Version,
		DB:                   ctx.DB,
		SessionKey:           sessionKey,
		DeviceID:             deviceID,
		DeviceName:           deviceName,
		APIEndpoint:          cf.APIEndpoint,
		Editor:               cf.Editor,
		SyncInterval:         intervals.Sync,
		ConflictPollInterval: intervals.ConflictPoll,
		RequestTimeout:       intervals.Request,
		Realtime:             cf.Realtime,
		BatchSize:            cf.GetBatchSize(),
		Clock:                clock.New(),
		HTTPClient:           client.NewRateLimitedHTTPClient(intervals.Request),
	}

	return ret, nil
}

func getHostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown-device"
	}

	return name
}

func initSystemKV(db *database.DB, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing. The device id is generated once
// and kept for the life of the database.
func InitSystem(ctx context.LitriftCtx) error {
	log.Debug("initializing the system\n")

	deviceID, err := utils.GenerateUUID()
	if err != nil {
		return errors.Wrap(err, "generating a device id")
	}

	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := initSystemKV(tx, consts.SystemDeviceID, deviceID); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemDeviceID)
	}
	if err := initSystemKV(tx, consts.SystemLastSyncAt, "0"); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastSyncAt)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// getEditorCommand returns the system's editor command with appropriate flags,
// if necessary, to make the command wait until editor is close to exit.
func getEditorCommand() string {
	editor := os.Getenv("EDITOR")

	var ret string

	switch editor {
	case "atom":
		ret = "atom -w"
	case "subl":
		ret = "subl -n -w"
	case "code":
		ret = "code -n -w"
	case "mate":
		ret = "mate -w"
	case "vim":
		ret = "vim"
	case "nano":
		ret = "nano"
	case "emacs":
		ret = "emacs"
	case "nvim":
		ret = "nvim"
	default:
		ret = "vi"
	}

	return ret
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.LitriftCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		Editor:               getEditorCommand(),
		APIEndpoint:          endpoint,
		DeviceName:           getHostname(),
		SyncInterval:         config.DefaultSyncInterval.String(),
		ConflictPollInterval: config.DefaultConflictPollInterval.String(),
		RequestTimeout:       config.DefaultRequestTimeout.String(),
		Realtime:             true,
		BatchSize:            config.DefaultBatchSize,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// initFiles creates, if necessary, the litrift directory and files inside
func initFiles(ctx context.LitriftCtx, apiEndpoint string) error {
	if err := context.InitDirs(ctx.Paths); err != nil {
		return errors.Wrap(err, "creating the litrift dir")
	}
	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return errors.Wrap(err, "generating the config file")
	}

	return nil
}
