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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/buildinfo"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/config"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/controllers"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/realtime"
)

const shutdownTimeout = 10 * time.Second

func startCmd(args []string) {
	fs := setupFlagSet("start", "litrift-server start")

	appEnv := fs.String("appEnv", "", "Application environment (env: APP_ENV, default: PRODUCTION)")
	port := fs.String("port", "", "Server port (env: PORT, default: 3001)")
	db := addDBFlags(fs)
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	logFile := fs.String("logFile", "", "Write logs to a rotated file instead of stderr (env: LOG_FILE)")
	envFile := fs.String("envFile", ".env", "Environment file to load before reading the configuration")

	fs.Parse(args)

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	p := db.params()
	p.AppEnv = *appEnv
	p.Port = *port
	p.LogLevel = *logLevel
	p.LogFile = *logFile

	cfg, err := config.New(p)
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log.SetLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		closeLog := log.SetFile(log.FileOptions{Path: cfg.LogFile})
		defer closeLog()
	}

	if err := serve(cfg); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer closeDB(a.DB)

	hub := realtime.NewHub()
	a.Notifier = hub

	ctl := controllers.New(&a, hub)
	rc := controllers.RouteConfig{
		APIRoutes:   controllers.NewAPIRoutes(&a, ctl),
		Controllers: ctl,
	}

	r, err := controllers.NewRouter(&a, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"version":  buildinfo.Version,
			"port":     cfg.Port,
			"dbDriver": cfg.DBDriver,
		}).Info("LitRift server starting")

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		hub.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
