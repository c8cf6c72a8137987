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

// Package dirs provides the XDG base directories and the per-application
// directories derived from them
package dirs

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AppName is the directory name used under each base directory
const AppName = "litrift"

var (
	// Home is the home directory of the user
	Home string
	// ConfigHome is where user-specific configuration is written
	ConfigHome string
	// DataHome is where user-specific data files are written
	DataHome string
	// CacheHome is where non-essential cached data is written
	CacheHome string
)

func init() {
	Reload()
}

// Reload re-reads the environment and recomputes the base directories
func Reload() {
	Home = getHomeDir()
	ConfigHome = readPath("XDG_CONFIG_HOME", filepath.Join(Home, ".config"))
	DataHome = readPath("XDG_DATA_HOME", filepath.Join(Home, ".local", "share"))
	CacheHome = readPath("XDG_CACHE_HOME", filepath.Join(Home, ".cache"))
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(errors.Wrap(err, "getting home dir"))
	}

	return home
}

func readPath(envName, defaultPath string) string {
	if dir := os.Getenv(envName); dir != "" {
		return dir
	}

	return defaultPath
}

// App holds the application directories under a set of base directories
type App struct {
	Config string
	Data   string
	Cache  string
}

// NewApp returns the application directories for the given base directories
func NewApp(configHome, dataHome, cacheHome string) App {
	return App{
		Config: filepath.Join(configHome, AppName),
		Data:   filepath.Join(dataHome, AppName),
		Cache:  filepath.Join(cacheHome, AppName),
	}
}

// Default returns the application directories under the current base directories
func Default() App {
	return NewApp(ConfigHome, DataHome, CacheHome)
}

// Ensure creates every non-empty application directory
func (a App) Ensure() error {
	for _, dir := range []string{a.Config, a.Data, a.Cache} {
		if dir == "" {
			continue
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}

	return nil
}
