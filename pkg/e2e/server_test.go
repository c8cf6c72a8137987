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

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testServerBinary string

func init() {
	tmpDir := os.TempDir()
	testServerBinary = fmt.Sprintf("%s/litrift-test-server", tmpDir)
	buildCmd := exec.Command("go", "build", "-o", testServerBinary, "../server")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		panic(fmt.Sprintf("failed to build server: %v\n%s", err, out))
	}
}

func openServerDB(t *testing.T, path string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

func waitForHealth(t *testing.T, url string) *http.Response {
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("failed to reach server health endpoint: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestServerStart(t *testing.T) {
	tmpDB := t.TempDir() + "/test.db"
	port := "13456"

	cmd := exec.Command(testServerBinary, "start", "--port", port, "--envFile", "")
	cmd.Env = append(os.Environ(),
		"DBPath="+tmpDB,
		"APP_ENV=PRODUCTION",
	)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	cleanup := func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}
	defer cleanup()

	resp := waitForHealth(t, fmt.Sprintf("http://localhost:%s/api/health", port))
	defer resp.Body.Close()

	assert.Equal(t, resp.StatusCode, 200, "health endpoint should return 200")

	// Kill server before checking database to avoid locks
	cleanup()

	if _, err := os.Stat(tmpDB); os.IsNotExist(err) {
		t.Fatalf("database file was not created at %s", tmpDB)
	}

	db := openServerDB(t, tmpDB)

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM schema_migrations").Scan(&count).Error; err != nil {
		t.Fatalf("schema_migrations table not found: %v", err)
	}
	if count == 0 {
		t.Fatal("no migrations were run")
	}

	for _, table := range []string{"documents", "conflicts", "devices"} {
		if err := db.Exec(fmt.Sprintf("SELECT * FROM %s LIMIT 1", table)).Error; err != nil {
			t.Fatalf("%s table not found: %v", table, err)
		}
	}
}

func TestServerVersion(t *testing.T) {
	cmd := exec.Command(testServerBinary, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "litrift-server-") {
		t.Errorf("expected version output to contain 'litrift-server-', got: %s", outputStr)
	}
}

func TestServerRootCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("server command failed: %v", err)
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "LitRift sync server"), true, "output should contain description")
	assert.Equal(t, strings.Contains(outputStr, "start: Start the server"), true, "output should contain start command")
	assert.Equal(t, strings.Contains(outputStr, "user: Manage users"), true, "output should contain user command")
	assert.Equal(t, strings.Contains(outputStr, "version: Print the version"), true, "output should contain version command")
}

func TestServerStartHelp(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--help")
	output, _ := cmd.CombinedOutput()

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "litrift-server start [flags]"), true, "output should contain usage")
	assert.Equal(t, strings.Contains(outputStr, "--appEnv"), true, "output should contain appEnv flag")
	assert.Equal(t, strings.Contains(outputStr, "--port"), true, "output should contain port flag")
	assert.Equal(t, strings.Contains(outputStr, "--dbPath"), true, "output should contain dbPath flag")
	assert.Equal(t, strings.Contains(outputStr, "--dbDriver"), true, "output should contain dbDriver flag")
	assert.Equal(t, strings.Contains(outputStr, "--logFile"), true, "output should contain logFile flag")
}

func TestServerStartInvalidConfig(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--envFile", "")
	cmd.Env = []string{"PORT=not-a-port"}

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail with invalid config")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Error:"), true, "output should contain error message")
	assert.Equal(t, strings.Contains(outputStr, "Invalid Port"), true, "output should mention the invalid port")
	assert.Equal(t, strings.Contains(outputStr, "litrift-server start [flags]"), true, "output should show usage")
}

func TestServerUnknownCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary, "unknown")
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail with unknown command")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Unknown command"), true, "output should contain unknown command message")
	assert.Equal(t, strings.Contains(outputStr, "LitRift sync server"), true, "output should show help")
}

func TestServerUserCreate(t *testing.T) {
	tmpDB := t.TempDir() + "/test.db"

	cmd := exec.Command(testServerBinary, "user", "create",
		"--dbPath", tmpDB,
		"--email", "test@example.com",
		"--password", "password123")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("user create failed: %v\nOutput: %s", err, output)
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "User created successfully"), true, "output should show success message")
	assert.Equal(t, strings.Contains(outputStr, "test@example.com"), true, "output should show email")

	m := regexp.MustCompile(`Session key: (\S+)`).FindStringSubmatch(outputStr)
	if m == nil {
		t.Fatalf("session key not printed: %s", outputStr)
	}

	db := openServerDB(t, tmpDB)

	var count int64
	db.Table("users").Count(&count)
	assert.Equal(t, count, int64(1), "should have created 1 user")

	db.Table("sessions").Where("key = ?", m[1]).Count(&count)
	assert.Equal(t, count, int64(1), "printed session should exist")
}

func TestServerUserCreateShortPassword(t *testing.T) {
	tmpDB := t.TempDir() + "/test.db"

	cmd := exec.Command(testServerBinary, "user", "create",
		"--dbPath", tmpDB,
		"--email", "test@example.com",
		"--password", "short")
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail with short password")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "password should be longer than 8 characters"), true, "output should show password error")
}

func TestServerUserSession(t *testing.T) {
	tmpDB := t.TempDir() + "/test.db"

	createCmd := exec.Command(testServerBinary, "user", "create",
		"--dbPath", tmpDB,
		"--email", "test@example.com",
		"--password", "password123")
	if output, err := createCmd.CombinedOutput(); err != nil {
		t.Fatalf("user create failed: %v\nOutput: %s", err, output)
	}

	cmd := exec.Command(testServerBinary, "user", "session",
		"--dbPath", tmpDB,
		"--email", "test@example.com")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("user session failed: %v\nOutput: %s", err, output)
	}
	assert.Equal(t, strings.HasPrefix(string(output), "Session key: "), true, "output should show the session key")

	missing := exec.Command(testServerBinary, "user", "session",
		"--dbPath", tmpDB,
		"--email", "nobody@example.com")
	output, err = missing.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail for an unknown user")
	}
	assert.Equal(t, strings.Contains(string(output), "not found"), true, "output should report the missing user")
}

func TestServerUserHelp(t *testing.T) {
	cmd := exec.Command(testServerBinary, "user")
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected command to fail without a subcommand")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "create: Create a new user"), true, "output should list create")
	assert.Equal(t, strings.Contains(outputStr, "session: Issue a new session key"), true, "output should list session")
}
