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

package config

import (
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/assert"
	"github.com/sorrowscry86/Lit-Rift/pkg/cli/context"
)

func TestReadWrite(t *testing.T) {
	ctx := context.InitTestCtx(t)

	cf := Config{
		APIEndpoint:  "http://localhost:3001/api",
		DeviceName:   "laptop",
		SyncInterval: "1m",
		Realtime:     true,
		BatchSize:    20,
	}
	if err := Write(ctx, cf); err != nil {
		t.Fatal(errors.Wrap(err, "writing"))
	}

	got, err := Read(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading"))
	}
	assert.DeepEqual(t, got, cf, "config mismatch")
}

func TestRead_missing(t *testing.T) {
	ctx := context.InitTestCtx(t)

	_, err := Read(ctx)
	assert.Equal(t, os.IsNotExist(errors.Cause(err)), true, "reading a missing file should fail")
}

func TestGetIntervals(t *testing.T) {
	testCases := []struct {
		name     string
		config   Config
		expected Intervals
		wantErr  bool
	}{
		{
			name:   "defaults",
			config: Config{},
			expected: Intervals{
				Sync:         DefaultSyncInterval,
				ConflictPoll: DefaultConflictPollInterval,
				Request:      DefaultRequestTimeout,
			},
		},
		{
			name:   "custom",
			config: Config{SyncInterval: "5s", ConflictPollInterval: "2s", RequestTimeout: "500ms"},
			expected: Intervals{
				Sync:         5 * time.Second,
				ConflictPoll: 2 * time.Second,
				Request:      500 * time.Millisecond,
			},
		},
		{
			name:    "malformed",
			config:  Config{SyncInterval: "soon"},
			wantErr: true,
		},
		{
			name:    "negative",
			config:  Config{ConflictPollInterval: "-1s"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.config.GetIntervals()
			if tc.wantErr {
				assert.NotEqual(t, err, nil, "expected an error")
				return
			}

			assert.Equal(t, err, nil, "unexpected error")
			assert.Equal(t, got, tc.expected, "intervals mismatch")
		})
	}
}

func TestGetBatchSize(t *testing.T) {
	assert.Equal(t, Config{}.GetBatchSize(), DefaultBatchSize, "default mismatch")
	assert.Equal(t, Config{BatchSize: 7}.GetBatchSize(), 7, "custom mismatch")
}
