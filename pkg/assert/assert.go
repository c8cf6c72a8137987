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

// Package assert provides functions to assert a condition in tests
package assert

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func getErrorMessage(m string, a, b interface{}) string {
	return fmt.Sprintf(`%s.
Actual:
========================
%+v
========================

Expected:
========================
%+v
========================

%s`, m, a, b, cmp.Diff(a, b))
}

func checkEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

// Equal errors a test if the actual does not match the expected
func Equal(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if !checkEqual(a, b) {
		t.Error(getErrorMessage(message, a, b))
	}
}

// NotEqual fails a test if the actual matches the expected
func NotEqual(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if checkEqual(a, b) {
		t.Errorf("%s. Expected %+v to differ from %+v", message, a, b)
	}
}

// DeepEqual fails a test if the actual does not deeply equal the expected.
// Unexported fields are compared as well.
func DeepEqual(t *testing.T, a, b interface{}, message string) {
	t.Helper()

	if diff := cmp.Diff(a, b, cmp.Exporter(func(reflect.Type) bool { return true })); diff != "" {
		t.Errorf("%s. (-actual +expected)\n%s", message, diff)
	}
}

// EqualErrors fails a test if the two errors do not carry the same cause
func EqualErrors(t *testing.T, a, b error, message string) {
	t.Helper()

	if errors.Cause(a) != errors.Cause(b) {
		t.Errorf("%s. Actual: %v, Expected: %v", message, a, b)
	}
}
