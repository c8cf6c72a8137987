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

// Package prompt provides utilities for interactive terminal prompts
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoChoice is returned when the input matches none of the choices
var ErrNoChoice = errors.New("no matching choice")

// FormatQuestion formats a yes/no question with the appropriate choice indicator
func FormatQuestion(question string, optimistic bool) string {
	choices := "(y/N)"
	if optimistic {
		choices = "(Y/n)"
	}

	return fmt.Sprintf("%s %s", question, choices)
}

// FormatChoices formats a question followed by the slash-separated choices
func FormatChoices(question string, choices []string) string {
	return fmt.Sprintf("%s (%s)", question, strings.Join(choices, "/"))
}

func readLine(r io.Reader) (string, error) {
	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return "", err
	}

	return strings.ToLower(strings.TrimSpace(input)), nil
}

// ReadYesNo reads and parses a yes/no response from the given reader.
// In optimistic mode, empty input is treated as confirmation.
func ReadYesNo(r io.Reader, optimistic bool) (bool, error) {
	input, err := readLine(r)
	if err != nil {
		return false, err
	}

	confirmed := input == "y" || input == "yes"
	if optimistic {
		confirmed = confirmed || input == ""
	}

	return confirmed, nil
}

// ReadChoice reads one line and returns the choice it names. A unique prefix
// of a choice is accepted.
func ReadChoice(r io.Reader, choices []string) (string, error) {
	input, err := readLine(r)
	if err != nil {
		return "", err
	}
	if input == "" {
		return "", ErrNoChoice
	}

	var match string
	for _, c := range choices {
		if c == input {
			return c, nil
		}
		if strings.HasPrefix(c, input) {
			if match != "" {
				return "", errors.Wrapf(ErrNoChoice, "'%s' is ambiguous", input)
			}
			match = c
		}
	}

	if match == "" {
		return "", errors.Wrapf(ErrNoChoice, "'%s'", input)
	}

	return match, nil
}
