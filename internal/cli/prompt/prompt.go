// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prompt asks the user questions on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
)

// ErrNonInteractive is returned when a question cannot be asked.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// Prompter defines the questions the commands ask.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string, def bool) (bool, error)

	// Pause waits for the user to press Enter. It returns immediately when
	// not interactive.
	Pause(ctx context.Context, message string) error

	// IsInteractive returns true if prompts can be displayed
	IsInteractive() bool
}

// ConfirmShutdown asks whether count running browser processes may be
// closed. A non-interactive prompter answers yes, since scripted runs have
// nobody to answer.
func ConfirmShutdown(ctx context.Context, p Prompter, count int) (bool, error) {
	if !p.IsInteractive() {
		return true, nil
	}
	noun := "processes"
	if count == 1 {
		noun = "process"
	}
	msg := fmt.Sprintf("Chrome is running (%d %s). Close it, patch Local State and restart?", count, noun)
	ok, err := p.Confirm(ctx, msg, true)
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return ok, nil
}

// PauseMessage is the prompt shown before exiting.
const PauseMessage = "Enter to continue..."
