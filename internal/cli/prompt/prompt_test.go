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

package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConfirmShutdown(t *testing.T) {
	tests := []struct {
		name      string
		prompter  *MockPrompter
		count     int
		want      bool
		wantCalls int
		wantText  string
	}{
		{
			name:      "non-interactive proceeds without asking",
			prompter:  NewMockPrompter(false),
			count:     3,
			want:      true,
			wantCalls: 0,
		},
		{
			name:      "user accepts",
			prompter:  NewMockPrompter(true, true),
			count:     3,
			want:      true,
			wantCalls: 1,
			wantText:  "3 processes",
		},
		{
			name:      "user declines",
			prompter:  NewMockPrompter(true, false),
			count:     1,
			want:      false,
			wantCalls: 1,
			wantText:  "1 process)",
		},
		{
			name:      "default is yes",
			prompter:  NewMockPrompter(true),
			count:     2,
			want:      true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfirmShutdown(context.Background(), tt.prompter, tt.count)
			if err != nil {
				t.Fatalf("ConfirmShutdown() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ConfirmShutdown() = %v, want %v", got, tt.want)
			}
			calls := tt.prompter.GetCallLog()
			if len(calls) != tt.wantCalls {
				t.Fatalf("expected %d prompt calls, got %v", tt.wantCalls, calls)
			}
			if tt.wantText != "" && !strings.Contains(calls[0], tt.wantText) {
				t.Errorf("expected prompt to contain %q, got %q", tt.wantText, calls[0])
			}
		})
	}
}

func TestSurveyPrompter_NonInteractive(t *testing.T) {
	sp := NewSurveyPrompter(false)
	ctx := context.Background()

	if sp.IsInteractive() {
		t.Error("IsInteractive() should return false")
	}
	if _, err := sp.Confirm(ctx, "continue?", true); !errors.Is(err, ErrNonInteractive) {
		t.Errorf("Confirm() error = %v, want ErrNonInteractive", err)
	}
	if err := sp.Pause(ctx, PauseMessage); err != nil {
		t.Errorf("Pause() should be a no-op when non-interactive, got %v", err)
	}
}

func TestMockPrompter_Pause(t *testing.T) {
	mp := NewMockPrompter(true)
	if err := mp.Pause(context.Background(), PauseMessage); err != nil {
		t.Fatal(err)
	}
	if log := mp.GetCallLog(); len(log) != 1 || log[0] != "Pause(Enter to continue...)" {
		t.Errorf("unexpected call log %v", log)
	}
}
