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

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct {
	interactive bool
}

// NewSurveyPrompter creates a new survey-based prompter
func NewSurveyPrompter(interactive bool) *SurveyPrompter {
	return &SurveyPrompter{
		interactive: interactive,
	}
}

// Confirm asks a yes/no question. Ctrl-C counts as "no".
func (sp *SurveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if !sp.interactive {
		return false, ErrNonInteractive
	}

	var result bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	err := survey.AskOne(prompt, &result)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return result, err
}

// Pause waits for Enter.
func (sp *SurveyPrompter) Pause(ctx context.Context, message string) error {
	if !sp.interactive {
		return nil
	}

	var discard string
	err := survey.AskOne(&survey.Input{Message: message}, &discard)
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	return err
}

// IsInteractive returns whether prompts can be displayed
func (sp *SurveyPrompter) IsInteractive() bool {
	return sp.interactive
}
