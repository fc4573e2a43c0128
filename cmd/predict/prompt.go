package main

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/DukeRupert/churnform/internal/domain"
)

// errAborted signals the user interrupted a prompt.
var errAborted = errors.New("predict: aborted")

// askFunc matches survey.AskOne so tests can answer prompts without a
// terminal.
type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

type prompter struct {
	ask askFunc
}

// askField prompts for one field and returns the raw value to store.
// current pre-selects the existing value; problem is shown when the field
// was rejected on the last attempt.
func (p *prompter) askField(f domain.Field, current, problem string) (string, error) {
	message := f.Label
	if problem != "" {
		message = fmt.Sprintf("%s (%s)", f.Label, problem)
	}

	if f.IsNumeric() {
		var out string
		prompt := &survey.Input{
			Message: message,
			Default: current,
			Help:    "Enter a number",
		}
		err := p.ask(prompt, &out, survey.WithValidator(numberValidator(f)))
		if err != nil {
			return "", translateSurveyErr(err)
		}
		return out, nil
	}

	labels := make([]string, len(f.Options))
	for i, o := range f.Options {
		labels[i] = o.Label
	}
	prompt := &survey.Select{
		Message:  message,
		Options:  labels,
		PageSize: len(labels),
	}
	if label, ok := optionLabel(f, current); ok {
		prompt.Default = label
	}

	var chosen string
	if err := p.ask(prompt, &chosen); err != nil {
		return "", translateSurveyErr(err)
	}
	for _, o := range f.Options {
		if o.Label == chosen {
			return o.Value, nil
		}
	}
	return chosen, nil
}

func numberValidator(f domain.Field) survey.Validator {
	return func(ans interface{}) error {
		s, _ := ans.(string)
		if msg := domain.ValidateValue(f, s); msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

func optionLabel(f domain.Field, value string) (string, bool) {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
