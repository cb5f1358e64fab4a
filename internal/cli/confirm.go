package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// Confirm asks a yes/no question and reports the answer. Anything other
// than y/yes (case-insensitive) is no.
//
// On an interactive terminal the prompt goes through liner so the user
// gets line editing and ctrl-c aborts cleanly; otherwise one line is
// read from stdin (which is how the tests drive it).
func (o *IO) Confirm(question string) (bool, error) {
	prompt := question + " [y/N]: "

	if o.interactive {
		return confirmInteractive(prompt)
	}

	o.Printf("%s", prompt)

	line, err := o.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}

		return false, err
	}

	return isYes(line), nil
}

func confirmInteractive(prompt string) (bool, error) {
	state := liner.NewLiner()
	defer func() { _ = state.Close() }()

	state.SetCtrlCAborts(true)

	line, err := state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return false, nil
		}

		return false, err
	}

	return isYes(line), nil
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}

	return false
}
