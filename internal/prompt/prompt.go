// Package prompt asks the user for confirmations, text and secrets.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrNonInteractive is returned when input is required but prompts are
// disabled.
var ErrNonInteractive = errors.New("input required but running non-interactively")

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

type Prompter interface {
	// Confirm asks a yes/no question; def is used for an empty answer.
	Confirm(question string, def bool) (bool, error)
	Line(label, def string) (string, error)
	// Secret reads a value without echo. The value is never logged.
	Secret(label string) (string, error)
}

// Terminal prompts on the controlling terminal.
type Terminal struct {
	In  *os.File
	Out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) readLine(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		Stdin:           t.In,
		Stdout:          t.Out,
		Stderr:          t.Out,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", ErrAborted
	}
	if err != nil {
		return "", fmt.Errorf("readline error: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		answer, err := t.readLine(fmt.Sprintf("%s %s ", question, hint))
		if err != nil {
			return false, err
		}
		if ok, valid := ParseYesNo(answer, def); valid {
			return ok, nil
		}
		fmt.Fprintln(t.Out, "Please answer y or n.")
	}
}

func (t *Terminal) Line(label, def string) (string, error) {
	prompt := label + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, def)
	}
	answer, err := t.readLine(prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (t *Terminal) Secret(label string) (string, error) {
	fd := int(t.In.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s: stdin is not a terminal", label)
	}
	fmt.Fprintf(t.Out, "%s: ", label)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(t.Out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return string(value), nil
}

// NonInteractive answers every question with its default. Questions without
// a default fail with ErrNonInteractive.
type NonInteractive struct{}

func (NonInteractive) Confirm(_ string, def bool) (bool, error) { return def, nil }

func (NonInteractive) Line(label, def string) (string, error) {
	if def == "" {
		return "", fmt.Errorf("%s: %w", label, ErrNonInteractive)
	}
	return def, nil
}

func (NonInteractive) Secret(label string) (string, error) {
	return "", fmt.Errorf("%s: %w", label, ErrNonInteractive)
}

// ParseYesNo interprets a confirmation answer. valid is false for anything
// that is neither empty, yes nor no.
func ParseYesNo(answer string, def bool) (value, valid bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, true
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var (
	_ Prompter = (*Terminal)(nil)
	_ Prompter = NonInteractive{}
)
