package tui

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode describes how progress output should be rendered.
type OutputMode int

const (
	ModeTUI OutputMode = iota
	ModePlain
	ModeJSON
)

// DetectMode picks the bubbletea view only for a real terminal with a usable
// TERM; everything else gets plain lines.
func DetectMode(out io.Writer, jsonOutput bool) OutputMode {
	if jsonOutput {
		return ModeJSON
	}
	file, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return ModePlain
	}
	if t := os.Getenv("TERM"); t == "" || strings.EqualFold(t, "dumb") {
		return ModePlain
	}
	return ModeTUI
}
