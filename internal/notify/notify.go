// Package notify prints short user-facing status lines with a symbol and
// color per message kind.
package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	fcolor "github.com/fatih/color"
)

type kind int

const (
	errorKind kind = iota
	warningKind
	activityKind
	successKind
	infoKind
)

type style struct {
	symbol string
	color  *fcolor.Color
}

func styleFor(k kind) style {
	switch k {
	case errorKind:
		return style{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case warningKind:
		return style{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)}
	case successKind:
		return style{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	case infoKind:
		return style{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	default:
		return style{symbol: "► ", color: fcolor.New(fcolor.Reset)}
	}
}

func Errorf(w io.Writer, format string, args ...any)    { write(w, errorKind, format, args...) }
func Warningf(w io.Writer, format string, args ...any)  { write(w, warningKind, format, args...) }
func Activityf(w io.Writer, format string, args ...any) { write(w, activityKind, format, args...) }
func Successf(w io.Writer, format string, args ...any)  { write(w, successKind, format, args...) }
func Infof(w io.Writer, format string, args ...any)     { write(w, infoKind, format, args...) }

func write(w io.Writer, k kind, format string, args ...any) {
	if w == nil {
		w = os.Stdout
	}
	content := format
	if len(args) > 0 {
		content = fmt.Sprintf(format, args...)
	}
	s := styleFor(k)
	content = indent(content, s.symbol)
	if _, err := s.color.Fprintf(w, "%s%s\n", s.symbol, content); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}

// indent aligns continuation lines under the text of the first line.
func indent(content, symbol string) string {
	if !strings.Contains(content, "\n") {
		return content
	}
	pad := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
