package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"devsetup/internal/tools"
)

// ApplyColumns is the column layout for the apply progress table.
var ApplyColumns = []Column{
	{Header: "TOOL", Width: 20},
	{Header: "ACTION", Width: 8},
	{Header: "MANAGER", Width: 16},
	{Header: statusHeader, Width: 10},
	{Header: "DETAIL", Width: 40},
}

// NewApplyModel builds a progress model with one pending row per step that
// has work to do.
func NewApplyModel(title string, steps []tools.Step) ProgressModel {
	m := NewProgressModel(title, ApplyColumns)
	for _, s := range steps {
		m.AddRow(s.Tool, []string{s.Tool, string(s.Action), string(s.Manager), pendingState, stepDetail(s)})
	}
	return m
}

func stepDetail(s tools.Step) string {
	switch s.Action {
	case tools.ActionMigrate:
		if s.MigrateFrom != nil {
			return "from " + string(s.MigrateFrom.Manager)
		}
	case tools.ActionUpgrade:
		return s.InstalledVersion + " -> " + NonEmptyOrDash(s.LatestVersion)
	}
	return ""
}

// activeStatus maps an action to its in-progress label.
func activeStatus(a tools.Action) string {
	switch a {
	case tools.ActionUpgrade:
		return "upgrading"
	case tools.ActionMigrate:
		return "migrating"
	default:
		return "installing"
	}
}

func resultDetail(res tools.Result) string {
	if res.Error != "" {
		return res.Error
	}
	if len(res.Warnings) > 0 {
		return res.Warnings[0]
	}
	return res.Version
}

// ApplyReporter forwards reconciler progress to a bubbletea program.
type ApplyReporter struct {
	send func(tea.Msg)
}

func NewApplyReporter(send func(tea.Msg)) *ApplyReporter {
	return &ApplyReporter{send: send}
}

func (r *ApplyReporter) Start(s tools.Step) {
	r.send(RowUpdateMsg{Key: s.Tool, Fields: map[string]string{statusHeader: activeStatus(s.Action)}})
}

func (r *ApplyReporter) Complete(res tools.Result) {
	r.send(RowUpdateMsg{Key: res.Tool, Fields: map[string]string{
		statusHeader: string(res.Outcome),
		"DETAIL":     resultDetail(res),
	}})
}

// LineReporter prints one line per finished step, for non-terminal output.
type LineReporter struct {
	Out io.Writer
}

func (r LineReporter) Start(s tools.Step) {
	if s.Action == tools.ActionNoOp {
		return
	}
	fmt.Fprintf(r.Out, "%s: %s via %s...\n", s.Tool, s.Action, s.Manager)
}

func (r LineReporter) Complete(res tools.Result) {
	if res.Action == tools.ActionNoOp {
		return
	}
	line := fmt.Sprintf("%s: %s", res.Tool, res.Outcome)
	if detail := resultDetail(res); detail != "" {
		line += " (" + detail + ")"
	}
	fmt.Fprintln(r.Out, line)
	for _, w := range res.Warnings {
		if !strings.Contains(line, w) {
			fmt.Fprintf(r.Out, "  warning: %s\n", w)
		}
	}
}

var (
	_ tools.Reporter = (*ApplyReporter)(nil)
	_ tools.Reporter = LineReporter{}
)
