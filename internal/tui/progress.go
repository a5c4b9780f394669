package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 150 * time.Millisecond
	marqueeGap   = "   "
	statusHeader = "STATUS"
	pendingState = "pending"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tickMsg time.Time

// Column defines a single column in the progress table.
type Column struct {
	Header string
	Width  int
}

type row struct {
	key    string
	fields []string
}

// ProgressModel renders one row per tool and updates rows in place as the
// reconciler reports progress.
type ProgressModel struct {
	title     string
	columns   []Column
	rows      []row
	rowIndex  map[string]int
	statusCol int

	done bool
	err  error
	tick int
}

func NewProgressModel(title string, columns []Column) ProgressModel {
	statusCol := -1
	for i, c := range columns {
		if strings.EqualFold(c.Header, statusHeader) {
			statusCol = i
			break
		}
	}
	return ProgressModel{
		title:     title,
		columns:   columns,
		rowIndex:  make(map[string]int),
		statusCol: statusCol,
	}
}

// AddRow pre-populates a row. Call this before the program starts.
func (m *ProgressModel) AddRow(key string, fields []string) {
	padded := make([]string, len(m.columns))
	copy(padded, fields)
	m.rowIndex[key] = len(m.rows)
	m.rows = append(m.rows, row{key: key, fields: padded})
}

// Field returns the current value of a cell, or "" when absent.
func (m ProgressModel) Field(key, header string) string {
	idx, ok := m.rowIndex[key]
	if !ok {
		return ""
	}
	for j, col := range m.columns {
		if col.Header == header {
			return m.rows[idx].fields[j]
		}
	}
	return ""
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ProgressModel) Init() tea.Cmd {
	return scheduleTick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case RowUpdateMsg:
		if idx, ok := m.rowIndex[msg.Key]; ok {
			for j, col := range m.columns {
				if val, exists := msg.Fields[col.Header]; exists {
					m.rows[idx].fields[j] = val
				}
			}
		}
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = ErrInterrupted
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ProgressModel) widths() []int {
	widths := make([]int, len(m.columns))
	for i, col := range m.columns {
		widths[i] = max(len(col.Header), col.Width)
	}
	return widths
}

func (m ProgressModel) View() string {
	if m.done && m.err != nil && m.err != ErrInterrupted {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	widths := m.widths()

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	header := make([]string, len(m.columns))
	for i, col := range m.columns {
		header[i] = HeaderStyle.Render(pad(col.Header, widths[i]))
	}
	b.WriteString(strings.Join(header, "  "))
	b.WriteByte('\n')

	for _, r := range m.rows {
		parts := make([]string, len(m.columns))
		for i := range m.columns {
			val := r.fields[i]
			if !m.done && len(strings.TrimSpace(val)) > widths[i] {
				val = marqueeText(val, widths[i], m.tick)
			} else {
				val = TruncateWithEllipsis(val, widths[i])
			}
			if i == m.statusCol {
				parts[i] = StatusStyle(val).Render(pad(val, widths[i]))
			} else {
				parts[i] = pad(val, widths[i])
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		finished, total := m.progressCounts()
		frame := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Reconciling %d/%d...\n", frame, finished, total)
	}
	return b.String()
}

// progressCounts returns how many rows reached a terminal status.
func (m ProgressModel) progressCounts() (int, int) {
	total := len(m.rows)
	if m.statusCol < 0 {
		return 0, total
	}
	finished := 0
	for _, r := range m.rows {
		if isTerminalStatus(strings.TrimSpace(r.fields[m.statusCol])) {
			finished++
		}
	}
	return finished, total
}

func (m ProgressModel) Done() bool { return m.done }

func (m ProgressModel) Err() error { return m.err }

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// marqueeText scrolls text that does not fit in width, one byte per tick.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	cycle := text + marqueeGap
	offset := tick % len(cycle)
	var out strings.Builder
	out.Grow(width)
	for i := 0; i < width; i++ {
		out.WriteByte(cycle[(offset+i)%len(cycle)])
	}
	return out.String()
}

// NonEmptyOrDash returns "-" for empty or whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis shortens value to max bytes, ending in "...".
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
