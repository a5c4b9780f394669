package tui

import "github.com/charmbracelet/lipgloss"

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))

	statusStyles = map[string]lipgloss.Style{
		// Terminal states
		"installed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"upgraded":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"migrated":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"current":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"installing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"upgrading":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"migrating":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		"skipped": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"failed":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func isTerminalStatus(status string) bool {
	switch status {
	case "installed", "upgraded", "migrated", "current", "skipped", "failed":
		return true
	}
	return false
}
