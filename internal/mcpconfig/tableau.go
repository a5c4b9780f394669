package mcpconfig

import (
	"errors"
	"strings"
)

const (
	TableauServerName = "tableau"
	tableauPackage    = "@tableau/mcp-server@latest"
)

// TableauSettings are the values the Tableau MCP server reads from its env.
type TableauSettings struct {
	Server   string
	SiteName string
	PATName  string
	PATValue string
}

func (s TableauSettings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Server) == "" {
		errs = append(errs, errors.New("server URL is required"))
	} else if !strings.HasPrefix(s.Server, "https://") {
		errs = append(errs, errors.New("server URL must start with https://"))
	}
	if strings.TrimSpace(s.PATName) == "" {
		errs = append(errs, errors.New("PAT name is required"))
	}
	if s.PATValue == "" {
		errs = append(errs, errors.New("PAT value is required"))
	}
	return errors.Join(errs...)
}

// TableauEntry builds the npx launch entry for the Tableau MCP server.
func TableauEntry(s TableauSettings) Entry {
	return Entry{
		Command: "npx",
		Args:    []string{"-y", tableauPackage},
		Env: map[string]string{
			"SERVER":    strings.TrimRight(strings.TrimSpace(s.Server), "/"),
			"SITE_NAME": strings.TrimSpace(s.SiteName),
			"PAT_NAME":  strings.TrimSpace(s.PATName),
			"PAT_VALUE": s.PATValue,
		},
	}
}
