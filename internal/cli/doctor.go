package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"devsetup/internal/config"
	"devsetup/internal/mcpconfig"
	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check machine readiness without changing anything",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var checks []healthCheck
	checks = append(checks, checkPlatform(cfg))

	specs, catErr := resolveCatalog(&cfg)
	checks = append(checks, checkCatalog(specs, catErr))

	locator := hostDeps.newLocator(cfg, specs)
	checks = append(checks, checkCommandLineTools(cmd))
	checks = append(checks, checkHomebrew(cmd, locator))
	checks = append(checks, checkMCPConfig(cfg))

	return writeDoctorResult(cmd, checks)
}

func checkPlatform(cfg config.Config) healthCheck {
	p := hostDeps.newPlatform(hostDeps.runner, cfg, nil, nil)
	if err := p.CheckPreconditions(); err != nil {
		return healthCheck{Name: "Platform", Status: "error", Summary: err.Error()}
	}
	mode := "interactive"
	if cfg.NonInteractive {
		mode = "non-interactive"
	}
	return healthCheck{Name: "Platform", Status: "ok", Summary: "macOS, " + mode}
}

func checkCatalog(specs []tools.ToolSpec, err error) healthCheck {
	if err != nil {
		return healthCheck{Name: "Catalog", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Catalog", Status: "ok", Summary: fmt.Sprintf("%d tools", len(specs))}
}

func checkCommandLineTools(cmd *cobra.Command) healthCheck {
	res, err := hostDeps.runner.Run(cmd.Context(), "xcode-select", []string{"-p"}, runner.Options{})
	if err != nil {
		return healthCheck{Name: "Xcode CLT", Status: "warning", Summary: "not installed; install will request them"}
	}
	return healthCheck{Name: "Xcode CLT", Status: "ok", Summary: strings.TrimSpace(string(res.Stdout))}
}

func checkHomebrew(cmd *cobra.Command, locator tools.Locator) healthCheck {
	brew, ok := locator.Find("brew")
	if !ok {
		return healthCheck{Name: "Homebrew", Status: "warning", Summary: "not installed; install will bootstrap it"}
	}
	res, err := hostDeps.runner.Run(cmd.Context(), brew, []string{"--version"}, runner.Options{})
	if err != nil {
		return healthCheck{Name: "Homebrew", Status: "error", Summary: runner.CommandError(brew, []string{"--version"}, res, err).Error()}
	}
	return healthCheck{Name: "Homebrew", Status: "ok", Summary: tools.ParseVersion(string(res.Stdout)) + " at " + brew}
}

func checkMCPConfig(cfg config.Config) healthCheck {
	v, err := mcpconfig.New(cfg.MCPConfigFile).Validate()
	if err != nil {
		return healthCheck{Name: "MCP config", Status: "error", Summary: err.Error()}
	}
	switch v.Status {
	case mcpconfig.StatusMissing:
		return healthCheck{Name: "MCP config", Status: "ok", Summary: "not created yet: " + cfg.MCPConfigFile}
	case mcpconfig.StatusInvalid:
		return healthCheck{Name: "MCP config", Status: "error", Summary: v.Reason}
	}
	return healthCheck{Name: "MCP config", Status: "ok", Summary: cfg.MCPConfigFile}
}

func writeDoctorResult(cmd *cobra.Command, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("MACHINE HEALTH:"))

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}
	return nil
}
