package cli

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"devsetup/internal/tools"
	"devsetup/internal/tui"
)

var planScope string

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what install would do without changing anything",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}
	cmd.Flags().StringVar(&planScope, "scope", string(tools.ScopeAll), "Which tools to inspect: work, ai or all")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	scope, err := tools.ParseScope(planScope)
	if err != nil {
		return err
	}
	env, err := openEnvironment(cmd, scope)
	if err != nil {
		return err
	}
	defer env.Close()

	plan := env.rec.Plan(cmd.Context(), env.specs)
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), plan)
	}
	renderPlanTable(cmd.OutOrStdout(), plan)
	return nil
}

func renderPlanTable(out io.Writer, plan tools.Plan) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"TOOL", "MANAGER", "PACKAGE", "STATE", "ACTION", "INSTALLED", "LATEST", "NOTES"})
	for _, s := range plan.Steps {
		t.AppendRow(table.Row{
			s.Tool,
			string(s.Manager),
			s.Package,
			stateLabel(s),
			actionLabel(s.Action),
			tui.NonEmptyOrDash(s.InstalledVersion),
			tui.NonEmptyOrDash(s.LatestVersion),
			strings.Join(s.Notes, "; "),
		})
	}
	t.Render()
}

func stateLabel(s tools.Step) string {
	if s.State == tools.StateManagedWrong && s.MigrateFrom != nil {
		return string(s.State) + " (" + s.MigrateFrom.String() + ")"
	}
	return string(s.State)
}

func actionLabel(a tools.Action) string {
	switch a {
	case tools.ActionInstall, tools.ActionUpgrade:
		return text.FgGreen.Sprint(string(a))
	case tools.ActionMigrate:
		return text.FgYellow.Sprint(string(a))
	default:
		return text.Faint.Sprint(string(a))
	}
}
