package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"devsetup/internal/logx"
	"devsetup/internal/notify"
	"devsetup/internal/setup"
	"devsetup/internal/tools"
	"devsetup/internal/tui"
)

var (
	installScope  string
	installDryRun bool
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install, upgrade or migrate developer tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, err := tools.ParseScope(installScope)
			if err != nil {
				return err
			}
			return runInstall(cmd, scope, installDryRun)
		},
	}
	cmd.Flags().StringVar(&installScope, "scope", string(tools.ScopeAll), "Which tools to reconcile: work, ai or all")
	cmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Show the plan without changing anything")
	return cmd
}

func newScopeAliasCmd(scope, short string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   scope,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, tools.Scope(scope), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without changing anything")
	return cmd
}

type installOutput struct {
	Plan     tools.Plan     `json:"plan"`
	Results  []tools.Result `json:"results"`
	Warnings []string       `json:"warnings,omitempty"`
	Applied  bool           `json:"applied"`
	LogFile  string         `json:"log_file,omitempty"`
}

func runInstall(cmd *cobra.Command, scope tools.Scope, dryRun bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	env, err := openEnvironment(cmd, scope)
	if err != nil {
		return err
	}
	defer env.Close()

	mode := tui.DetectMode(out, outputJSON)
	progress := errOut
	if mode == tui.ModeJSON {
		progress = nil
	}
	sess := env.session(progress)

	plan, err := sess.Prepare(ctx)
	if err != nil {
		env.log.WithError(err).Error("preconditions failed")
		return err
	}

	if mode != tui.ModeJSON {
		renderPlanTable(out, plan)
	}
	if dryRun || plan.IsNoOp() {
		if mode == tui.ModeJSON {
			return writeJSON(out, installOutput{Plan: plan, LogFile: logx.Path(env.log)})
		}
		if plan.IsNoOp() {
			notify.Successf(out, "Everything is up to date.")
		}
		return nil
	}

	if !env.cfg.NonInteractive {
		ok, err := env.prompter.Confirm(fmt.Sprintf("Apply %d change(s)?", len(plan.Pending())), true)
		if err != nil {
			return err
		}
		if !ok {
			notify.Infof(out, "Nothing changed.")
			return nil
		}
	}

	var sum setup.Summary
	if err := sess.Bootstrap(ctx, &sum); err != nil {
		env.log.WithError(err).Error("bootstrap failed")
		return err
	}

	switch mode {
	case tui.ModeTUI:
		model := tui.NewApplyModel("devsetup "+string(scope), plan.Pending())
		err = tui.RunWithWork(ctx, out, model, func(ctx context.Context, send func(tea.Msg)) error {
			sess.Apply(ctx, plan, tui.NewApplyReporter(send), &sum)
			return nil
		})
		if err != nil {
			return err
		}
	case tui.ModePlain:
		sess.Apply(ctx, plan, tui.LineReporter{Out: out}, &sum)
	default:
		sess.Apply(ctx, plan, tools.NopReporter{}, &sum)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == tui.ModeJSON {
		return writeJSON(out, installOutput{
			Plan:     plan,
			Results:  sum.Results,
			Warnings: sum.Warnings,
			Applied:  true,
			LogFile:  logx.Path(env.log),
		})
	}
	writeSummary(out, errOut, sum, logx.Path(env.log))
	return nil
}

func writeSummary(out, errOut io.Writer, sum setup.Summary, logFile string) {
	for _, w := range sum.Warnings {
		notify.Warningf(errOut, "%s", w)
	}
	for _, res := range sum.Failed() {
		notify.Warningf(errOut, "%s: %s", res.Tool, res.Error)
		for _, w := range res.Warnings {
			notify.Warningf(errOut, "%s: %s", res.Tool, w)
		}
	}
	for _, res := range sum.Results {
		if !res.Failed() {
			for _, w := range res.Warnings {
				notify.Warningf(errOut, "%s: %s", res.Tool, w)
			}
		}
	}

	counts := sum.Counts()
	line := fmt.Sprintf("%d installed, %d upgraded, %d migrated, %d failed",
		counts[tools.OutcomeInstalled], counts[tools.OutcomeUpgraded], counts[tools.OutcomeMigrated], counts[tools.OutcomeFailed])
	if counts[tools.OutcomeFailed] > 0 {
		notify.Warningf(out, "%s", line)
	} else {
		notify.Successf(out, "%s", line)
	}
	if logFile != "" {
		notify.Infof(out, "Log: %s", logFile)
	}
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
