package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"devsetup/internal/notify"
	"devsetup/internal/prompt"
	"devsetup/internal/tui"
)

var (
	configPath  string
	catalogPath string
	outputJSON  bool
)

// Execute runs the root cobra command and exits non-zero on failure. Tools
// that fail to install are reported but do not change the exit status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		notify.Errorf(os.Stderr, "%v", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an interrupted run, however it was interrupted, to 130.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, tui.ErrInterrupted),
		errors.Is(err, prompt.ErrAborted):
		return 130
	}
	return 1
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devsetup",
		Short:         "Bootstrap and update a macOS developer workstation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Path to the MCP server registry JSON file")
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to a YAML tool catalog merged over the defaults")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")

	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newScopeAliasCmd("work", "Install and update work tools and applications"))
	cmd.AddCommand(newScopeAliasCmd("ai", "Install, update or migrate the AI command line tools"))
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}
