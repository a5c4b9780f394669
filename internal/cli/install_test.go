package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devsetup/internal/prompt"
	"devsetup/internal/runner"
	"devsetup/internal/tools"
	"devsetup/internal/tui"
)

func decodeInstall(t *testing.T, stdout string) installOutput {
	t.Helper()
	var out installOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out), stdout)
	return out
}

func TestInstallJSONInstallsMissingTools(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})

	stdout, _, err := runCLI(t, "install", "--scope", "ai", "--json")
	require.NoError(t, err)

	out := decodeInstall(t, stdout)
	assert.True(t, out.Applied)
	require.NotEmpty(t, out.Results)
	assert.Len(t, out.Results, len(out.Plan.Steps))
	for _, res := range out.Results {
		assert.Equal(t, tools.OutcomeInstalled, res.Outcome, res.Tool)
	}
	assert.Equal(t, "node", out.Results[0].Tool)

	assert.Equal(t, []string{"preconditions", "clt", "homebrew", "path", "python"}, h.platform.calls)
	assert.Contains(t, h.machine.calls, "install "+tools.Source{Manager: tools.KindNative, Package: "claude-code"}.String())
}

func TestInstallMigratesWrongManager(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})
	h.machine.installed[tools.Source{Manager: tools.KindCask, Package: "codex"}] = true
	h.machine.bins["codex"] = true

	stdout, _, err := runCLI(t, "ai", "--json")
	require.NoError(t, err)

	out := decodeInstall(t, stdout)
	var codex *tools.Result
	for i := range out.Results {
		if out.Results[i].Tool == "codex" {
			codex = &out.Results[i]
		}
	}
	require.NotNil(t, codex)
	assert.Equal(t, tools.ActionMigrate, codex.Action)
	assert.Equal(t, tools.OutcomeMigrated, codex.Outcome)

	assert.Contains(t, h.machine.calls, "uninstall homebrew-cask:codex")
	assert.Contains(t, h.machine.calls, "install npm-global:@openai/codex")
}

func TestInstallDryRunChangesNothing(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})

	stdout, _, err := runCLI(t, "install", "--dry-run", "--json")
	require.NoError(t, err)

	out := decodeInstall(t, stdout)
	assert.False(t, out.Applied)
	assert.NotEmpty(t, out.Plan.Pending())
	assert.Empty(t, out.Results)
	assert.Equal(t, []string{"preconditions"}, h.platform.calls)
	assert.Empty(t, h.machine.calls)
}

func TestInstallNothingToDo(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})
	for _, spec := range tools.ForScope(tools.DefaultCatalog(), tools.ScopeWork) {
		h.machine.installed[tools.Source{Manager: spec.Manager, Package: spec.Package}] = true
		if spec.Executable != "" {
			h.machine.bins[spec.Executable] = true
		}
		if spec.AppBundle != "" {
			h.machine.apps[spec.AppBundle] = true
		}
	}

	stdout, _, err := runCLI(t, "work")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Everything is up to date.")
	assert.Equal(t, []string{"preconditions"}, h.platform.calls)
	assert.Empty(t, h.machine.calls)
}

func TestInstallPlainOutputSummarises(t *testing.T) {
	useFakeHost(t, prompt.NonInteractive{})

	stdout, _, err := runCLI(t, "install", "--scope", "work")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TOOL")
	assert.Contains(t, stdout, "visual-studio-code")
	assert.Contains(t, stdout, "0 upgraded, 0 migrated, 0 failed")
}

func TestInstallFatalPreconditionStopsEarly(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})
	h.platform.fatal = tools.Fatal("devsetup must not run as root", errors.New("euid 0"))

	_, _, err := runCLI(t, "install", "--json")
	require.Error(t, err)
	assert.True(t, tools.IsFatal(err))
	assert.Equal(t, 1, exitCode(err))
	assert.Equal(t, []string{"preconditions"}, h.platform.calls)
	assert.Empty(t, h.machine.calls)
}

func TestInstallDeclinedConfirmation(t *testing.T) {
	h := useFakeHost(t, fakePrompter{confirm: false})
	t.Setenv("NONINTERACTIVE", "")
	t.Setenv("CI", "")

	stdout, _, err := runCLI(t, "install", "--scope", "ai")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Nothing changed.")
	assert.Equal(t, []string{"preconditions"}, h.platform.calls)
	assert.Empty(t, h.machine.calls)
}

func TestInstallRejectsUnknownScope(t *testing.T) {
	useFakeHost(t, prompt.NonInteractive{})

	_, _, err := runCLI(t, "install", "--scope", "games")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scope")
}

func TestPlanSkipsPreconditions(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})
	h.platform.fatal = tools.Fatal("not macOS", errors.New("linux"))

	stdout, _, err := runCLI(t, "plan", "--scope", "work", "--json")
	require.NoError(t, err)

	var plan tools.Plan
	require.NoError(t, json.Unmarshal([]byte(stdout), &plan))
	assert.True(t, plan.Has("git"))
	assert.False(t, plan.Has("claude-code"))
	assert.Empty(t, h.platform.calls)
}

func TestToolsListJSON(t *testing.T) {
	useFakeHost(t, prompt.NonInteractive{})
	t.Setenv("DEVSETUP_JQ_PACKAGE", "jq@1.7")

	stdout, _, err := runCLI(t, "tools", "list", "--json")
	require.NoError(t, err)

	var entries []catalogEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	byKey := map[string]catalogEntry{}
	for _, e := range entries {
		byKey[e.Key] = e
	}
	require.Contains(t, byKey, "claude-code")
	assert.Equal(t, "DEVSETUP_CLAUDE_CODE_", byKey["claude-code"].OverrideVars)
	assert.Equal(t, "jq@1.7", byKey["jq"].Package)
}

func TestDoctorJSON(t *testing.T) {
	h := useFakeHost(t, prompt.NonInteractive{})
	h.machine.bins["brew"] = true
	h.runner.On("xcode-select -p", runner.Response{Stdout: "/Library/Developer/CommandLineTools\n"})
	h.runner.On("/opt/homebrew/bin/brew --version", runner.Response{Stdout: "Homebrew 4.4.1\n"})

	stdout, _, err := runCLI(t, "doctor", "--json")
	require.NoError(t, err)

	var checks []healthCheck
	require.NoError(t, json.Unmarshal([]byte(stdout), &checks))
	status := map[string]string{}
	for _, c := range checks {
		status[c.Name] = c.Status
	}
	assert.Equal(t, map[string]string{
		"Platform":   "ok",
		"Catalog":    "ok",
		"Xcode CLT":  "ok",
		"Homebrew":   "ok",
		"MCP config": "ok",
	}, status)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 130, exitCode(context.Canceled))
	assert.Equal(t, 130, exitCode(fmt.Errorf("apply: %w", context.Canceled)))
	assert.Equal(t, 130, exitCode(tui.ErrInterrupted))
	assert.Equal(t, 130, exitCode(prompt.ErrAborted))
	assert.Equal(t, 130, exitCode(fmt.Errorf("confirm: %w", prompt.ErrAborted)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 1, exitCode(tools.Fatal("homebrew unavailable", errors.New("exit 1"))))
}

type abortingPrompter struct{ fakePrompter }

func (abortingPrompter) Confirm(string, bool) (bool, error) { return false, prompt.ErrAborted }

func TestInstallAbortedConfirmationExits130(t *testing.T) {
	h := useFakeHost(t, abortingPrompter{})
	t.Setenv("NONINTERACTIVE", "")
	t.Setenv("CI", "")

	_, _, err := runCLI(t, "install", "--scope", "ai")
	require.ErrorIs(t, err, prompt.ErrAborted)
	assert.Equal(t, 130, exitCode(err))
	assert.Equal(t, []string{"preconditions"}, h.platform.calls)
	assert.Empty(t, h.machine.calls)
}
