package pkgmgr

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

var errExit1 = errors.New("exit status 1")

func TestHomebrewFormula(t *testing.T) {
	ctx := context.Background()
	fake := runner.NewFake().
		On("brew list --formula --versions jq", runner.Response{Stdout: "jq 1.6 1.7.1\n"}).
		On("brew list --formula --versions gh", runner.Response{Err: errExit1}).
		On("brew info --json=v2 --formula jq", runner.Response{Stdout: `{"formulae":[{"name":"jq","versions":{"stable":"1.7.1"},"revision":0}],"casks":[]}`}).
		On("brew install --formula gh", runner.Response{}).
		On("brew upgrade --formula jq", runner.Response{Err: errExit1, Stderr: "Error: jq 1.7.1 already installed\n"})

	brew := NewFormula(fake)
	brew.Brew = "brew"
	assert.Equal(t, tools.KindFormula, brew.Kind())

	ok, err := brew.IsInstalled(ctx, "jq")
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := brew.InstalledVersion(ctx, "jq")
	require.NoError(t, err)
	assert.Equal(t, "1.7.1", v)

	ok, err = brew.IsInstalled(ctx, "gh")
	require.NoError(t, err)
	assert.False(t, ok)

	latest, err := brew.LatestVersion(ctx, "jq")
	require.NoError(t, err)
	assert.Equal(t, "1.7.1", latest)

	require.NoError(t, brew.Install(ctx, "gh"))

	err = brew.Upgrade(ctx, "jq")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already installed")
}

func TestHomebrewCask(t *testing.T) {
	ctx := context.Background()
	fake := runner.NewFake().
		On("brew list --cask --versions slack", runner.Response{Stdout: "slack 4.41.97\n"}).
		On("brew info --json=v2 --cask slack", runner.Response{Stdout: `{"formulae":[],"casks":[{"token":"slack","version":"4.41.105"}]}`}).
		On("brew uninstall --cask claude-code", runner.Response{})

	brew := NewCask(fake, "NONINTERACTIVE=1")
	brew.Brew = "brew"
	assert.Equal(t, tools.KindCask, brew.Kind())

	v, err := brew.InstalledVersion(ctx, "slack")
	require.NoError(t, err)
	assert.Equal(t, "4.41.97", v)

	latest, err := brew.LatestVersion(ctx, "slack")
	require.NoError(t, err)
	assert.Equal(t, "4.41.105", latest)

	require.NoError(t, brew.Uninstall(ctx, "claude-code"))
	assert.True(t, fake.Called("brew uninstall --cask claude-code"))
}

func TestHomebrewInfoErrors(t *testing.T) {
	fake := runner.NewFake().
		On("brew info --json=v2 --cask nope", runner.Response{Stdout: `{"formulae":[],"casks":[]}`}).
		On("brew info --json=v2 --formula bad", runner.Response{Stdout: `not json`})

	cask := &Homebrew{Runner: fake, Cask: true, Brew: "brew"}
	_, err := cask.LatestVersion(context.Background(), "nope")
	assert.ErrorContains(t, err, "no cask nope")

	formula := &Homebrew{Runner: fake, Brew: "brew"}
	_, err = formula.LatestVersion(context.Background(), "bad")
	assert.ErrorContains(t, err, "decode brew info")
}

func notOnPath(string) (string, error) { return "", exec.ErrNotFound }

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func TestHomebrewFoundOnlyInPrefixDir(t *testing.T) {
	prefix := t.TempDir()
	brewPath := writeExecutable(t, prefix, "brew")
	fake := runner.NewFake().
		On(brewPath+" list --formula --versions node", runner.Response{Stdout: "node 20.11.0\n"}).
		On(brewPath+" info --json=v2 --formula node", runner.Response{Stdout: `{"formulae":[{"name":"node","versions":{"stable":"22.9.0"},"revision":0}],"casks":[]}`}).
		On(brewPath+" upgrade --formula node", runner.Response{})

	brew := NewFormula(fake)
	brew.Dirs = []string{prefix}
	brew.lookPath = notOnPath

	ok, err := brew.IsInstalled(context.Background(), "node")
	require.NoError(t, err)
	assert.True(t, ok)

	// The reconciler must see the prefix-only brew install as stale, not
	// as something installed outside any manager.
	binDir := t.TempDir()
	writeExecutable(t, binDir, "node")
	rec := &tools.Reconciler{
		Managers: tools.Managers{tools.KindFormula: brew},
		Locator:  &tools.SystemLocator{Dirs: []string{binDir}},
	}
	t.Setenv("PATH", t.TempDir())
	step := rec.Inspect(context.Background(), tools.ToolSpec{
		Name: "node", Manager: tools.KindFormula, Package: "node", Executable: "node",
	})
	assert.Equal(t, tools.StateManagedStale, step.State)
	assert.Equal(t, tools.ActionUpgrade, step.Action)
	assert.Equal(t, "20.11.0", step.InstalledVersion)

	require.NoError(t, brew.Upgrade(context.Background(), "node"))
	assert.True(t, fake.Called(brewPath+" upgrade --formula node"))
}

func TestHomebrewMissingIsAnError(t *testing.T) {
	fake := runner.NewFake().
		On("brew list --formula --versions node", runner.Response{Err: exec.ErrNotFound})

	brew := NewFormula(fake)
	brew.Dirs = []string{t.TempDir()}
	brew.lookPath = notOnPath

	_, err := brew.IsInstalled(context.Background(), "node")
	assert.ErrorContains(t, err, "homebrew not available")
}

func TestNewRegistersEveryKind(t *testing.T) {
	managers := New(runner.NewFake(), Options{NonInteractive: true})
	for _, k := range tools.Kinds() {
		m, ok := managers[k]
		require.True(t, ok, string(k))
		assert.Equal(t, k, m.Kind())
	}
	assert.Contains(t, managers[tools.KindFormula].(*Homebrew).Env, "NONINTERACTIVE=1")

	managers = New(runner.NewFake(), Options{PythonShims: "/Users/me/.pyenv/shims"})
	assert.Equal(t, []string{"/Users/me/.pyenv/shims"}, managers[tools.KindPip].(*Pip).ShimDirs)
}
