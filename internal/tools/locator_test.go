package tools

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemLocatorFallsBackToDirs(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "claude")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	notExec := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(notExec, []byte("x"), 0o644))

	l := NewSystemLocator([]string{filepath.Join(dir, "missing"), dir}, nil)
	l.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	path, ok := l.Find("claude")
	assert.True(t, ok)
	assert.Equal(t, bin, path)

	_, ok = l.Find("data")
	assert.False(t, ok)

	_, ok = l.Find("")
	assert.False(t, ok)

	path, ok = l.Find(bin)
	assert.True(t, ok)
	assert.Equal(t, bin, path)
}

func TestSystemLocatorPrefersPath(t *testing.T) {
	l := NewSystemLocator([]string{t.TempDir()}, nil)
	l.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	path, ok := l.Find("git")
	assert.True(t, ok)
	assert.Equal(t, "/usr/bin/git", path)
}

func TestSystemLocatorFindApp(t *testing.T) {
	apps := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(apps, "Slack.app", "Contents"), 0o755))

	l := NewSystemLocator(nil, []string{filepath.Join(apps, "none"), apps})
	path, ok := l.FindApp("Slack.app")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(apps, "Slack.app"), path)

	_, ok = l.FindApp("Zoom.app")
	assert.False(t, ok)
}

func TestManualCommands(t *testing.T) {
	assert.Equal(t, "brew install --cask slack", ManualCommand(ToolSpec{Manager: KindCask, Package: "slack"}))
	assert.Equal(t, "curl -fsSL https://example.com/i.sh | bash",
		ManualCommand(ToolSpec{Manager: KindNative, Installer: &Installer{ScriptURL: "https://example.com/i.sh"}}))
	assert.Equal(t, "npm uninstall -g @openai/codex", ManualUninstall(Source{Manager: KindNpm, Package: "@openai/codex"}))
	assert.Empty(t, ManualUninstall(Source{Manager: KindNative, Package: "claude-code"}))
}
