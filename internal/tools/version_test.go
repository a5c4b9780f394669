package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devsetup/internal/runner"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"1.0.33 (Claude Code)\n", "1.0.33"},
		{"v22.11.0\n", "22.11.0"},
		{"codex-cli 0.46.0", "0.46.0"},
		{"jq-1.7.1", "1.7.1"},
		{"Python 3.12.4", "3.12.4"},
		{"gh version 2.62.0 (2024-11-14)\nhttps://github.com/cli/cli/releases/tag/v2.62.0", "2.62.0"},
		{"2024.07.16", "2024.07.16"},
		{"0.9.0-nightly.20250101", "0.9.0-nightly.20250101"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseVersion(tt.output), tt.output)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2", "1.2.0", 0},
		{"v1.2.4", "1.2.3", 1},
		{"1.9.9", "2.0.0", -1},
		{"2.0.0-beta.1", "2.0.0", -1},
		{"1.7.1_1", "1.7.1", 0},
		{"4.38.1,abc123", "4.38.2", -1},
		{"2024.07.16", "2024.10.22", -1},
		{"1.2.3.4", "1.2.3.5", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestIsOlder(t *testing.T) {
	assert.True(t, IsOlder("1.0.0", "1.0.1"))
	assert.False(t, IsOlder("1.0.1", "1.0.1"))
	assert.False(t, IsOlder("", "1.0.1"))
	assert.False(t, IsOlder("1.0.0", ""))
}

func TestReadVersionUsesRunner(t *testing.T) {
	fake := runner.NewFake().
		On("/opt/homebrew/bin/node --version", runner.Response{Stdout: "v22.11.0\n"}).
		On("/usr/bin/tool -V", runner.Response{Stderr: "tool 3.1.4\n"})

	v, err := readVersion(context.Background(), fake, "/opt/homebrew/bin/node", nil)
	require.NoError(t, err)
	assert.Equal(t, "22.11.0", v)

	v, err = readVersion(context.Background(), fake, "/usr/bin/tool", []string{"-V"})
	require.NoError(t, err)
	assert.Equal(t, "3.1.4", v)

	_, err = readVersion(context.Background(), fake, "/missing", nil)
	assert.ErrorIs(t, err, runner.ErrUnscripted)
}

func TestInspectPrefersExecutableVersion(t *testing.T) {
	w := newWorld()
	w.register(KindFormula, "node", "22.10.0", "node")
	w.advertise(KindFormula, "node", "22.11.0", "node")
	fake := runner.NewFake().On("/fake/homebrew-formula/node --version", runner.Response{Stdout: "v22.11.0\n"})

	r := newReconciler(w)
	r.Runner = fake
	step := r.Inspect(context.Background(), ToolSpec{Name: "node", Manager: KindFormula, Package: "node", Executable: "node"})
	assert.Equal(t, "22.11.0", step.InstalledVersion)
	assert.Equal(t, StateManagedCurrent, step.State)
}
