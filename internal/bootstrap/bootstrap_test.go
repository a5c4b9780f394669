package bootstrap

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

var errExit1 = errors.New("exit status 1")

func TestCheckPreconditions(t *testing.T) {
	cases := []struct {
		name      string
		goos      string
		euid      int
		container bool
		fatal     bool
	}{
		{"macOS user", "darwin", 501, false, false},
		{"linux", "linux", 501, false, true},
		{"root on host", "darwin", 0, false, true},
		{"root in container", "darwin", 0, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Platform{
				GOOS:        tc.goos,
				Euid:        func() int { return tc.euid },
				InContainer: func() bool { return tc.container },
			}
			err := p.CheckPreconditions()
			if tc.fatal {
				require.Error(t, err)
				assert.True(t, tools.IsFatal(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEnsureCommandLineToolsPresent(t *testing.T) {
	fake := runner.NewFake().On("xcode-select -p", runner.Response{Stdout: "/Library/Developer/CommandLineTools\n"})
	p := &Platform{Runner: fake}

	require.NoError(t, p.EnsureCommandLineTools(context.Background()))
	assert.False(t, fake.Called("xcode-select --install"))
}

func TestEnsureCommandLineToolsWaitsForInstaller(t *testing.T) {
	fake := runner.NewFake()
	fake.On("xcode-select -p", runner.Response{Err: errExit1})
	polls := 0
	fake.On("xcode-select --install", runner.Response{Hook: func() {
		// The installer finishes after the second poll.
		fake.On("xcode-select -p", runner.Response{Err: errExit1, Hook: func() {
			polls++
			if polls == 2 {
				fake.On("xcode-select -p", runner.Response{})
			}
		}})
	}})
	p := &Platform{Runner: fake, PollInterval: time.Millisecond, CLTTimeout: 5 * time.Second}

	require.NoError(t, p.EnsureCommandLineTools(context.Background()))
	assert.True(t, fake.Called("xcode-select --install"))
	assert.Equal(t, 2, polls)
}

func TestEnsureCommandLineToolsTimesOut(t *testing.T) {
	fake := runner.NewFake().
		On("xcode-select -p", runner.Response{Err: errExit1}).
		On("xcode-select --install", runner.Response{Err: errExit1, Stderr: "install requested"})
	p := &Platform{Runner: fake, PollInterval: time.Millisecond, CLTTimeout: 20 * time.Millisecond}

	err := p.EnsureCommandLineTools(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, tools.IsFatal(err))
}

func TestEnsureCommandLineToolsHonoursCancel(t *testing.T) {
	fake := runner.NewFake().
		On("xcode-select -p", runner.Response{Err: errExit1}).
		On("xcode-select --install", runner.Response{})
	p := &Platform{Runner: fake, PollInterval: time.Hour, CLTTimeout: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.EnsureCommandLineTools(ctx), context.Canceled)
}

func TestEnsureHomebrewPresent(t *testing.T) {
	fake := runner.NewFake()
	p := &Platform{
		Runner:   fake,
		LookPath: func(string) (string, error) { return "/opt/homebrew/bin/brew", nil },
	}
	brew, err := p.EnsureHomebrew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/homebrew/bin/brew", brew)
	assert.Empty(t, fake.Calls())
}

func TestEnsureHomebrewInstalls(t *testing.T) {
	url := "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"
	installed := false
	fake := runner.NewFake().On("/bin/bash -c "+homebrewInstallCommand(url), runner.Response{Hook: func() { installed = true }})
	p := &Platform{
		Runner:             fake,
		HomebrewInstallURL: url,
		NonInteractive:     true,
		LookPath: func(string) (string, error) {
			if installed {
				return "/opt/homebrew/bin/brew", nil
			}
			return "", exec.ErrNotFound
		},
	}
	brew, err := p.EnsureHomebrew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/homebrew/bin/brew", brew)
}

func TestEnsureHomebrewFailureIsFatal(t *testing.T) {
	url := "https://example.invalid/install.sh"
	fake := runner.NewFake().On("/bin/bash -c "+homebrewInstallCommand(url), runner.Response{Err: errExit1, Stderr: "curl: (6) Could not resolve host"})
	p := &Platform{
		Runner:             fake,
		HomebrewInstallURL: url,
		NonInteractive:     true,
		LookPath:           func(string) (string, error) { return "", exec.ErrNotFound },
	}
	_, err := p.EnsureHomebrew(context.Background())
	require.Error(t, err)
	assert.True(t, tools.IsFatal(err))
	assert.Contains(t, err.Error(), "Could not resolve host")
}
