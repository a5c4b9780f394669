// Package bootstrap prepares a macOS machine for package installs: it checks
// preconditions, waits for the Xcode Command Line Tools, installs Homebrew and
// brings the Homebrew and pyenv environments into the running process.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"

	"devsetup/internal/paths"
	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultCLTTimeout   = 30 * time.Minute
)

// ErrTimeout is returned when a wait for an external installer expires.
var ErrTimeout = errors.New("timed out waiting")

// Platform performs machine-level setup. Zero-valued hooks fall back to the
// real process environment.
type Platform struct {
	Runner runner.Runner
	Log    logrus.FieldLogger

	GOOS        string
	Euid        func() int
	InContainer func() bool
	Getenv      func(string) string
	Setenv      func(string, string) error
	LookPath    func(string) (string, error)

	HomebrewInstallURL string
	NonInteractive     bool

	PollInterval time.Duration
	CLTTimeout   time.Duration
	// Progress receives the wait spinner; nil disables it.
	Progress io.Writer
}

// New returns a Platform wired to the host.
func New(r runner.Runner, log logrus.FieldLogger) *Platform {
	return &Platform{Runner: r, Log: log}
}

func (p *Platform) goos() string {
	if p.GOOS != "" {
		return p.GOOS
	}
	return runtime.GOOS
}

func (p *Platform) getenv(key string) string {
	if p.Getenv != nil {
		return p.Getenv(key)
	}
	return os.Getenv(key)
}

func (p *Platform) setenv(key, value string) error {
	if p.Setenv != nil {
		return p.Setenv(key, value)
	}
	return os.Setenv(key, value)
}

func (p *Platform) logger() logrus.FieldLogger {
	if p.Log != nil {
		return p.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// CheckPreconditions fails fatally off macOS or when running as root outside
// a container.
func (p *Platform) CheckPreconditions() error {
	if goos := p.goos(); goos != "darwin" {
		return tools.Fatal(fmt.Sprintf("unsupported operating system %q, macOS is required", goos), nil)
	}
	euid := os.Geteuid
	if p.Euid != nil {
		euid = p.Euid
	}
	inContainer := detectContainer
	if p.InContainer != nil {
		inContainer = p.InContainer
	}
	if euid() == 0 && !inContainer() {
		return tools.Fatal("refusing to run as root outside a container", nil)
	}
	return nil
}

func detectContainer() bool {
	if os.Getenv("container") != "" {
		return true
	}
	for _, marker := range []string{"/.dockerenv", "/run/.containerenv"} {
		if ok, _ := paths.FileExists(marker); ok {
			return true
		}
	}
	return false
}

// EnsureCommandLineTools triggers the Command Line Tools installer when they
// are missing and waits for it to finish.
func (p *Platform) EnsureCommandLineTools(ctx context.Context) error {
	if p.cltInstalled(ctx) {
		p.logger().Debug("command line tools present")
		return nil
	}
	p.logger().Info("requesting command line tools install")
	res, err := p.Runner.Run(ctx, "xcode-select", []string{"--install"}, runner.Options{})
	if err != nil {
		// xcode-select exits non-zero when an install is already pending.
		p.logger().WithError(runner.CommandError("xcode-select", []string{"--install"}, res, err)).Warn("xcode-select --install")
	}

	stop := p.spin(" Waiting for Xcode Command Line Tools (finish the installer dialog)...")
	defer stop()

	timeout := p.CLTTimeout
	if timeout <= 0 {
		timeout = defaultCLTTimeout
	}
	return p.poll(ctx, timeout, "command line tools", p.cltInstalled)
}

func (p *Platform) cltInstalled(ctx context.Context) bool {
	_, err := p.Runner.Run(ctx, "xcode-select", []string{"-p"}, runner.Options{})
	return err == nil
}

func (p *Platform) poll(ctx context.Context, timeout time.Duration, what string, ready func(context.Context) bool) error {
	interval := p.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w for %s after %s", ErrTimeout, what, timeout)
		case <-ticker.C:
			if ready(ctx) {
				return nil
			}
		}
	}
}

func (p *Platform) spin(suffix string) func() {
	if p.Progress == nil {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(p.Progress))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

func (p *Platform) lookPath(name string) (string, error) {
	if p.LookPath != nil {
		return p.LookPath(name)
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	for _, dir := range paths.HomebrewBinDirs() {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

// EnsureHomebrew returns the brew executable, running the official installer
// first when brew cannot be found. Any failure is fatal.
func (p *Platform) EnsureHomebrew(ctx context.Context) (string, error) {
	if brew, err := p.lookPath("brew"); err == nil {
		p.logger().WithField("path", brew).Debug("homebrew present")
		return brew, nil
	}
	if p.HomebrewInstallURL == "" {
		return "", tools.Fatal("homebrew is missing and no installer URL is configured", nil)
	}

	p.logger().WithField("url", p.HomebrewInstallURL).Info("installing homebrew")
	opts := runner.Options{}
	if p.NonInteractive {
		opts.Env = []string{"NONINTERACTIVE=1"}
	} else {
		// The installer asks for the sudo password.
		opts.Stdin = os.Stdin
	}
	args := []string{"-c", homebrewInstallCommand(p.HomebrewInstallURL)}

	stop := func() {}
	if p.NonInteractive {
		stop = p.spin(" Installing Homebrew...")
	}
	res, err := p.Runner.Run(ctx, "/bin/bash", args, opts)
	stop()
	if err != nil {
		return "", tools.Fatal("homebrew install failed", runner.CommandError("/bin/bash", args, res, err))
	}

	brew, err := p.lookPath("brew")
	if err != nil {
		return "", tools.Fatal("homebrew install finished but brew was not found", err)
	}
	return brew, nil
}

func homebrewInstallCommand(url string) string {
	return fmt.Sprintf(`/bin/bash -c "$(curl -fsSL %s)"`, url)
}
