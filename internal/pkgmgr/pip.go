package pkgmgr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

// Pip manages Python packages through `python3 -m pip` of the pyenv global
// interpreter, falling back to whatever python3 is on PATH.
type Pip struct {
	Runner runner.Runner
	Python string
	// ShimDirs are searched before PATH; apply puts the pyenv shims first
	// on PATH, so plan must look there first too.
	ShimDirs []string
}

func NewPip(r runner.Runner, shimDirs ...string) *Pip {
	return &Pip{Runner: r, ShimDirs: shimDirs}
}

func (p *Pip) Kind() tools.Kind { return tools.KindPip }

func (p *Pip) python() string {
	if p.Python != "" {
		return p.Python
	}
	if path, ok := findIn(p.ShimDirs, "python3"); ok {
		return path
	}
	return "python3"
}

func (p *Pip) run(ctx context.Context, args ...string) (runner.Result, error) {
	python := p.python()
	full := append([]string{"-m", "pip"}, args...)
	res, err := p.Runner.Run(ctx, python, full, runner.Options{Env: []string{"PIP_DISABLE_PIP_VERSION_CHECK=1"}})
	if err != nil {
		return res, runner.CommandError(python, full, res, err)
	}
	return res, nil
}

func (p *Pip) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	v, err := p.InstalledVersion(ctx, pkg)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

func (p *Pip) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	res, err := p.run(ctx, "show", pkg)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("python not available: %w", err)
		}
		return "", nil
	}
	scanner := bufio.NewScanner(strings.NewReader(string(res.Stdout)))
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "Version:"); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

// LatestVersion parses the first line of `pip index versions`, which reads
// "<name> (<version>)".
func (p *Pip) LatestVersion(ctx context.Context, pkg string) (string, error) {
	res, err := p.run(ctx, "index", "versions", pkg)
	if err != nil {
		return "", err
	}
	line := firstLine(string(res.Stdout))
	open := strings.IndexByte(line, '(')
	closing := strings.IndexByte(line, ')')
	if open < 0 || closing <= open {
		return "", fmt.Errorf("unexpected pip index output %q", line)
	}
	return strings.TrimSpace(line[open+1 : closing]), nil
}

func (p *Pip) Install(ctx context.Context, pkg string) error {
	_, err := p.run(ctx, "install", pkg)
	return err
}

func (p *Pip) Upgrade(ctx context.Context, pkg string) error {
	_, err := p.run(ctx, "install", "--upgrade", pkg)
	return err
}

func (p *Pip) Uninstall(ctx context.Context, pkg string) error {
	_, err := p.run(ctx, "uninstall", "-y", pkg)
	return err
}

var _ tools.Manager = (*Pip)(nil)
