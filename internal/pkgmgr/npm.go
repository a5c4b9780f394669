package pkgmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

// Npm manages user-scope global npm packages.
type Npm struct {
	Runner runner.Runner
	Npm    string
}

func NewNpm(r runner.Runner) *Npm {
	return &Npm{Runner: r}
}

func (n *Npm) Kind() tools.Kind { return tools.KindNpm }

func (n *Npm) npm() string {
	if n.Npm != "" {
		return n.Npm
	}
	return "npm"
}

func (n *Npm) run(ctx context.Context, args ...string) (runner.Result, error) {
	res, err := n.Runner.Run(ctx, n.npm(), args, runner.Options{})
	if err != nil {
		return res, runner.CommandError(n.npm(), args, res, err)
	}
	return res, nil
}

func (n *Npm) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	v, err := n.InstalledVersion(ctx, pkg)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

type npmList struct {
	Dependencies map[string]struct {
		Version string `json:"version"`
	} `json:"dependencies"`
}

// InstalledVersion reads `npm ls -g --json`. npm exits non-zero when the
// package is missing but still prints JSON, so stdout is parsed regardless.
func (n *Npm) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	name := PackageName(pkg)
	args := []string{"ls", "-g", "--depth=0", "--json", name}
	res, err := n.Runner.Run(ctx, n.npm(), args, runner.Options{})
	if err != nil && errors.Is(err, exec.ErrNotFound) {
		return "", fmt.Errorf("npm not available: %w", err)
	}
	if len(strings.TrimSpace(string(res.Stdout))) == 0 {
		return "", nil
	}
	var list npmList
	if jerr := json.Unmarshal(res.Stdout, &list); jerr != nil {
		return "", fmt.Errorf("decode npm ls: %w", jerr)
	}
	dep, ok := list.Dependencies[name]
	if !ok {
		return "", nil
	}
	return dep.Version, nil
}

func (n *Npm) LatestVersion(ctx context.Context, pkg string) (string, error) {
	res, err := n.run(ctx, "view", pkg, "version")
	if err != nil {
		return "", err
	}
	return firstLine(string(res.Stdout)), nil
}

func (n *Npm) Install(ctx context.Context, pkg string) error {
	_, err := n.run(ctx, "install", "-g", withLatest(pkg))
	return err
}

func (n *Npm) Upgrade(ctx context.Context, pkg string) error {
	return n.Install(ctx, pkg)
}

func (n *Npm) Uninstall(ctx context.Context, pkg string) error {
	_, err := n.run(ctx, "uninstall", "-g", PackageName(pkg))
	return err
}

// PackageName strips a version or tag suffix: "@openai/codex@next" ->
// "@openai/codex".
func PackageName(pkg string) string {
	if idx := strings.LastIndexByte(pkg, '@'); idx > 0 {
		return pkg[:idx]
	}
	return pkg
}

func withLatest(pkg string) string {
	if PackageName(pkg) != pkg {
		return pkg
	}
	return pkg + "@latest"
}

var _ tools.Manager = (*Npm)(nil)
