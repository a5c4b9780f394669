package pkgmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"devsetup/internal/paths"
	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

// Homebrew drives `brew` for either formulae or casks.
type Homebrew struct {
	Runner runner.Runner
	Cask   bool
	// Brew is the brew executable. When empty it is looked up on every call,
	// PATH first and then Dirs, so a brew installed mid-run is picked up.
	Brew string
	Dirs []string
	// Env is appended to every invocation, e.g. NONINTERACTIVE=1.
	Env []string

	lookPath func(string) (string, error)
}

func NewFormula(r runner.Runner, env ...string) *Homebrew {
	return &Homebrew{Runner: r, Dirs: paths.HomebrewBinDirs(), Env: env}
}

func NewCask(r runner.Runner, env ...string) *Homebrew {
	return &Homebrew{Runner: r, Cask: true, Dirs: paths.HomebrewBinDirs(), Env: env}
}

func (h *Homebrew) Kind() tools.Kind {
	if h.Cask {
		return tools.KindCask
	}
	return tools.KindFormula
}

func (h *Homebrew) brew() string {
	if h.Brew != "" {
		return h.Brew
	}
	return lookup(h.lookPath, "brew", h.Dirs)
}

func (h *Homebrew) typeFlag() string {
	if h.Cask {
		return "--cask"
	}
	return "--formula"
}

func (h *Homebrew) run(ctx context.Context, args ...string) (runner.Result, error) {
	brew := h.brew()
	res, err := h.Runner.Run(ctx, brew, args, runner.Options{Env: h.Env})
	if err != nil {
		return res, runner.CommandError(brew, args, res, err)
	}
	return res, nil
}

func (h *Homebrew) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	v, err := h.InstalledVersion(ctx, pkg)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// InstalledVersion parses `brew list --versions`, which prints
// "<name> <version>..." for installed packages and fails otherwise.
func (h *Homebrew) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	args := []string{"list", h.typeFlag(), "--versions", pkg}
	res, err := h.Runner.Run(ctx, h.brew(), args, runner.Options{Env: h.Env})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("homebrew not available: %w", err)
		}
		return "", nil
	}
	fields := strings.Fields(firstLine(string(res.Stdout)))
	if len(fields) < 2 {
		return "", nil
	}
	return fields[len(fields)-1], nil
}

type brewInfo struct {
	Formulae []struct {
		Name     string `json:"name"`
		Versions struct {
			Stable string `json:"stable"`
		} `json:"versions"`
		Revision int `json:"revision"`
	} `json:"formulae"`
	Casks []struct {
		Token   string `json:"token"`
		Version string `json:"version"`
	} `json:"casks"`
}

func (h *Homebrew) LatestVersion(ctx context.Context, pkg string) (string, error) {
	res, err := h.run(ctx, "info", "--json=v2", h.typeFlag(), pkg)
	if err != nil {
		return "", err
	}
	var info brewInfo
	if err := json.Unmarshal(res.Stdout, &info); err != nil {
		return "", fmt.Errorf("decode brew info for %s: %w", pkg, err)
	}
	if h.Cask {
		if len(info.Casks) == 0 {
			return "", fmt.Errorf("brew info returned no cask %s", pkg)
		}
		return info.Casks[0].Version, nil
	}
	if len(info.Formulae) == 0 {
		return "", fmt.Errorf("brew info returned no formula %s", pkg)
	}
	return info.Formulae[0].Versions.Stable, nil
}

func (h *Homebrew) Install(ctx context.Context, pkg string) error {
	_, err := h.run(ctx, "install", h.typeFlag(), pkg)
	return err
}

func (h *Homebrew) Upgrade(ctx context.Context, pkg string) error {
	_, err := h.run(ctx, "upgrade", h.typeFlag(), pkg)
	return err
}

func (h *Homebrew) Uninstall(ctx context.Context, pkg string) error {
	_, err := h.run(ctx, "uninstall", h.typeFlag(), pkg)
	return err
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

var _ tools.Manager = (*Homebrew)(nil)
