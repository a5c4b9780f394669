package pkgmgr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

const userAgent = "devsetup/1.0"

// Native runs a vendor's download-and-run installer script. A package counts
// as installed when its binary exists in the installer's directory.
type Native struct {
	Runner     runner.Runner
	Client     *http.Client
	Installers map[string]tools.Installer
	Shell      string
}

func NewNative(r runner.Runner, installers map[string]tools.Installer) *Native {
	return &Native{
		Runner:     r,
		Client:     &http.Client{Timeout: 2 * time.Minute},
		Installers: installers,
	}
}

func (n *Native) Kind() tools.Kind { return tools.KindNative }

func (n *Native) installer(pkg string) (tools.Installer, error) {
	inst, ok := n.Installers[pkg]
	if !ok {
		return tools.Installer{}, fmt.Errorf("no native installer registered for %s", pkg)
	}
	return inst, nil
}

func binaryPath(inst tools.Installer) string {
	return filepath.Join(inst.InstallDir, inst.Binary)
}

func (n *Native) IsInstalled(_ context.Context, pkg string) (bool, error) {
	inst, err := n.installer(pkg)
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(binaryPath(inst)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (n *Native) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	ok, err := n.IsInstalled(ctx, pkg)
	if err != nil || !ok {
		return "", err
	}
	inst, _ := n.installer(pkg)
	path := binaryPath(inst)
	res, err := n.Runner.Run(ctx, path, []string{"--version"}, runner.Options{})
	if err != nil {
		return "", runner.CommandError(path, []string{"--version"}, res, err)
	}
	return tools.ParseVersion(string(res.Stdout)), nil
}

// LatestVersion fetches the plain-text version published at latest_url. It
// returns "" when the installer publishes none.
func (n *Native) LatestVersion(ctx context.Context, pkg string) (string, error) {
	inst, err := n.installer(pkg)
	if err != nil {
		return "", err
	}
	if inst.LatestURL == "" {
		return "", nil
	}
	body, err := n.fetch(ctx, inst.LatestURL, 64<<10)
	if err != nil {
		return "", err
	}
	return tools.ParseVersion(string(body)), nil
}

func (n *Native) Install(ctx context.Context, pkg string) error {
	inst, err := n.installer(pkg)
	if err != nil {
		return err
	}
	script, err := n.download(ctx, inst.ScriptURL)
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(filepath.Dir(script)) }()

	shell := n.Shell
	if shell == "" {
		shell = "bash"
	}
	res, err := n.Runner.Run(ctx, shell, []string{script}, runner.Options{})
	if err != nil {
		return runner.CommandError(shell, []string{filepath.Base(script)}, res, err)
	}
	return nil
}

// Upgrade prefers the binary's own self-update command and falls back to
// re-running the installer.
func (n *Native) Upgrade(ctx context.Context, pkg string) error {
	inst, err := n.installer(pkg)
	if err != nil {
		return err
	}
	if len(inst.UpdateArgs) == 0 {
		return n.Install(ctx, pkg)
	}
	path := binaryPath(inst)
	res, err := n.Runner.Run(ctx, path, inst.UpdateArgs, runner.Options{})
	if err != nil {
		return runner.CommandError(path, inst.UpdateArgs, res, err)
	}
	return nil
}

// Uninstall removes only the installed binary or launcher link. Settings
// and data directories are never touched.
func (n *Native) Uninstall(_ context.Context, pkg string) error {
	inst, err := n.installer(pkg)
	if err != nil {
		return err
	}
	if err := os.Remove(binaryPath(inst)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", binaryPath(inst), err)
	}
	return nil
}

func (n *Native) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}
	return http.DefaultClient
}

func (n *Native) fetch(ctx context.Context, url string, limit int64) ([]byte, error) {
	resp, err := n.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func (n *Native) get(ctx context.Context, url string) (*http.Response, error) {
	if !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("refusing non-https installer url %s", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}
	return resp, nil
}

// download saves url into a fresh temp directory and returns the file path.
func (n *Native) download(ctx context.Context, url string) (string, error) {
	resp, err := n.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	dir, err := os.MkdirTemp("", "devsetup-installer-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	dest := filepath.Join(dir, "install.sh")
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o700)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("create installer file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("write installer file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("close installer file: %w", err)
	}
	return dest, nil
}

var _ tools.Manager = (*Native)(nil)
