package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"devsetup/internal/runner"
)

var assignRe = regexp.MustCompile(`^(?:export\s+)?([A-Z_][A-Z0-9_]*)="([^"]*)"$`)

// RefreshPath evaluates `brew shellenv` and copies the exported variables
// into the process environment so later commands see Homebrew's bin dirs.
func (p *Platform) RefreshPath(ctx context.Context, brew string) (map[string]string, error) {
	args := []string{"shellenv"}
	res, err := p.Runner.Run(ctx, brew, args, runner.Options{Env: []string{"SHELL=/bin/bash"}})
	if err != nil {
		return nil, runner.CommandError(brew, args, res, err)
	}
	applied := map[string]string{}
	for key, value := range ParseShellenv(string(res.Stdout), p.getenv) {
		if key == "PATH" {
			value = dedupePath(value)
		}
		if err := p.setenv(key, value); err != nil {
			return applied, fmt.Errorf("set %s: %w", key, err)
		}
		applied[key] = value
	}
	p.logger().WithField("vars", len(applied)).Debug("refreshed environment from brew shellenv")
	return applied, nil
}

// ParseShellenv extracts KEY="value" assignments from bash-flavoured
// `brew shellenv` output. References to the variable's own previous value
// are expanded with getenv; any other parameter expansion is dropped.
func ParseShellenv(output string, getenv func(string) string) map[string]string {
	vars := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		for _, stmt := range strings.Split(line, ";") {
			m := assignRe.FindStringSubmatch(strings.TrimSpace(stmt))
			if m == nil {
				continue
			}
			vars[m[1]] = expandSelf(m[1], m[2], getenv(m[1]))
		}
	}
	return vars
}

func expandSelf(key, value, current string) string {
	suffix := ""
	if current != "" {
		suffix = ":" + current
	}
	value = strings.ReplaceAll(value, "${"+key+"+:$"+key+"}", suffix)
	value = strings.ReplaceAll(value, "${"+key+":-}", current)
	value = strings.ReplaceAll(value, "$"+key, current)
	if idx := strings.Index(value, "${"); idx >= 0 {
		value = value[:idx]
	}
	return strings.Trim(value, ":")
}

func dedupePath(value string) string {
	seen := map[string]bool{}
	var out []string
	for _, dir := range strings.Split(value, ":") {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	return strings.Join(out, ":")
}

// EnsurePython installs the requested Python through pyenv, makes it the
// global default and puts the pyenv shims first on PATH.
func (p *Platform) EnsurePython(ctx context.Context, version string) error {
	steps := [][]string{
		{"install", "--skip-existing", version},
		{"global", version},
	}
	for _, args := range steps {
		res, err := p.Runner.Run(ctx, "pyenv", args, runner.Options{})
		if err != nil {
			return runner.CommandError("pyenv", args, res, err)
		}
	}

	res, err := p.Runner.Run(ctx, "pyenv", []string{"root"}, runner.Options{})
	if err != nil {
		return runner.CommandError("pyenv", []string{"root"}, res, err)
	}
	root := strings.TrimSpace(string(res.Stdout))
	if root == "" {
		return nil
	}
	shims := filepath.Join(root, "shims")
	if err := p.setenv("PATH", dedupePath(shims+":"+p.getenv("PATH"))); err != nil {
		return fmt.Errorf("set PATH: %w", err)
	}
	p.logger().WithField("version", version).Info("python ready")
	return nil
}
