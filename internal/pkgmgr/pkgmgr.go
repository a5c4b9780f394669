// Package pkgmgr implements tools.Manager for Homebrew formulae and casks,
// global npm packages, pip packages and native installer scripts.
package pkgmgr

import (
	"devsetup/internal/runner"
	"devsetup/internal/tools"
)

// Options configures the manager set.
type Options struct {
	NonInteractive bool
	Installers     map[string]tools.Installer
	// PythonShims is the pyenv shims directory pip prefers.
	PythonShims string
}

// New returns every supported manager backed by r.
func New(r runner.Runner, opts Options) tools.Managers {
	var brewEnv []string
	if opts.NonInteractive {
		brewEnv = append(brewEnv, "NONINTERACTIVE=1", "HOMEBREW_NO_ENV_HINTS=1")
	}
	return tools.Managers{
		tools.KindFormula: NewFormula(r, brewEnv...),
		tools.KindCask:    NewCask(r, brewEnv...),
		tools.KindNpm:     NewNpm(r),
		tools.KindPip:     NewPip(r, pipShims(opts.PythonShims)...),
		tools.KindNative:  NewNative(r, opts.Installers),
	}
}

func pipShims(dir string) []string {
	if dir == "" {
		return nil
	}
	return []string{dir}
}
