package tools

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Locator answers "where is this executable or app bundle, if anywhere".
type Locator interface {
	Find(name string) (string, bool)
	FindApp(bundle string) (string, bool)
}

// SystemLocator searches PATH first, then a fixed list of directories.
type SystemLocator struct {
	Dirs    []string
	AppDirs []string

	lookPath func(string) (string, error)
}

// NewSystemLocator returns a locator that falls back to dirs after PATH and
// looks for app bundles in appDirs.
func NewSystemLocator(dirs, appDirs []string) *SystemLocator {
	return &SystemLocator{Dirs: dirs, AppDirs: appDirs, lookPath: exec.LookPath}
}

func (l *SystemLocator) Find(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return name, isExecutable(name)
	}
	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if path, err := lookPath(name); err == nil {
		return path, true
	}
	for _, dir := range l.Dirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (l *SystemLocator) FindApp(bundle string) (string, bool) {
	if bundle == "" {
		return "", false
	}
	for _, dir := range l.AppDirs {
		candidate := filepath.Join(dir, bundle)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

var _ Locator = (*SystemLocator)(nil)

// locate resolves the tool's executable first, then its app bundle.
func locate(l Locator, spec ToolSpec) (string, bool) {
	if spec.Executable != "" {
		if path, ok := l.Find(spec.Executable); ok {
			return path, true
		}
	}
	if spec.AppBundle != "" {
		return l.FindApp(spec.AppBundle)
	}
	return "", false
}
