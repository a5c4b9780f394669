package pkgmgr

import (
	"os"
	"os/exec"
	"path/filepath"
)

// lookup resolves name on PATH, then in dirs. It returns name unchanged when
// neither has it so the runner reports exec.ErrNotFound.
func lookup(lookPath func(string) (string, error), name string, dirs []string) string {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if path, err := lookPath(name); err == nil {
		return path
	}
	if path, ok := findIn(dirs, name); ok {
		return path
	}
	return name
}

// findIn returns the first executable name in dirs.
func findIn(dirs []string, name string) (string, bool) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, true
		}
	}
	return "", false
}
