package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomebrewPrefixes lists the two supported Homebrew install prefixes, Apple
// Silicon first.
var HomebrewPrefixes = []string{"/opt/homebrew", "/usr/local"}

// UserPaths captures canonical per-user locations used by devsetup.
type UserPaths struct {
	Home          string
	ConfigDir     string
	DotenvFile    string
	LogsDir       string
	MCPConfigFile string
	LocalBinDir   string
	AppDirs       []string
	// PyenvShimsDir is $PYENV_ROOT/shims, defaulting to ~/.pyenv/shims.
	PyenvShimsDir string
}

// Resolve determines the per-user locations rooted at home. An empty home
// falls back to the current user's home directory.
func Resolve(home string) (UserPaths, error) {
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return UserPaths{}, fmt.Errorf("detect user home: %w", err)
		}
	}
	home, err := filepath.Abs(home)
	if err != nil {
		return UserPaths{}, fmt.Errorf("resolve home: %w", err)
	}

	configDir := filepath.Join(home, ".config", "devsetup")
	pyenvRoot := os.Getenv("PYENV_ROOT")
	if pyenvRoot == "" {
		pyenvRoot = filepath.Join(home, ".pyenv")
	}
	return UserPaths{
		Home:          home,
		ConfigDir:     configDir,
		DotenvFile:    filepath.Join(configDir, "env"),
		LogsDir:       filepath.Join(home, "Library", "Logs", "devsetup"),
		MCPConfigFile: filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"),
		LocalBinDir:   filepath.Join(home, ".local", "bin"),
		AppDirs:       []string{"/Applications", filepath.Join(home, "Applications")},
		PyenvShimsDir: filepath.Join(pyenvRoot, "shims"),
	}, nil
}

// HomebrewBinDirs returns the bin directories of every supported Homebrew prefix.
func HomebrewBinDirs() []string {
	dirs := make([]string, 0, len(HomebrewPrefixes)*2)
	for _, prefix := range HomebrewPrefixes {
		dirs = append(dirs, filepath.Join(prefix, "bin"), filepath.Join(prefix, "sbin"))
	}
	return dirs
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
