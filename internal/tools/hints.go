package tools

import (
	"fmt"
	"strings"
)

// ManualCommand returns the shell command a user can run to perform the
// install by hand after a failure.
func ManualCommand(spec ToolSpec) string {
	switch spec.Manager {
	case KindFormula:
		return "brew install " + spec.Package
	case KindCask:
		return "brew install --cask " + spec.Package
	case KindNpm:
		return "npm install -g " + spec.Package + "@latest"
	case KindPip:
		return "python3 -m pip install --user " + spec.Package
	case KindNative:
		if spec.Installer != nil && spec.Installer.ScriptURL != "" {
			return fmt.Sprintf("curl -fsSL %s | bash", spec.Installer.ScriptURL)
		}
	}
	return ""
}

// ManualUninstall returns the command that removes src by hand.
func ManualUninstall(src Source) string {
	switch src.Manager {
	case KindFormula:
		return "brew uninstall " + src.Package
	case KindCask:
		return "brew uninstall --cask " + src.Package
	case KindNpm:
		return "npm uninstall -g " + src.Package
	case KindPip:
		return "python3 -m pip uninstall -y " + src.Package
	}
	return ""
}

func hintNote(prefix, command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", prefix, command)
}
