package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"devsetup/internal/runner"
)

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+(?:-[0-9A-Za-z.]+)?`)

// ParseVersion extracts the first version-looking token from tool output,
// e.g. "1.0.33 (Claude Code)" -> "1.0.33" and "v22.1.0" -> "22.1.0".
func ParseVersion(output string) string {
	line := firstLine(strings.TrimSpace(output))
	if match := versionPattern.FindString(line); match != "" {
		return match
	}
	if match := versionPattern.FindString(output); match != "" {
		return match
	}
	return strings.TrimSpace(line)
}

func readVersion(ctx context.Context, r runner.Runner, path string, args []string) (string, error) {
	if len(args) == 0 {
		args = defaultVersionArgs
	}
	res, err := r.Run(ctx, path, args, runner.Options{})
	if err != nil {
		return "", runner.CommandError(path, args, res, err)
	}
	out := string(res.Stdout)
	if strings.TrimSpace(out) == "" {
		out = string(res.Stderr)
	}
	version := ParseVersion(out)
	if version == "" {
		return "", fmt.Errorf("%s printed no version", path)
	}
	return version, nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// CompareVersions returns -1, 0 or 1. Semantic versions are compared with
// semver rules; anything else falls back to comparing numeric components.
func CompareVersions(a, b string) int {
	a, b = trimVersion(a), trimVersion(b)
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareNumeric(numericParts(a), numericParts(b))
}

// IsOlder reports whether installed is strictly older than latest. Unknown
// versions are never considered older.
func IsOlder(installed, latest string) bool {
	if strings.TrimSpace(installed) == "" || strings.TrimSpace(latest) == "" {
		return false
	}
	return CompareVersions(installed, latest) < 0
}

func trimVersion(v string) string {
	v = strings.TrimSpace(v)
	// Homebrew casks append ",build" and formula revisions append "_N".
	if idx := strings.IndexByte(v, ','); idx >= 0 {
		v = v[:idx]
	}
	if idx := strings.IndexByte(v, '_'); idx >= 0 {
		v = v[:idx]
	}
	return v
}

func compareNumeric(a, b []int) int {
	for len(a) < len(b) {
		a = append(a, 0)
	}
	for len(b) < len(a) {
		b = append(b, 0)
	}
	for i := range a {
		if a[i] > b[i] {
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
	}
	return 0
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
