package mcpconfig

import (
	"sort"
	"strings"
)

const Redacted = "********"

var secretMarkers = []string{"TOKEN", "SECRET", "PASSWORD", "PAT_VALUE", "API_KEY", "KEY"}

// IsSecretKey reports whether an env variable name looks like it holds a
// credential.
func IsSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range secretMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// Redact returns a copy of e with secret env values masked. Keys named in
// extra are masked in addition to those IsSecretKey recognises.
func (e Entry) Redact(extra ...string) Entry {
	out := Entry{
		Command: e.Command,
		Args:    append([]string{}, e.Args...),
		Env:     make(map[string]string, len(e.Env)),
	}
	forced := make(map[string]bool, len(extra))
	for _, k := range extra {
		forced[k] = true
	}
	for k, v := range e.Env {
		if forced[k] || IsSecretKey(k) {
			v = Redacted
		}
		out.Env[k] = v
	}
	return out
}

// EnvKeys returns the entry's env names sorted.
func (e Entry) EnvKeys() []string {
	keys := make([]string, 0, len(e.Env))
	for k := range e.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
