package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"devsetup/internal/config"
	"devsetup/internal/paths"
)

// Catalog is the on-disk form of a tool list.
type Catalog struct {
	Tools []ToolSpec `yaml:"tools"`
}

// LoadCatalog merges the YAML catalog at path over base. Entries replace base
// tools with the same key, new keys are appended, and `disabled: true` drops
// a tool. An empty path returns base unchanged; a path that does not exist
// is an error.
func LoadCatalog(path string, base []ToolSpec) ([]ToolSpec, error) {
	specs := append([]ToolSpec(nil), base...)
	if path == "" {
		return specs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("catalog file not found: %s", path)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", filepath.Base(path), err)
	}

	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Key()] = i
	}
	for _, s := range cat.Tools {
		if i, ok := index[s.Key()]; ok {
			specs[i] = s
			continue
		}
		index[s.Key()] = len(specs)
		specs = append(specs, s)
	}

	out := specs[:0]
	for _, s := range specs {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out, nil
}

// Normalize fills defaults, expands "~" against home and validates each spec.
func Normalize(specs []ToolSpec, home string) ([]ToolSpec, error) {
	out := make([]ToolSpec, 0, len(specs))
	var errs []error
	for _, s := range specs {
		kind, err := ParseKind(string(s.Manager))
		if err == nil {
			s.Manager = kind
		}
		for i, src := range s.MigrationSources {
			if k, err := ParseKind(string(src.Manager)); err == nil {
				s.MigrationSources[i].Manager = k
			}
		}
		if len(s.VersionArgs) == 0 {
			s.VersionArgs = append([]string(nil), defaultVersionArgs...)
		}
		if s.Phase == "" {
			s.Phase = PhaseApplication
		}
		if len(s.Scopes) == 0 {
			s.Scopes = []Scope{ScopeWork, ScopeAI}
		}
		if s.Installer != nil {
			inst := *s.Installer
			if inst.Binary == "" {
				inst.Binary = s.Executable
			}
			if inst.InstallDir == "" {
				inst.InstallDir = "~/.local/bin"
			}
			inst.InstallDir = paths.ExpandHome(inst.InstallDir, home)
			s.Installer = &inst
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// ApplyOverrides applies per-tool environment overrides. When the package
// manager changes, the previous location becomes the first migration source.
func ApplyOverrides(specs []ToolSpec, overrides map[string]config.ToolOverride) ([]ToolSpec, error) {
	out := make([]ToolSpec, len(specs))
	for i, s := range specs {
		o, ok := overrides[s.Key()]
		if !ok || o.Empty() {
			out[i] = s
			continue
		}
		s.MigrationSources = append([]Source(nil), s.MigrationSources...)

		if o.PkgMgr != "" {
			kind, err := ParseKind(o.PkgMgr)
			if err != nil {
				return nil, fmt.Errorf("%s override: %w", s.Key(), err)
			}
			if kind != s.Manager {
				prev := Source{Manager: s.Manager, Package: s.Package}
				s.MigrationSources = prependSource(s.MigrationSources, prev)
				s.Manager = kind
			}
		}

		switch {
		case o.Package != "":
			s.Package = o.Package
		case o.Formula != "" && s.Manager.IsHomebrew():
			s.Package = o.Formula
		case o.Npm != "" && s.Manager == KindNpm:
			s.Package = o.Npm
		default:
			// A manager switch without a package keeps the package id
			// recorded for that manager in the migration list, if any.
			for _, src := range s.MigrationSources {
				if src.Manager == s.Manager {
					s.Package = src.Package
					break
				}
			}
		}
		if o.Bin != "" {
			s.Executable = o.Bin
			if s.Installer != nil {
				inst := *s.Installer
				inst.Binary = o.Bin
				s.Installer = &inst
			}
		}

		kept := s.MigrationSources[:0]
		for _, src := range s.MigrationSources {
			if src.Manager == s.Manager && src.Package == s.Package {
				continue
			}
			kept = append(kept, src)
		}
		s.MigrationSources = kept

		if s.Manager == KindNative && s.Installer == nil {
			return nil, fmt.Errorf("%s override: native-installer needs an installer entry in the catalog", s.Key())
		}
		out[i] = s
	}
	return out, nil
}

func prependSource(list []Source, src Source) []Source {
	for _, existing := range list {
		if existing == src {
			return list
		}
	}
	return append([]Source{src}, list...)
}

// ForScope filters specs to the given scope, keeping declared order.
func ForScope(specs []ToolSpec, scope Scope) []ToolSpec {
	var out []ToolSpec
	for _, s := range specs {
		if s.InScope(scope) {
			out = append(out, s)
		}
	}
	return out
}

// Keys returns the sorted tool keys.
func Keys(specs []ToolSpec) []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.Key())
	}
	sort.Strings(keys)
	return keys
}

// Installers indexes native installers by their native package id, whether
// the native installer is the preferred location or a migration source.
func Installers(specs []ToolSpec) map[string]Installer {
	out := map[string]Installer{}
	for _, s := range specs {
		if s.Installer == nil {
			continue
		}
		if s.Manager == KindNative {
			out[s.Package] = *s.Installer
			continue
		}
		for _, src := range s.MigrationSources {
			if src.Manager == KindNative {
				out[src.Package] = *s.Installer
			}
		}
	}
	return out
}

// ExtraBinDirs returns the install directories of native installers.
func ExtraBinDirs(specs []ToolSpec) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, s := range specs {
		if s.Installer == nil || s.Installer.InstallDir == "" || seen[s.Installer.InstallDir] {
			continue
		}
		seen[s.Installer.InstallDir] = true
		dirs = append(dirs, s.Installer.InstallDir)
	}
	return dirs
}
