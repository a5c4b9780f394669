package tools

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a package manager the reconciler is allowed to drive.
type Kind string

const (
	KindFormula Kind = "homebrew-formula"
	KindCask    Kind = "homebrew-cask"
	KindNpm     Kind = "npm-global"
	KindPip     Kind = "pip"
	KindNative  Kind = "native-installer"
)

// Kinds lists every supported manager kind.
func Kinds() []Kind {
	return []Kind{KindFormula, KindCask, KindNpm, KindPip, KindNative}
}

// ParseKind accepts the canonical kind names plus a few common aliases.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(KindFormula), "brew", "homebrew", "formula":
		return KindFormula, nil
	case string(KindCask), "cask", "brew-cask":
		return KindCask, nil
	case string(KindNpm), "npm":
		return KindNpm, nil
	case string(KindPip), "pip3", "python":
		return KindPip, nil
	case string(KindNative), "native", "installer":
		return KindNative, nil
	}
	return "", fmt.Errorf("unknown package manager %q", value)
}

// IsHomebrew reports whether k is one of the Homebrew kinds.
func (k Kind) IsHomebrew() bool {
	return k == KindFormula || k == KindCask
}

// Manager is the capability every package manager exposes to the reconciler.
type Manager interface {
	Kind() Kind
	IsInstalled(ctx context.Context, pkg string) (bool, error)
	// InstalledVersion reports the version from the manager's inventory, or
	// "" when unknown.
	InstalledVersion(ctx context.Context, pkg string) (string, error)
	LatestVersion(ctx context.Context, pkg string) (string, error)
	Install(ctx context.Context, pkg string) error
	Upgrade(ctx context.Context, pkg string) error
	Uninstall(ctx context.Context, pkg string) error
}

// Managers indexes the available managers by kind.
type Managers map[Kind]Manager

// Source is a {manager, package} pair.
type Source struct {
	Manager Kind   `yaml:"manager" json:"manager"`
	Package string `yaml:"package_id" json:"package_id"`
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s", s.Manager, s.Package)
}

// Installer describes a native single-binary installer.
type Installer struct {
	ScriptURL  string   `yaml:"script_url" json:"script_url"`
	LatestURL  string   `yaml:"latest_url,omitempty" json:"latest_url,omitempty"`
	InstallDir string   `yaml:"install_dir" json:"install_dir"`
	Binary     string   `yaml:"binary,omitempty" json:"binary,omitempty"`
	UpdateArgs []string `yaml:"update_args,omitempty" json:"update_args,omitempty"`
}

type Phase string

const (
	PhaseRuntime     Phase = "runtime"
	PhaseApplication Phase = "application"
)

func (p Phase) order() int {
	if p == PhaseRuntime {
		return 0
	}
	return 1
}

type Scope string

const (
	ScopeWork Scope = "work"
	ScopeAI   Scope = "ai"
	ScopeAll  Scope = "all"
)

// ParseScope validates a scope name.
func ParseScope(value string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(value))) {
	case ScopeWork:
		return ScopeWork, nil
	case ScopeAI:
		return ScopeAI, nil
	case ScopeAll, "":
		return ScopeAll, nil
	}
	return "", fmt.Errorf("unknown scope %q (want work, ai or all)", value)
}

// ToolSpec is the static description of one installable tool.
type ToolSpec struct {
	Name             string     `yaml:"name" json:"name"`
	Manager          Kind       `yaml:"package_manager" json:"package_manager"`
	Package          string     `yaml:"package_id" json:"package_id"`
	Executable       string     `yaml:"executable_name,omitempty" json:"executable_name,omitempty"`
	AppBundle        string     `yaml:"app_bundle,omitempty" json:"app_bundle,omitempty"`
	VersionArgs      []string   `yaml:"version_args,omitempty" json:"version_args,omitempty"`
	MigrationSources []Source   `yaml:"migration_sources,omitempty" json:"migration_sources,omitempty"`
	Phase            Phase      `yaml:"phase,omitempty" json:"phase,omitempty"`
	Scopes           []Scope    `yaml:"scopes,omitempty" json:"scopes,omitempty"`
	Installer        *Installer `yaml:"installer,omitempty" json:"installer,omitempty"`
	Disabled         bool       `yaml:"disabled,omitempty" json:"-"`
}

// Key is the lower-cased, dash-separated identifier of the tool.
func (s ToolSpec) Key() string {
	return strings.Join(strings.Fields(strings.ToLower(s.Name)), "-")
}

// InScope reports whether the tool belongs to scope.
func (s ToolSpec) InScope(scope Scope) bool {
	if scope == ScopeAll || scope == "" {
		return true
	}
	for _, sc := range s.Scopes {
		if sc == scope {
			return true
		}
	}
	return false
}

// Validate checks that the spec can be reconciled.
func (s ToolSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, err := ParseKind(string(s.Manager)); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	if strings.TrimSpace(s.Package) == "" {
		return fmt.Errorf("%s: package_id is required", s.Name)
	}
	if s.Executable == "" && s.AppBundle == "" {
		return fmt.Errorf("%s: executable_name or app_bundle is required", s.Name)
	}
	if s.Manager == KindNative && (s.Installer == nil || s.Installer.ScriptURL == "") {
		return fmt.Errorf("%s: native-installer tools need installer.script_url", s.Name)
	}
	for _, src := range s.MigrationSources {
		if _, err := ParseKind(string(src.Manager)); err != nil {
			return fmt.Errorf("%s: migration source: %w", s.Name, err)
		}
		if src.Package == "" {
			return fmt.Errorf("%s: migration source %s needs package_id", s.Name, src.Manager)
		}
		if src.Manager == s.Manager && src.Package == s.Package {
			return fmt.Errorf("%s: migration source %s equals the preferred location", s.Name, src)
		}
	}
	return nil
}
