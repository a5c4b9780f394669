package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"devsetup/internal/paths"
)

const (
	// DefaultEnvPrefix prefixes every devsetup-specific environment variable.
	DefaultEnvPrefix = "DEVSETUP"

	DefaultPythonVersion      = "3.12"
	DefaultHomebrewInstallURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"
)

// ToolOverride holds the per-tool environment overrides of the shape
// <PREFIX>_<TOOL>_{PKG_MGR,PACKAGE,BIN,FORMULA,NPM}.
type ToolOverride struct {
	PkgMgr  string `json:"pkg_mgr,omitempty"`
	Package string `json:"package,omitempty"`
	Bin     string `json:"bin,omitempty"`
	Formula string `json:"formula,omitempty"`
	Npm     string `json:"npm,omitempty"`
}

// Empty reports whether no override field is set.
func (o ToolOverride) Empty() bool {
	return o == ToolOverride{}
}

// Config is the run configuration. It is populated once at startup from the
// environment plus defaults and passed explicitly afterwards.
type Config struct {
	EnvPrefix          string
	NonInteractive     bool
	CI                 bool
	CatalogFile        string
	MCPConfigFile      string
	LogDir             string
	PythonVersion      string
	HomebrewInstallURL string
	Paths              paths.UserPaths
	Overrides          map[string]ToolOverride

	env *viper.Viper
}

// Options carries command-line values that take precedence over the environment.
type Options struct {
	Home          string
	CatalogFile   string
	MCPConfigFile string
	// SkipDotenv disables loading the per-user dotenv file.
	SkipDotenv bool
}

// Load builds the configuration from the environment.
func Load(opts Options) (Config, error) {
	up, err := paths.Resolve(opts.Home)
	if err != nil {
		return Config{}, err
	}

	if !opts.SkipDotenv {
		if err := loadDotenv(up.DotenvFile); err != nil {
			return Config{}, err
		}
	}

	prefix := DefaultEnvPrefix
	if custom := strings.TrimSpace(os.Getenv(DefaultEnvPrefix + "_ENV_PREFIX")); custom != "" {
		prefix = strings.ToUpper(custom)
	}

	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	if err := v.BindEnv("noninteractive", "NONINTERACTIVE"); err != nil {
		return Config{}, fmt.Errorf("bind NONINTERACTIVE: %w", err)
	}
	if err := v.BindEnv("ci", "CI"); err != nil {
		return Config{}, fmt.Errorf("bind CI: %w", err)
	}
	v.SetDefault("python_version", DefaultPythonVersion)
	v.SetDefault("homebrew_install_url", DefaultHomebrewInstallURL)
	v.SetDefault("mcp_config", up.MCPConfigFile)
	v.SetDefault("log_dir", up.LogsDir)

	cfg := Config{
		EnvPrefix:          prefix,
		CI:                 Truthy(v.GetString("ci")),
		CatalogFile:        v.GetString("catalog"),
		MCPConfigFile:      paths.ExpandHome(v.GetString("mcp_config"), up.Home),
		LogDir:             paths.ExpandHome(v.GetString("log_dir"), up.Home),
		PythonVersion:      strings.TrimSpace(v.GetString("python_version")),
		HomebrewInstallURL: v.GetString("homebrew_install_url"),
		Paths:              up,
		Overrides:          map[string]ToolOverride{},
		env:                v,
	}
	cfg.NonInteractive = cfg.CI || Truthy(v.GetString("noninteractive"))

	if opts.CatalogFile != "" {
		cfg.CatalogFile = opts.CatalogFile
	}
	if opts.MCPConfigFile != "" {
		cfg.MCPConfigFile = opts.MCPConfigFile
	}
	if cfg.CatalogFile != "" {
		cfg.CatalogFile = paths.ExpandHome(cfg.CatalogFile, up.Home)
	}
	return cfg, nil
}

// LoadOverrides snapshots the per-tool overrides for the given tool keys. It
// is called once, right after the tool catalog is known.
func (c *Config) LoadOverrides(keys []string) {
	if c.Overrides == nil {
		c.Overrides = map[string]ToolOverride{}
	}
	if c.env == nil {
		return
	}
	for _, key := range keys {
		base := strings.ToLower(EnvKey(key))
		o := ToolOverride{
			PkgMgr:  strings.TrimSpace(c.env.GetString(base + "_pkg_mgr")),
			Package: strings.TrimSpace(c.env.GetString(base + "_package")),
			Bin:     strings.TrimSpace(c.env.GetString(base + "_bin")),
			Formula: strings.TrimSpace(c.env.GetString(base + "_formula")),
			Npm:     strings.TrimSpace(c.env.GetString(base + "_npm")),
		}
		if !o.Empty() {
			c.Overrides[key] = o
		}
	}
}

// OverrideVariable returns the full environment variable name for a tool key
// and suffix, e.g. ("claude-code", "PKG_MGR") -> DEVSETUP_CLAUDE_CODE_PKG_MGR.
func (c Config) OverrideVariable(key, suffix string) string {
	prefix := c.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return prefix + "_" + EnvKey(key) + "_" + strings.ToUpper(suffix)
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// EnvKey converts a tool key into its environment variable segment.
func EnvKey(key string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToUpper(key), "_"), "_")
}

// Truthy interprets common affirmative environment values.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func loadDotenv(path string) error {
	ok, err := paths.FileExists(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !ok {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
