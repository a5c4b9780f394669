package tools

var defaultVersionArgs = []string{"--version"}

// claudeReleases is the bucket the Claude Code installer downloads from. Its
// channel files hold the plain-text version of each release channel.
const claudeReleases = "https://storage.googleapis.com/claude-code-dist-86c565f3-f756-42ad-8dfa-d59b1c096819/claude-code-releases"

// DefaultCatalog returns the compiled-in tool list in install order. Runtimes
// come first; application tools keep their declared order.
func DefaultCatalog() []ToolSpec {
	both := []Scope{ScopeWork, ScopeAI}
	return []ToolSpec{
		{
			Name:       "node",
			Manager:    KindFormula,
			Package:    "node",
			Executable: "node",
			Phase:      PhaseRuntime,
			Scopes:     both,
		},
		{
			Name:       "pyenv",
			Manager:    KindFormula,
			Package:    "pyenv",
			Executable: "pyenv",
			Phase:      PhaseRuntime,
			Scopes:     both,
		},
		{
			Name:       "claude-code",
			Manager:    KindNative,
			Package:    "claude-code",
			Executable: "claude",
			Scopes:     []Scope{ScopeAI},
			Installer: &Installer{
				ScriptURL:  "https://claude.ai/install.sh",
				LatestURL:  claudeReleases + "/stable",
				InstallDir: "~/.local/bin",
				UpdateArgs: []string{"update"},
			},
			MigrationSources: []Source{
				{Manager: KindNpm, Package: "@anthropic-ai/claude-code"},
				{Manager: KindCask, Package: "claude-code"},
			},
		},
		{
			Name:       "codex",
			Manager:    KindNpm,
			Package:    "@openai/codex",
			Executable: "codex",
			Scopes:     []Scope{ScopeAI},
			MigrationSources: []Source{
				{Manager: KindCask, Package: "codex"},
			},
		},
		{
			Name:       "gemini-cli",
			Manager:    KindNpm,
			Package:    "@google/gemini-cli",
			Executable: "gemini",
			Scopes:     []Scope{ScopeAI},
			MigrationSources: []Source{
				{Manager: KindFormula, Package: "gemini-cli"},
			},
		},
		{
			Name:       "git",
			Manager:    KindFormula,
			Package:    "git",
			Executable: "git",
			Scopes:     []Scope{ScopeWork},
		},
		{
			Name:       "gh",
			Manager:    KindFormula,
			Package:    "gh",
			Executable: "gh",
			Scopes:     []Scope{ScopeWork},
		},
		{
			Name:       "jq",
			Manager:    KindFormula,
			Package:    "jq",
			Executable: "jq",
			Scopes:     []Scope{ScopeWork},
		},
		{
			Name:       "pre-commit",
			Manager:    KindPip,
			Package:    "pre-commit",
			Executable: "pre-commit",
			Scopes:     []Scope{ScopeWork},
		},
		{
			Name:       "visual-studio-code",
			Manager:    KindCask,
			Package:    "visual-studio-code",
			Executable: "code",
			AppBundle:  "Visual Studio Code.app",
			Scopes:     []Scope{ScopeWork},
		},
		{
			Name:      "slack",
			Manager:   KindCask,
			Package:   "slack",
			AppBundle: "Slack.app",
			Scopes:    []Scope{ScopeWork},
		},
		{
			Name:      "tableau-desktop",
			Manager:   KindCask,
			Package:   "tableau",
			AppBundle: "Tableau Desktop.app",
			Scopes:    []Scope{ScopeWork},
		},
	}
}
