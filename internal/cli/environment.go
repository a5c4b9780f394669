package cli

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"devsetup/internal/bootstrap"
	"devsetup/internal/config"
	"devsetup/internal/logx"
	"devsetup/internal/notify"
	"devsetup/internal/paths"
	"devsetup/internal/pkgmgr"
	"devsetup/internal/prompt"
	"devsetup/internal/runner"
	"devsetup/internal/setup"
	"devsetup/internal/tools"
)

// deps are the host-facing constructors; tests swap them for fakes.
type deps struct {
	home        string
	skipDotenv  bool
	runner      runner.Runner
	newLogger   func(dir string) (*logrus.Logger, io.Closer, error)
	newManagers func(r runner.Runner, cfg config.Config, specs []tools.ToolSpec) tools.Managers
	newLocator  func(cfg config.Config, specs []tools.ToolSpec) tools.Locator
	newPlatform func(r runner.Runner, cfg config.Config, log logrus.FieldLogger, progress io.Writer) setup.Platform
	newPrompter func(cfg config.Config) prompt.Prompter
}

var hostDeps = defaultDeps()

func defaultDeps() deps {
	return deps{
		runner:    runner.CmdRunner{},
		newLogger: logx.New,
		newManagers: func(r runner.Runner, cfg config.Config, specs []tools.ToolSpec) tools.Managers {
			return pkgmgr.New(r, pkgmgr.Options{
				NonInteractive: cfg.NonInteractive,
				Installers:     tools.Installers(specs),
				PythonShims:    cfg.Paths.PyenvShimsDir,
			})
		},
		newLocator: func(cfg config.Config, specs []tools.ToolSpec) tools.Locator {
			dirs := append(paths.HomebrewBinDirs(), cfg.Paths.LocalBinDir)
			dirs = append(dirs, tools.ExtraBinDirs(specs)...)
			return tools.NewSystemLocator(dirs, cfg.Paths.AppDirs)
		},
		newPlatform: func(r runner.Runner, cfg config.Config, log logrus.FieldLogger, progress io.Writer) setup.Platform {
			p := bootstrap.New(r, log)
			p.HomebrewInstallURL = cfg.HomebrewInstallURL
			p.NonInteractive = cfg.NonInteractive
			p.Progress = progress
			return p
		},
		newPrompter: func(cfg config.Config) prompt.Prompter {
			if cfg.NonInteractive || !prompt.IsTerminal(os.Stdin) {
				return prompt.NonInteractive{}
			}
			return prompt.NewTerminal()
		},
	}
}

// environment is everything a command needs, built once per invocation.
type environment struct {
	cfg      config.Config
	log      *logrus.Logger
	closer   io.Closer
	specs    []tools.ToolSpec
	rec      *tools.Reconciler
	prompter prompt.Prompter
}

func loadConfig() (config.Config, error) {
	return config.Load(config.Options{
		Home:          hostDeps.home,
		CatalogFile:   catalogPath,
		MCPConfigFile: configPath,
		SkipDotenv:    hostDeps.skipDotenv,
	})
}

// openEnvironment loads configuration, opens the run log and resolves the
// tool catalog for scope.
func openEnvironment(cmd *cobra.Command, scope tools.Scope) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := hostDeps.newLogger(cfg.LogDir)
	if err != nil {
		notify.Warningf(cmd.ErrOrStderr(), "run log disabled: %v", err)
		logger, closer = logx.Discard(), io.NopCloser(nil)
	}
	logger.WithFields(logrus.Fields{
		"noninteractive": cfg.NonInteractive,
		"ci":             cfg.CI,
		"scope":          scope,
	}).Info("devsetup started")

	specs, err := resolveCatalog(&cfg)
	if err != nil {
		closer.Close()
		return nil, err
	}
	specs = tools.ForScope(specs, scope)

	env := &environment{
		cfg:      cfg,
		log:      logger,
		closer:   closer,
		specs:    specs,
		prompter: hostDeps.newPrompter(cfg),
	}
	env.rec = &tools.Reconciler{
		Managers: hostDeps.newManagers(hostDeps.runner, cfg, specs),
		Locator:  hostDeps.newLocator(cfg, specs),
		Runner:   hostDeps.runner,
		Log:      logger,
	}
	return env, nil
}

// resolveCatalog merges the catalog file over the defaults and applies the
// per-tool environment overrides.
func resolveCatalog(cfg *config.Config) ([]tools.ToolSpec, error) {
	specs, err := tools.LoadCatalog(cfg.CatalogFile, tools.DefaultCatalog())
	if err != nil {
		return nil, err
	}
	cfg.LoadOverrides(tools.Keys(specs))
	specs, err = tools.ApplyOverrides(specs, cfg.Overrides)
	if err != nil {
		return nil, err
	}
	return tools.Normalize(specs, cfg.Paths.Home)
}

func (e *environment) session(progress io.Writer) *setup.Session {
	return &setup.Session{
		Platform:      hostDeps.newPlatform(hostDeps.runner, e.cfg, e.log, progress),
		Reconciler:    e.rec,
		Specs:         e.specs,
		PythonVersion: e.cfg.PythonVersion,
		Log:           e.log,
	}
}

func (e *environment) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
