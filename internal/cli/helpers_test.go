package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"devsetup/internal/config"
	"devsetup/internal/logx"
	"devsetup/internal/prompt"
	"devsetup/internal/runner"
	"devsetup/internal/setup"
	"devsetup/internal/tools"
)

// fakeMachine tracks which packages each manager holds and what resolves on
// the search path.
type fakeMachine struct {
	mu        sync.Mutex
	installed map[tools.Source]bool
	bins      map[string]bool
	apps      map[string]bool
	provides  map[tools.Source]tools.ToolSpec
	calls     []string
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{
		installed: map[tools.Source]bool{},
		bins:      map[string]bool{},
		apps:      map[string]bool{},
		provides:  map[tools.Source]tools.ToolSpec{},
	}
}

type fakeManager struct {
	kind tools.Kind
	m    *fakeMachine
}

func (f *fakeManager) Kind() tools.Kind { return f.kind }

func (f *fakeManager) IsInstalled(_ context.Context, pkg string) (bool, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.installed[tools.Source{Manager: f.kind, Package: pkg}], nil
}

func (f *fakeManager) InstalledVersion(ctx context.Context, pkg string) (string, error) {
	if ok, _ := f.IsInstalled(ctx, pkg); ok {
		return "1.0.0", nil
	}
	return "", nil
}

func (f *fakeManager) LatestVersion(context.Context, string) (string, error) { return "1.0.0", nil }

func (f *fakeManager) Install(_ context.Context, pkg string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	src := tools.Source{Manager: f.kind, Package: pkg}
	f.m.calls = append(f.m.calls, "install "+src.String())
	f.m.installed[src] = true
	spec := f.m.provides[src]
	if spec.Executable != "" {
		f.m.bins[spec.Executable] = true
	}
	if spec.AppBundle != "" {
		f.m.apps[spec.AppBundle] = true
	}
	return nil
}

func (f *fakeManager) Upgrade(context.Context, string) error { return nil }

func (f *fakeManager) Uninstall(_ context.Context, pkg string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	src := tools.Source{Manager: f.kind, Package: pkg}
	f.m.calls = append(f.m.calls, "uninstall "+src.String())
	delete(f.m.installed, src)
	return nil
}

type fakeLocator struct{ m *fakeMachine }

func (l fakeLocator) Find(name string) (string, bool) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return "/opt/homebrew/bin/" + name, l.m.bins[name]
}

func (l fakeLocator) FindApp(bundle string) (string, bool) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return "/Applications/" + bundle, l.m.apps[bundle]
}

type fakePlatform struct {
	mu    sync.Mutex
	calls []string
	fatal error
}

func (p *fakePlatform) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePlatform) CheckPreconditions() error {
	p.record("preconditions")
	return p.fatal
}

func (p *fakePlatform) EnsureCommandLineTools(context.Context) error {
	p.record("clt")
	return nil
}

func (p *fakePlatform) EnsureHomebrew(context.Context) (string, error) {
	p.record("homebrew")
	return "/opt/homebrew/bin/brew", nil
}

func (p *fakePlatform) RefreshPath(context.Context, string) (map[string]string, error) {
	p.record("path")
	return nil, nil
}

func (p *fakePlatform) EnsurePython(context.Context, string) error {
	p.record("python")
	return nil
}

type fakePrompter struct {
	lines   map[string]string
	secrets map[string]string
	confirm bool
}

func (p fakePrompter) Confirm(string, bool) (bool, error) { return p.confirm, nil }

func (p fakePrompter) Line(label, def string) (string, error) {
	if v, ok := p.lines[label]; ok {
		return v, nil
	}
	return def, nil
}

func (p fakePrompter) Secret(label string) (string, error) {
	if v, ok := p.secrets[label]; ok {
		return v, nil
	}
	return "", prompt.ErrNonInteractive
}

type testHost struct {
	machine  *fakeMachine
	platform *fakePlatform
	runner   *runner.Fake
}

// useFakeHost swaps every host dependency for an in-memory fake.
func useFakeHost(t *testing.T, p prompt.Prompter) *testHost {
	t.Helper()
	t.Setenv("NONINTERACTIVE", "1")
	t.Setenv("DEVSETUP_MCP_CONFIG", "")
	t.Setenv("DEVSETUP_CATALOG", "")

	h := &testHost{machine: newFakeMachine(), platform: &fakePlatform{}, runner: runner.NewFake()}
	prev := hostDeps
	t.Cleanup(func() { hostDeps = prev })

	hostDeps = deps{
		home:       t.TempDir(),
		skipDotenv: true,
		runner:     h.runner,
		newLogger: func(string) (*logrus.Logger, io.Closer, error) {
			return logx.Discard(), io.NopCloser(nil), nil
		},
		newManagers: func(_ runner.Runner, _ config.Config, specs []tools.ToolSpec) tools.Managers {
			for _, s := range specs {
				h.machine.provides[tools.Source{Manager: s.Manager, Package: s.Package}] = s
			}
			managers := tools.Managers{}
			for _, k := range tools.Kinds() {
				managers[k] = &fakeManager{kind: k, m: h.machine}
			}
			return managers
		},
		newLocator: func(config.Config, []tools.ToolSpec) tools.Locator {
			return fakeLocator{m: h.machine}
		},
		newPlatform: func(runner.Runner, config.Config, logrus.FieldLogger, io.Writer) setup.Platform {
			return h.platform
		},
		newPrompter: func(config.Config) prompt.Prompter { return p },
	}
	return h
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
