package tools

import (
	"context"
	"fmt"
	"sync"
)

// world simulates a machine: which binaries resolve, which packages each
// manager has registered, and what each manager advertises as latest.
type world struct {
	mu       sync.Mutex
	bins     map[string]string
	apps     map[string]string
	packages map[Kind]map[string]string
	latest   map[Kind]map[string]string
	provides map[Source]string
	failures map[string]error
	// queryErr makes every IsInstalled of that manager fail.
	queryErr map[Kind]error
	calls    []string
}

func newWorld() *world {
	return &world{
		bins:     map[string]string{},
		apps:     map[string]string{},
		packages: map[Kind]map[string]string{},
		latest:   map[Kind]map[string]string{},
		provides: map[Source]string{},
		failures: map[string]error{},
		queryErr: map[Kind]error{},
	}
}

func (w *world) register(kind Kind, pkg, version, exe string) {
	if w.packages[kind] == nil {
		w.packages[kind] = map[string]string{}
	}
	w.packages[kind][pkg] = version
	w.provides[Source{Manager: kind, Package: pkg}] = exe
	if exe != "" {
		w.bins[exe] = fmt.Sprintf("/fake/%s/%s", kind, exe)
	}
}

func (w *world) advertise(kind Kind, pkg, version, exe string) {
	if w.latest[kind] == nil {
		w.latest[kind] = map[string]string{}
	}
	w.latest[kind][pkg] = version
	w.provides[Source{Manager: kind, Package: pkg}] = exe
}

func (w *world) called(line string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.calls {
		if c == line {
			return true
		}
	}
	return false
}

func (w *world) managers() Managers {
	m := Managers{}
	for _, k := range Kinds() {
		m[k] = &fakeManager{kind: k, w: w}
	}
	return m
}

type fakeManager struct {
	kind Kind
	w    *world
}

func (m *fakeManager) Kind() Kind { return m.kind }

func (m *fakeManager) record(verb, pkg string) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	key := fmt.Sprintf("%s %s %s", verb, m.kind, pkg)
	m.w.calls = append(m.w.calls, key)
	return m.w.failures[key]
}

func (m *fakeManager) IsInstalled(_ context.Context, pkg string) (bool, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if err := m.w.queryErr[m.kind]; err != nil {
		return false, err
	}
	_, ok := m.w.packages[m.kind][pkg]
	return ok, nil
}

func (m *fakeManager) InstalledVersion(_ context.Context, pkg string) (string, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.packages[m.kind][pkg], nil
}

func (m *fakeManager) LatestVersion(_ context.Context, pkg string) (string, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.latest[m.kind][pkg], nil
}

func (m *fakeManager) Install(_ context.Context, pkg string) error {
	if err := m.record("install", pkg); err != nil {
		return err
	}
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	exe := m.w.provides[Source{Manager: m.kind, Package: pkg}]
	if m.w.packages[m.kind] == nil {
		m.w.packages[m.kind] = map[string]string{}
	}
	m.w.packages[m.kind][pkg] = m.w.latest[m.kind][pkg]
	if exe != "" {
		m.w.bins[exe] = fmt.Sprintf("/fake/%s/%s", m.kind, exe)
	}
	return nil
}

func (m *fakeManager) Upgrade(ctx context.Context, pkg string) error {
	if err := m.record("upgrade", pkg); err != nil {
		return err
	}
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	m.w.packages[m.kind][pkg] = m.w.latest[m.kind][pkg]
	return nil
}

func (m *fakeManager) Uninstall(_ context.Context, pkg string) error {
	if err := m.record("uninstall", pkg); err != nil {
		return err
	}
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	delete(m.w.packages[m.kind], pkg)
	exe := m.w.provides[Source{Manager: m.kind, Package: pkg}]
	if exe != "" && m.w.bins[exe] == fmt.Sprintf("/fake/%s/%s", m.kind, exe) {
		delete(m.w.bins, exe)
	}
	return nil
}

type fakeLocator struct{ w *world }

func (l fakeLocator) Find(name string) (string, bool) {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	p, ok := l.w.bins[name]
	return p, ok
}

func (l fakeLocator) FindApp(bundle string) (string, bool) {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	p, ok := l.w.apps[bundle]
	return p, ok
}

func newReconciler(w *world) *Reconciler {
	return &Reconciler{Managers: w.managers(), Locator: fakeLocator{w: w}}
}
