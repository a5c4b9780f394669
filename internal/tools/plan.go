package tools

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"devsetup/internal/runner"
)

// State is the derived installation state of a tool.
type State string

const (
	StateAbsent         State = "absent"
	StateManagedCurrent State = "managed-current"
	StateManagedStale   State = "managed-stale"
	StateManagedWrong   State = "managed-wrong"
	StateUnmanaged      State = "unmanaged"
	// StateUnknown means a manager could not be asked who owns the tool.
	StateUnknown        State = "unknown"
)

// Action is what apply will do for a tool.
type Action string

const (
	ActionInstall Action = "install"
	ActionUpgrade Action = "upgrade"
	ActionMigrate Action = "migrate"
	ActionNoOp    Action = "none"
)

// ActionFor maps a state to its action. Unmanaged and unknown installs are
// never touched.
func ActionFor(state State) Action {
	switch state {
	case StateAbsent:
		return ActionInstall
	case StateManagedStale:
		return ActionUpgrade
	case StateManagedWrong:
		return ActionMigrate
	default:
		return ActionNoOp
	}
}

// Step is the planned action for one tool.
type Step struct {
	Spec             ToolSpec `json:"-"`
	Tool             string   `json:"tool"`
	Manager          Kind     `json:"manager"`
	Package          string   `json:"package"`
	State            State    `json:"state"`
	Action           Action   `json:"action"`
	Path             string   `json:"path,omitempty"`
	InstalledVersion string   `json:"installed_version,omitempty"`
	LatestVersion    string   `json:"latest_version,omitempty"`
	MigrateFrom      *Source  `json:"migrate_from,omitempty"`
	Notes            []string `json:"notes,omitempty"`
}

// Plan is the ordered list of steps, runtimes first.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Pending returns the steps that will change something.
func (p Plan) Pending() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Action != ActionNoOp {
			out = append(out, s)
		}
	}
	return out
}

// IsNoOp reports whether applying the plan would change nothing.
func (p Plan) IsNoOp() bool {
	return len(p.Pending()) == 0
}

// Phase returns the sub-plan for one phase.
func (p Plan) Phase(phase Phase) Plan {
	var out Plan
	for _, s := range p.Steps {
		if s.Spec.Phase == phase || (phase == PhaseApplication && s.Spec.Phase == "") {
			out.Steps = append(out.Steps, s)
		}
	}
	return out
}

// Has reports whether the plan contains the tool key.
func (p Plan) Has(key string) bool {
	for _, s := range p.Steps {
		if s.Tool == key {
			return true
		}
	}
	return false
}

// Reconciler inspects tool state and drives it toward the catalog.
type Reconciler struct {
	Managers Managers
	Locator  Locator
	Runner   runner.Runner
	Log      logrus.FieldLogger
}

func (r *Reconciler) logger() logrus.FieldLogger {
	if r.Log != nil {
		return r.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Plan inspects every spec and returns one step per tool, runtimes before
// application tools and otherwise in declared order.
func (r *Reconciler) Plan(ctx context.Context, specs []ToolSpec) Plan {
	ordered := append([]ToolSpec(nil), specs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Phase.order() < ordered[j].Phase.order()
	})

	plan := Plan{Steps: make([]Step, 0, len(ordered))}
	for _, spec := range ordered {
		plan.Steps = append(plan.Steps, r.Inspect(ctx, spec))
	}
	return plan
}

// Inspect resolves the installed state of a single tool.
func (r *Reconciler) Inspect(ctx context.Context, spec ToolSpec) Step {
	step := r.inspect(ctx, spec)
	step.Action = ActionFor(step.State)
	r.logger().WithFields(logrus.Fields{
		"tool":    step.Tool,
		"state":   step.State,
		"action":  step.Action,
		"manager": step.Manager,
	}).Debug("inspected tool")
	return step
}

func (r *Reconciler) inspect(ctx context.Context, spec ToolSpec) Step {
	step := Step{
		Spec:    spec,
		Tool:    spec.Key(),
		Manager: spec.Manager,
		Package: spec.Package,
	}

	mgr, hasMgr := r.Managers[spec.Manager]
	path, found := locate(r.Locator, spec)
	if !found {
		step.State = StateAbsent
		if hasMgr {
			if ok, err := mgr.IsInstalled(ctx, spec.Package); err == nil && ok {
				step.Notes = append(step.Notes, fmt.Sprintf("registered with %s but not on the search path", spec.Manager))
			}
		}
		return step
	}
	step.Path = path

	if !hasMgr {
		step.State = StateUnmanaged
		step.Notes = append(step.Notes, fmt.Sprintf("%s unavailable", spec.Manager))
		return step
	}

	installed, err := mgr.IsInstalled(ctx, spec.Package)
	if err != nil {
		step.State = StateUnknown
		step.Notes = append(step.Notes, fmt.Sprintf("%s inventory query failed: %v", spec.Manager, err))
		return step
	}
	if installed {
		step.InstalledVersion = r.installedVersion(ctx, spec, path, mgr)
		latest, err := mgr.LatestVersion(ctx, spec.Package)
		if err != nil {
			step.Notes = append(step.Notes, fmt.Sprintf("latest version lookup failed: %v", err))
		}
		step.LatestVersion = latest
		switch {
		case IsOlder(step.InstalledVersion, latest):
			step.State = StateManagedStale
		default:
			step.State = StateManagedCurrent
			if step.InstalledVersion == "" || latest == "" {
				step.Notes = append(step.Notes, "version unknown; treated as current")
			}
		}
		return step
	}

	queryFailed := false
	for _, src := range spec.MigrationSources {
		other, ok := r.Managers[src.Manager]
		if !ok {
			continue
		}
		owned, err := other.IsInstalled(ctx, src.Package)
		if err != nil {
			queryFailed = true
			step.Notes = append(step.Notes, fmt.Sprintf("%s inventory query failed: %v", src.Manager, err))
			continue
		}
		if owned {
			src := src
			step.State = StateManagedWrong
			step.MigrateFrom = &src
			if v, err := other.InstalledVersion(ctx, src.Package); err == nil {
				step.InstalledVersion = v
			}
			return step
		}
	}

	if queryFailed {
		step.State = StateUnknown
		return step
	}
	step.State = StateUnmanaged
	step.Notes = append(step.Notes, "installed outside any managed location; left untouched")
	return step
}

func (r *Reconciler) installedVersion(ctx context.Context, spec ToolSpec, path string, mgr Manager) string {
	if spec.Executable != "" && r.Runner != nil && path != "" && filepath.Ext(path) != ".app" {
		if v, err := readVersion(ctx, r.Runner, path, spec.VersionArgs); err == nil {
			return v
		}
	}
	v, err := mgr.InstalledVersion(ctx, spec.Package)
	if err != nil {
		return ""
	}
	return v
}
