package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Outcome is the terminal status of an applied step.
type Outcome string

const (
	OutcomeInstalled Outcome = "installed"
	OutcomeUpgraded  Outcome = "upgraded"
	OutcomeMigrated  Outcome = "migrated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Result records what happened to one tool during apply.
type Result struct {
	Tool     string   `json:"tool"`
	Action   Action   `json:"action"`
	Manager  Kind     `json:"manager"`
	Outcome  Outcome  `json:"outcome"`
	Path     string   `json:"path,omitempty"`
	Version  string   `json:"version,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Err error `json:"-"`
}

// Failed reports whether the step failed.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Reporter receives progress while a plan is applied.
type Reporter interface {
	Start(step Step)
	Complete(res Result)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Start(Step)      {}
func (NopReporter) Complete(Result) {}

// Apply executes the plan step by step. A failing step is recorded and the
// next step runs anyway; apply stops early only when ctx is cancelled.
func (r *Reconciler) Apply(ctx context.Context, plan Plan, rep Reporter) []Result {
	if rep == nil {
		rep = NopReporter{}
	}
	results := make([]Result, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			break
		}
		rep.Start(step)
		res := r.applyStep(ctx, step)
		fields := logrus.Fields{
			"tool":    res.Tool,
			"action":  res.Action,
			"manager": res.Manager,
			"outcome": res.Outcome,
		}
		for _, w := range res.Warnings {
			r.logger().WithFields(fields).Warn(w)
		}
		if res.Err != nil {
			r.logger().WithFields(fields).WithError(res.Err).Warn("step failed")
		} else {
			r.logger().WithFields(fields).Info("step complete")
		}
		rep.Complete(res)
		results = append(results, res)
	}
	return results
}

func (r *Reconciler) applyStep(ctx context.Context, step Step) Result {
	res := Result{
		Tool:    step.Tool,
		Action:  step.Action,
		Manager: step.Manager,
		Path:    step.Path,
		Version: step.InstalledVersion,
	}

	if step.Action == ActionNoOp {
		res.Outcome = OutcomeSkipped
		return res
	}

	mgr, ok := r.Managers[step.Manager]
	if !ok {
		return failed(res, fmt.Errorf("%w: %s", ErrNoManager, step.Manager))
	}

	var err error
	switch step.Action {
	case ActionInstall:
		err = mgr.Install(ctx, step.Package)
		res.Outcome = OutcomeInstalled
	case ActionUpgrade:
		err = mgr.Upgrade(ctx, step.Package)
		res.Outcome = OutcomeUpgraded
	case ActionMigrate:
		if warn := r.uninstallSource(ctx, step.MigrateFrom); warn != "" {
			res.Warnings = append(res.Warnings, warn)
		}
		err = mgr.Install(ctx, step.Package)
		res.Outcome = OutcomeMigrated
	default:
		return failed(res, fmt.Errorf("unknown action %q", step.Action))
	}
	if err != nil {
		if hint := hintNote("install manually", ManualCommand(step.Spec)); hint != "" {
			res.Warnings = append(res.Warnings, hint)
		}
		return failed(res, fmt.Errorf("%s %s via %s: %w", step.Action, step.Package, step.Manager, err))
	}

	path, found := locate(r.Locator, step.Spec)
	if !found {
		name := step.Spec.Executable
		if name == "" {
			name = step.Spec.AppBundle
		}
		return failed(res, fmt.Errorf("%w: %s", ErrNotOnPath, name))
	}
	res.Path = path
	res.Version = r.installedVersion(ctx, step.Spec, path, mgr)
	return res
}

// uninstallSource removes the wrong-manager copy. Failure is downgraded to a
// warning because a stale duplicate is recoverable.
func (r *Reconciler) uninstallSource(ctx context.Context, src *Source) string {
	if src == nil {
		return ""
	}
	other, ok := r.Managers[src.Manager]
	if !ok {
		return fmt.Sprintf("cannot uninstall %s: %v", src, ErrNoManager)
	}
	if err := other.Uninstall(ctx, src.Package); err != nil {
		msg := fmt.Sprintf("uninstall %s failed: %v", src, err)
		if hint := ManualUninstall(*src); hint != "" {
			msg += "; remove it manually with: " + hint
		}
		return msg
	}
	return ""
}

func failed(res Result, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	res.Error = err.Error()
	return res
}
