// Package setup sequences a full workstation run: preconditions, planning,
// platform bootstrap and the phased apply of the tool plan.
package setup

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"devsetup/internal/tools"
)

// PythonTool is the catalog key whose success triggers Python setup.
const PythonTool = "pyenv"

// Platform is the machine-level bootstrap the session drives.
type Platform interface {
	CheckPreconditions() error
	EnsureCommandLineTools(ctx context.Context) error
	EnsureHomebrew(ctx context.Context) (string, error)
	RefreshPath(ctx context.Context, brew string) (map[string]string, error)
	EnsurePython(ctx context.Context, version string) error
}

// Session holds everything one run needs.
type Session struct {
	Platform      Platform
	Reconciler    *tools.Reconciler
	Specs         []tools.ToolSpec
	PythonVersion string
	Log           logrus.FieldLogger
}

// Summary is the outcome of a run.
type Summary struct {
	Plan     tools.Plan     `json:"plan"`
	Results  []tools.Result `json:"results"`
	Warnings []string       `json:"warnings,omitempty"`
	Brew     string         `json:"brew,omitempty"`
}

// Failed returns the results that failed.
func (s Summary) Failed() []tools.Result {
	var out []tools.Result
	for _, r := range s.Results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// Counts tallies results by outcome.
func (s Summary) Counts() map[tools.Outcome]int {
	counts := map[tools.Outcome]int{}
	for _, r := range s.Results {
		counts[r.Outcome]++
	}
	return counts
}

func (s *Session) logger() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (s *Session) warn(sum *Summary, msg string, err error) {
	text := msg
	if err != nil {
		text = fmt.Sprintf("%s: %v", msg, err)
	}
	entry := s.logger().WithField("phase", "setup")
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
	sum.Warnings = append(sum.Warnings, text)
}

// Prepare checks the fatal preconditions and computes the plan. Nothing is
// modified.
func (s *Session) Prepare(ctx context.Context) (tools.Plan, error) {
	if err := s.Platform.CheckPreconditions(); err != nil {
		return tools.Plan{}, err
	}
	plan := s.Reconciler.Plan(ctx, s.Specs)
	s.logger().WithFields(logrus.Fields{
		"tools":   len(plan.Steps),
		"pending": len(plan.Pending()),
	}).Info("plan computed")
	return plan, nil
}

// Bootstrap brings up the Command Line Tools and Homebrew and refreshes PATH.
// Only a Homebrew failure is fatal.
func (s *Session) Bootstrap(ctx context.Context, sum *Summary) error {
	if err := s.Platform.EnsureCommandLineTools(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.warn(sum, "xcode command line tools are not ready", err)
	}

	brew, err := s.Platform.EnsureHomebrew(ctx)
	if err != nil {
		if tools.IsFatal(err) {
			return err
		}
		return tools.Fatal("homebrew unavailable", err)
	}
	sum.Brew = brew

	if _, err := s.Platform.RefreshPath(ctx, brew); err != nil {
		s.warn(sum, "could not refresh PATH from brew shellenv", err)
	}
	return nil
}

// Apply runs the runtime phase, sets up Python once pyenv is in place, then
// runs the application phase. Tool failures are recorded, never returned.
func (s *Session) Apply(ctx context.Context, plan tools.Plan, rep tools.Reporter, sum *Summary) {
	sum.Plan = plan

	runtimes := s.Reconciler.Apply(ctx, plan.Phase(tools.PhaseRuntime), rep)
	sum.Results = append(sum.Results, runtimes...)

	if ctx.Err() == nil && s.PythonVersion != "" && plan.Has(PythonTool) {
		if pyenvFailed(runtimes) {
			s.warn(sum, "skipping Python setup because pyenv failed", nil)
		} else if err := s.Platform.EnsurePython(ctx, s.PythonVersion); err != nil {
			s.warn(sum, "python "+s.PythonVersion+" setup failed", err)
		}
	}

	apps := s.Reconciler.Apply(ctx, plan.Phase(tools.PhaseApplication), rep)
	sum.Results = append(sum.Results, apps...)
}

func pyenvFailed(results []tools.Result) bool {
	for _, r := range results {
		if r.Tool == PythonTool {
			return r.Failed()
		}
	}
	return false
}

// Run is Prepare, Bootstrap and Apply without confirmation.
func (s *Session) Run(ctx context.Context, rep tools.Reporter) (Summary, error) {
	var sum Summary
	plan, err := s.Prepare(ctx)
	if err != nil {
		return sum, err
	}
	sum.Plan = plan
	if err := s.Bootstrap(ctx, &sum); err != nil {
		return sum, err
	}
	s.Apply(ctx, plan, rep, &sum)
	return sum, nil
}
