package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrUnscripted is returned by Fake for commands it has no response for.
var ErrUnscripted = errors.New("unscripted command")

// Response is a canned result for a Fake command line.
type Response struct {
	Stdout string
	Stderr string
	Err    error
	// Hook runs before the response is returned; tests use it to mutate
	// simulated machine state.
	Hook func()
}

// Fake is a scripted Runner keyed by the full command line.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []string
}

func NewFake() *Fake {
	return &Fake{responses: map[string]Response{}}
}

// On registers the response for a command line such as "brew list --formula jq".
func (f *Fake) On(line string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = resp
	return f
}

func (f *Fake) Run(_ context.Context, command string, args []string, _ Options) (Result, error) {
	line := strings.Join(append([]string{command}, args...), " ")
	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.responses[line]
	f.mu.Unlock()
	if !ok {
		return Result{}, ErrUnscripted
	}
	if resp.Hook != nil {
		resp.Hook()
	}
	return Result{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr)}, resp.Err
}

// Calls returns every command line run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether a command line was run.
func (f *Fake) Called(line string) bool {
	for _, c := range f.Calls() {
		if c == line {
			return true
		}
	}
	return false
}

var _ Runner = (*Fake)(nil)
