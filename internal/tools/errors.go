package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOnPath marks an action the manager reported as successful but
	// whose executable still cannot be located.
	ErrNotOnPath = errors.New("executable not found after install")
	// ErrNoManager is returned when a tool names a manager that is not available.
	ErrNoManager = errors.New("package manager unavailable")
)

// FatalError is a precondition failure that aborts the whole run.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a FatalError.
func Fatal(reason string, err error) error {
	return &FatalError{Reason: reason, Err: err}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
