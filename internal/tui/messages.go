package tui

import "errors"

// ErrInterrupted is reported when the user quits the progress view.
var ErrInterrupted = errors.New("interrupted")

// RowUpdateMsg updates a single row's fields by column header.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg carries a fatal error; the program quits on receipt.
type ErrorMsg struct {
	Err error
}
