package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork starts a bubbletea program for model, runs work in a goroutine
// and blocks until both have finished. Quitting the view cancels the context
// handed to work and waits for work to return. A non-nil error from work is
// shown and returned.
func RunWithWork(ctx context.Context, out io.Writer, model ProgressModel, work func(ctx context.Context, send func(tea.Msg)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithoutSignalHandler())

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Let the event loop render the first frame.
		time.Sleep(50 * time.Millisecond)

		err := work(ctx, func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})
		if err != nil {
			p.Send(ErrorMsg{Err: err})
			return
		}
		p.Send(WorkDoneMsg{})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return err
	}
	if m, ok := final.(ProgressModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
