package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mhmtszr/concurrent-swiss-map"

	"github.com/Digital-Shane/namer/internal/tui/progress"
	"github.com/Digital-Shane/namer/internal/tui/theme"
)

// resolveWithProgress runs resolveAll behind a progress display on out.
// Quitting the display cancels the lookups still in flight.
func resolveWithProgress(ctx context.Context, cancel context.CancelFunc, in io.Reader, out io.Writer, r *resolver, files []string, workers int) (*csmap.CsMap[string, result], error) {
	events := make(chan progress.Event, workers)
	r.notify = func(res result) {
		select {
		case events <- progress.Event{Path: res.Source, Err: res.Err}:
		case <-ctx.Done():
		}
	}

	done := make(chan *csmap.CsMap[string, result], 1)
	go func() {
		defer close(events)
		done <- r.resolveAll(ctx, files, workers)
	}()

	model := progress.New(len(files), workers, events, cancel, theme.Default())
	_, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		cancel()
	}
	return <-done, err
}

// isTerminal reports whether w writes to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// isTerminalInput reports whether r reads from a terminal.
func isTerminalInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
