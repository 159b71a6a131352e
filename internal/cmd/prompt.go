package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbletea"

	"github.com/Digital-Shane/namer/internal/metadata"
	"github.com/Digital-Shane/namer/internal/target"
	"github.com/Digital-Shane/namer/internal/tui/choose"
	"github.com/Digital-Shane/namer/internal/tui/theme"
)

// errQuit stops an interactive run.
var errQuit = errors.New("quit")

// teaChooser shows a candidate list for every file on a terminal.
func teaChooser(in io.Reader, out io.Writer, th theme.Theme) chooser {
	return func(t *target.Target, candidates []metadata.Metadata) (metadata.Metadata, bool, error) {
		items := make([]string, len(candidates))
		for i, c := range candidates {
			items[i] = describe(c)
		}

		model := choose.New(t.Source(), t.BestGuess().String(), items, th)
		final, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run()
		if err != nil {
			return nil, false, err
		}
		return applyChoice(final.(*choose.Model).Result(), candidates)
	}
}

// applyChoice turns a chooser decision into the chooser contract. A model
// that ended without a decision counts as a quit.
func applyChoice(r choose.Result, candidates []metadata.Metadata) (metadata.Metadata, bool, error) {
	switch r.Action {
	case choose.Select:
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, false, fmt.Errorf("candidate %d out of range", r.Index+1)
		}
		return candidates[r.Index], false, nil
	case choose.Guess:
		return nil, false, nil
	case choose.Skip:
		return nil, true, nil
	default:
		return nil, false, errQuit
	}
}

// promptChooser is the line based fallback used when input is not a
// terminal. It asks on out and reads answers from in. Enter takes the
// first candidate, a number picks one, g keeps the best guess, s skips
// and q quits.
func promptChooser(in io.Reader, out io.Writer, styles styles) chooser {
	reader := bufio.NewReader(in)

	return func(t *target.Target, candidates []metadata.Metadata) (metadata.Metadata, bool, error) {
		fmt.Fprintln(out, styles.header.Render(t.Source()))
		fmt.Fprintf(out, "  %s %s\n", styles.muted.Render("guess"), t.BestGuess().String())
		for i, c := range candidates {
			fmt.Fprintf(out, "  %s %s\n", styles.accent.Render(fmt.Sprintf("%d.", i+1)), describe(c))
		}
		if len(candidates) == 0 {
			fmt.Fprintln(out, styles.muted.Render("  no matches"))
		}

		for {
			fmt.Fprint(out, "[Enter/1-9] select, [g]uess, [s]kip, [q]uit: ")
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				if errors.Is(err, io.EOF) {
					return nil, false, errQuit
				}
				return nil, false, err
			}

			answer := strings.ToLower(strings.TrimSpace(line))
			switch answer {
			case "":
				if len(candidates) == 0 {
					return nil, false, nil
				}
				return candidates[0], false, nil
			case "g":
				return nil, false, nil
			case "s":
				return nil, true, nil
			case "q":
				return nil, false, errQuit
			}
			if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(candidates) {
				return candidates[n-1], false, nil
			}
			fmt.Fprintln(out, styles.failure.Render("  invalid choice"))
		}
	}
}

// describe renders a candidate with its ids for disambiguation.
func describe(m metadata.Metadata) string {
	b := m.Common()
	var ids []string
	for _, id := range []string{b.IDImdb, b.IDTmdb, b.IDTvdb, b.IDTvmaze} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return m.String()
	}
	return fmt.Sprintf("%s [%s]", m.String(), strings.Join(ids, ", "))
}
