package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Digital-Shane/namer/internal/tui/theme"
)

// styles is the output palette.
type styles struct {
	header  lipgloss.Style
	accent  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func defaultStyles() styles {
	return newStyles(theme.Default())
}

func newStyles(th theme.Theme) styles {
	c := th.Colors()
	return styles{
		header:  th.TitleStyle(),
		accent:  th.TextStyle(c.Accent),
		muted:   th.TextStyle(c.Muted),
		success: th.TextStyle(c.Success),
		failure: th.TextStyle(c.Error),
	}
}

// sourceWidth caps the source column.
const sourceWidth = 48

// summary counts outcomes.
type summary struct {
	renamed, unchanged, skipped, failed int
}

// writeReport prints one line per result, sorted by source, and returns
// the tally. Paths are shown relative to base when possible.
func writeReport(w io.Writer, results []result, base string, dryRun bool, st styles) summary {
	slices.SortFunc(results, func(a, b result) int {
		return strings.Compare(a.Source, b.Source)
	})

	width := 0
	for _, r := range results {
		width = max(width, runewidth.StringWidth(relative(base, r.Source)))
	}
	width = min(width, sourceWidth)

	var sum summary
	for _, r := range results {
		src := runewidth.FillRight(runewidth.Truncate(relative(base, r.Source), width, "…"), width)

		var status, detail string
		switch {
		case r.Err != nil:
			sum.failed++
			status = st.failure.Render("fail")
			detail = st.failure.Render(r.Err.Error())
		case r.Skipped:
			sum.skipped++
			status = st.muted.Render("skip")
		case r.Destination == r.Source:
			sum.unchanged++
			status = st.muted.Render("same")
		default:
			sum.renamed++
			status = st.success.Render("move")
			if dryRun {
				status = st.accent.Render("plan")
			}
			detail = relative(base, r.Destination)
			if r.Guessed {
				detail += st.muted.Render(" (guessed)")
			}
		}

		if detail == "" {
			fmt.Fprintf(w, "%s  %s\n", status, src)
			continue
		}
		fmt.Fprintf(w, "%s  %s  %s %s\n", status, src, st.muted.Render("→"), detail)
	}

	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%d renamed, %d unchanged, %d skipped, %d failed",
		sum.renamed, sum.unchanged, sum.skipped, sum.failed)))
	return sum
}

func relative(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
