package progress

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Digital-Shane/namer/internal/tui/theme"
)

// Event reports one resolved file.
type Event struct {
	Path string
	Err  error
}

type eventMsg struct {
	event Event
	done  bool
}

// errorBaseLines is the height of everything above the error block.
const errorBaseLines = 7

// Model displays progress while files are resolved in the background.
type Model struct {
	events  <-chan Event
	cancel  context.CancelFunc
	total   int
	workers int

	processed int
	failed    int
	errors    []string
	last      string

	width  int
	height int

	bar   progress.Model
	theme theme.Theme

	done     bool
	canceled bool
}

// New creates a model expecting total events on events. cancel is called
// when the user aborts.
func New(total, workers int, events <-chan Event, cancel context.CancelFunc, th theme.Theme) *Model {
	gradient := th.ProgressGradient()
	bar := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	bar.Width = 50

	return &Model{
		events:  events,
		cancel:  cancel,
		total:   total,
		workers: workers,
		width:   80,
		height:  12,
		bar:     bar,
		theme:   th,
	}
}

// Init starts listening for events.
func (m *Model) Init() tea.Cmd {
	if m.total == 0 || m.events == nil {
		m.done = true
		return tea.Quit
	}
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return eventMsg{done: true}
		}
		return eventMsg{event: evt}
	}
}

// Update processes Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = max(10, msg.Width-4)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case eventMsg:
		return m.handleEvent(msg)
	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	if msg.done {
		m.done = true
		return m, tea.Quit
	}

	m.processed++
	m.last = msg.event.Path
	if msg.event.Err != nil {
		m.failed++
		m.errors = append(m.errors, fmt.Sprintf("%s: %v", filepath.Base(msg.event.Path), msg.event.Err))
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.processed) / float64(m.total)
	}
	return m, tea.Batch(m.bar.SetPercent(ratio), m.waitForEvent())
}

// View renders the progress UI.
func (m *Model) View() string {
	if m.total == 0 {
		return "No files to resolve.\n"
	}

	header := "Resolving"
	if m.workers > 1 {
		header = fmt.Sprintf("Resolving (%d workers)", m.workers)
	}

	percent := 100 * m.processed / m.total
	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render(header),
		m.bar.View(),
		fmt.Sprintf("Files: %d/%d (%d%%)  Failed: %d", m.processed, m.total, percent, m.failed),
	}

	if block := m.renderErrors(); block != "" {
		panel := m.theme.PanelStyle()
		sections = append(sections, panel.Width(max(0, m.width-panel.GetHorizontalFrameSize())).Render(block))
	}

	status := "Looking up metadata... press q to stop"
	if m.last != "" {
		status = filepath.Base(m.last)
	}
	sections = append(sections, m.theme.StatusBarStyle().Width(m.width).Render(status))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderErrors shows the newest errors that fit the window.
func (m *Model) renderErrors() string {
	if len(m.errors) == 0 {
		return ""
	}

	show := min(len(m.errors), max(1, m.height-errorBaseLines))
	width := max(10, m.width-6)

	lines := []string{fmt.Sprintf("Errors: %d", len(m.errors))}
	for _, msg := range m.errors[len(m.errors)-show:] {
		lines = append(lines, "• "+runewidth.Truncate(msg, width, "..."))
	}
	if hidden := len(m.errors) - show; hidden > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", hidden))
	}
	return m.theme.TextStyle(m.theme.Colors().Error).Render(strings.Join(lines, "\n"))
}

// Processed returns how many files have finished.
func (m *Model) Processed() int { return m.processed }

// Failed returns how many files failed.
func (m *Model) Failed() int { return m.failed }

// Done reports whether every event was received.
func (m *Model) Done() bool { return m.done }

// Canceled reports whether the user aborted.
func (m *Model) Canceled() bool { return m.canceled }
