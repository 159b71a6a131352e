package choose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Digital-Shane/namer/internal/tui/theme"
)

// Action is what the user decided for a file.
type Action int

const (
	// Pending means the model quit without a decision.
	Pending Action = iota
	Select
	Guess
	Skip
	Quit
)

// Result is the decision taken in the chooser. Index is only meaningful
// for Select.
type Result struct {
	Action Action
	Index  int
}

// Model lets the user pick one of the candidates found for a file.
type Model struct {
	source string
	guess  string
	items  []string

	cursor int
	result Result

	width int
	theme theme.Theme
}

// New creates a chooser for source with its best guess and the
// candidate descriptions.
func New(source, guess string, items []string, th theme.Theme) *Model {
	return &Model{
		source: source,
		guess:  guess,
		items:  items,
		width:  80,
		theme:  th,
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = max(0, len(m.items)-1)
	case "enter":
		if len(m.items) == 0 {
			return m.finish(Result{Action: Guess})
		}
		return m.finish(Result{Action: Select, Index: m.cursor})
	case "g":
		return m.finish(Result{Action: Guess})
	case "s":
		return m.finish(Result{Action: Skip})
	case "q", "esc", "ctrl+c":
		return m.finish(Result{Action: Quit})
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.items) {
			return m.finish(Result{Action: Select, Index: n - 1})
		}
	}
	return m, nil
}

func (m *Model) finish(r Result) (tea.Model, tea.Cmd) {
	m.result = r
	return m, tea.Quit
}

func (m *Model) View() string {
	colors := m.theme.Colors()
	width := max(10, m.width-4)

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render(runewidth.Truncate(m.source, width, "...")),
		m.theme.TextStyle(colors.Muted).Render("guess  ") + m.guess,
	}

	if len(m.items) == 0 {
		sections = append(sections, m.theme.TextStyle(colors.Muted).Render("no matches"))
	}
	var lines []string
	for i, item := range m.items {
		line := fmt.Sprintf("%d. %s", i+1, item)
		line = runewidth.Truncate(line, width, "...")
		if i == m.cursor {
			lines = append(lines, m.theme.TextStyle(colors.Accent).Bold(true).Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	if len(lines) > 0 {
		sections = append(sections, strings.Join(lines, "\n"))
	}

	help := "↑/↓ move • enter/1-9 select • g guess • s skip • q quit"
	sections = append(sections, m.theme.StatusBarStyle().Width(m.width).Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// Result returns the decision, Pending until the user made one.
func (m *Model) Result() Result { return m.result }

// Cursor returns the highlighted candidate.
func (m *Model) Cursor() int { return m.cursor }
