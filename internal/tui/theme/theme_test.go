package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
)

func TestNewAppliesCustomOptions(t *testing.T) {
	customColors := Colors{
		Primary:    lipgloss.Color("#111111"),
		Secondary:  lipgloss.Color("#222222"),
		Accent:     lipgloss.Color("#333333"),
		Background: lipgloss.Color("#444444"),
		Muted:      lipgloss.Color("#555555"),
		Success:    lipgloss.Color("#666666"),
		Error:      lipgloss.Color("#777777"),
	}

	theme := New(WithColors(customColors), WithPanelBorder(lipgloss.ThickBorder()))

	if diff := cmp.Diff(customColors, theme.Colors()); diff != "" {
		t.Errorf("New(WithColors) colors mismatch (-want +got):\n%s", diff)
	}
	if got := theme.PanelStyle().GetBorderStyle(); got != lipgloss.ThickBorder() {
		t.Errorf("PanelStyle() border = %+v, want thick border", got)
	}
}

func TestDefaultPalette(t *testing.T) {
	theme := Default()

	if got, want := theme.Colors().Primary, lipgloss.Color("#3a6b4a"); got != want {
		t.Errorf("Default() primary = %q, want %q", got, want)
	}
	want := []string{"#3a6b4a", "#8fc279"}
	if diff := cmp.Diff(want, theme.ProgressGradient()); diff != "" {
		t.Errorf("ProgressGradient() mismatch (-want +got):\n%s", diff)
	}
}

func TestStyles(t *testing.T) {
	theme := Default()
	colors := theme.Colors()

	tests := []struct {
		name  string
		style lipgloss.Style
		fg    lipgloss.TerminalColor
		bold  bool
	}{
		{name: "Header", style: theme.HeaderStyle(), fg: colors.Background, bold: true},
		{name: "Title", style: theme.TitleStyle(), fg: colors.Primary, bold: true},
		{name: "StatusBar", style: theme.StatusBarStyle(), fg: colors.Background},
		{name: "Text", style: theme.TextStyle(colors.Error), fg: colors.Error},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.style.GetForeground(); got != tc.fg {
				t.Errorf("foreground = %v, want %v", got, tc.fg)
			}
			if got := tc.style.GetBold(); got != tc.bold {
				t.Errorf("bold = %v, want %v", got, tc.bold)
			}
		})
	}
}
