package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// StyleConfig holds the colors used by the build browser.
type StyleConfig struct {
	PrimaryBlue    lipgloss.Color
	AccentBlue     lipgloss.Color
	DarkBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// Duration bands, fastest first.
	Fast lipgloss.Color
	Slow lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		AccentBlue:     lipgloss.Color("#4285F4"),
		DarkBackground: lipgloss.Color("#1E1E1E"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		SelectedColor:  lipgloss.Color("#303134"),
		Fast:           lipgloss.Color("#34A853"),
		Slow:           lipgloss.Color("#EA4335"),
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 1)
}

// TableStyles maps the palette onto the bubbles table.
func (s *StyleConfig) TableStyles() table.Styles {
	st := table.DefaultStyles()
	st.Header = st.Header.
		Foreground(s.PrimaryBlue).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(s.BorderColor)
	st.Cell = st.Cell.Foreground(s.TextPrimary)
	st.Selected = st.Selected.
		Foreground(s.TextPrimary).
		Background(s.SelectedColor)
	return st
}

// FooterStyle frames the detail line under the table.
func (s *StyleConfig) FooterStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(s.BorderColor).
		Padding(0, 1)
}
