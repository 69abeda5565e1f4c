package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme defines the colour palette for terminal output.
type Theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
	}
}

// Styles contains the lipgloss styles used by the printer.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Label: lipgloss.NewStyle().
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),
	}
}

// PlainStyles renders text unchanged, for pipes and files.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Title:   plain,
		Label:   plain,
		Muted:   plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
	}
}

// stylesFor picks coloured styles only when w is a terminal.
func stylesFor(w io.Writer) *Styles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewStyles(nil)
	}
	return PlainStyles()
}
