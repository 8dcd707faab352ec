// Package styles provides the colour theme of the interactive shell.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/specimen/internal/adapters/driving/render"
)

// Theme defines the colour palette of the shell.
type Theme struct {
	// Primary is the main accent colour, used for the prompt.
	Primary lipgloss.Color

	// Secondary highlights the open sample.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Border is the table and input border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Prompt styles the "specimen" prompt label.
	Prompt lipgloss.Style

	// Project styles the active project in the prompt.
	Project lipgloss.Style

	// Session styles the open sample name in the prompt.
	Session lipgloss.Style

	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	// Echo styles commands echoed into the output history.
	Echo lipgloss.Style

	// StatusBar style for the status bar.
	StatusBar lipgloss.Style

	// TableHeader styles table headers in command output.
	TableHeader lipgloss.Style

	// Border styles table borders.
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Project: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		Session: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Echo: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary).
			Padding(0, 1),

		Border: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Output returns the styles used to render command output.
func (s *Styles) Output() render.Styles {
	return render.Styles{
		Info:    s.Normal,
		Success: s.Success,
		Warning: s.Warning,
		Error:   s.Error,
		Header:  s.TableHeader,
		Cell:    s.Normal.Padding(0, 1),
		Border:  s.Border,
	}
}
