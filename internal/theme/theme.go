// Package theme holds the terminal palettes for the light and dark display
// preferences stored in the profile.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/conneroisu/labsheet/internal/profile"
)

// Semantic colors shared by both palettes.
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Theme is a color palette.
type Theme struct {
	Name       string
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the palette used on light terminals.
func LightTheme() Theme {
	return Theme{
		Name:       profile.ThemeLight,
		Foreground: lipgloss.Color("#1a1a1a"),
		Primary:    lipgloss.Color("#156082"),
		Accent:     lipgloss.Color("#0E2841"),
		Muted:      lipgloss.Color("#6b7280"),
		Border:     lipgloss.Color("#d1d5db"),
	}
}

// DarkTheme returns the palette used on dark terminals.
func DarkTheme() Theme {
	return Theme{
		Name:       profile.ThemeDark,
		Foreground: lipgloss.Color("#e5e7eb"),
		Primary:    lipgloss.Color("#4fa3c7"),
		Accent:     lipgloss.Color("#93c5fd"),
		Muted:      lipgloss.Color("#9ca3af"),
		Border:     lipgloss.Color("#374151"),
		IsDark:     true,
	}
}

// For returns the palette for a stored theme name. Unknown names get the
// light palette.
func For(name string) Theme {
	if name == profile.ThemeDark {
		return DarkTheme()
	}

	return LightTheme()
}

// Styles holds the rendered styles the CLI prints with.
type Styles struct {
	Theme Theme

	Title   lipgloss.Style
	Label   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Box     lipgloss.Style
}

// NewStyles creates styles for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles for the light palette.
func DefaultStyles() Styles {
	return NewStyles(LightTheme())
}

// KeyValue renders "key: value" with the key in the label style.
func (s Styles) KeyValue(key, value string) string {
	return s.Label.Render(key+":") + " " + s.Body.Render(value)
}
