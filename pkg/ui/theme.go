package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the adaptive palette and the few composed styles the tree view
// needs. Colors adapt to the terminal background through Renderer.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor

	// Checkbox states
	Checked lipgloss.AdaptiveColor
	Partial lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
}

// DefaultTheme returns the Dracula-flavoured palette bound to r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#4A5A8A", Dark: "#6272A4"},
		Muted:     lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#6C6C6C"},
		Highlight: lipgloss.AdaptiveColor{Light: "#00897B", Dark: "#8BE9FD"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#616161", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"},

		Checked: lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#50FA7B"},
		Partial: lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFB86C"},
	}
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1E1F29", Dark: "#F8F8F2"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E8E3FF", Dark: "#44475A"}).
		Bold(true)
	return t
}

// ThemeForMode binds the default palette to r after forcing the background
// mode: "dark" or "light". Any other mode keeps the renderer's detection.
func ThemeForMode(r *lipgloss.Renderer, mode string) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	switch mode {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return DefaultTheme(r)
}
