package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/catalogtree/pkg/model"
)

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	// Kinds
	Category    lipgloss.AdaptiveColor
	SubCategory lipgloss.AdaptiveColor
	Product     lipgloss.AdaptiveColor
	SubProduct  lipgloss.AdaptiveColor

	// Styles
	Base       lipgloss.Style
	Selected   lipgloss.Style
	Header     lipgloss.Style
	Footer     lipgloss.Style
	Dragged    lipgloss.Style // Row being dragged
	DropTarget lipgloss.Style // Row under the drag cursor
	ErrorText  lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},

		Category:    lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		SubCategory: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan
		Product:     lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		SubProduct:  lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Footer = r.NewStyle().Foreground(t.Muted)
	t.Dragged = r.NewStyle().Foreground(t.Muted).Italic(true)
	t.DropTarget = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(t.Error).Bold(true)

	return t
}

// GetTypeIcon returns the one-letter badge and color for a node kind.
func (t Theme) GetTypeIcon(ft model.FrontType) (string, lipgloss.AdaptiveColor) {
	switch ft {
	case model.TypeCategory:
		return "C", t.Category
	case model.TypeSubCategory:
		return "S", t.SubCategory
	case model.TypeProduct:
		return "P", t.Product
	case model.TypeSubProduct:
		return "p", t.SubProduct
	default:
		return "·", t.Muted
	}
}
