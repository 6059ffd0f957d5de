package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const helpDropZones = `**Drop zones**
  above     Sibling before the target
  center    Last child of the target
  below     Sibling after the target

Hovering a collapsed row expands it after a moment.`

// helpSection renders bindings as an aligned "key  description" block.
func helpSection(title string, bindings []key.Binding) string {
	var b strings.Builder
	b.WriteString("**" + title + "**\n")
	for _, binding := range bindings {
		h := binding.Help()
		fmt.Fprintf(&b, "  %-10s%s\n", h.Key, h.Desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

// HelpContent returns the quick reference text for the key map.
func HelpContent(k KeyMap) string {
	sections := []string{
		helpSection("Navigation", []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Toggle, k.Top, k.Bottom, k.PageUp, k.PageDown}),
		helpSection("Tree", []key.Binding{k.ExpandAll, k.CollapseAll, k.Copy, k.Help, k.Quit}),
		helpSection("Drag", []key.Binding{k.Pick, k.NextZone, k.PrevZone, k.Drop, k.Cancel}),
		helpDropZones,
	}
	return strings.Join(sections, "\n\n")
}

// RenderHelp renders the quick reference modal.
// This is a compact modal (~60 chars wide) centered in the window.
func RenderHelp(k KeyMap, theme Theme, width, height int) string {
	r := theme.Renderer

	modalWidth := 60
	if width > 0 && modalWidth > width-4 {
		modalWidth = max(width-4, 20)
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(theme.Base.Render(HelpContent(k)))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Press any key to close"))

	modal := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	if width <= 0 || height <= 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
