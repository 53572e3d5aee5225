package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"fishing-buddy.klederson.com/internal/config"
)

// RenderMenuBar renders the top menu bar: title, key hints and a right-aligned
// label (the current screen or mode).
func RenderMenuBar(width int, bindings []key.Binding, right string) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	menu := ""
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		menu += "  " + StyleMenuKey.Render("["+strings.ToUpper(h.Key)+"]") + StyleMenuLabel.Render(h.Desc)
	}

	left := StyleMenuKey.Render(title) + menu
	right = StyleMenuLabel.Render(right) + " "

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return StyleMenuBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
