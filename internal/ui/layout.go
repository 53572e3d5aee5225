package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ComposeLayout joins the two body panels horizontally, with menu bar on top
// and status bar on bottom.
func ComposeLayout(menuBar, left, right, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// clampLines pads or truncates s to exactly height lines.
// lipgloss Height() only sets a minimum; it won't truncate overflow.
func clampLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
