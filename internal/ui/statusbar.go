package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fishing-buddy.klederson.com/internal/session"
)

// StateBadge renders a connection state as "[STATE]" in a color matching
// its health.
func StateBadge(s session.State) string {
	label := "[" + strings.ToUpper(s.String()) + "]"
	switch {
	case s == session.Subscribed:
		return StyleStateLive.Render(label)
	case s.Busy():
		return StyleStateBusy.Render(label)
	case s == session.Idle:
		return StyleHelp.Render(label)
	default:
		return StyleStateDown.Render(label)
	}
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, n session.Notice, packets, strikes int, extra string) string {
	info := fmt.Sprintf(" Packets: %d  Strikes: %d", packets, strikes)
	if n.Address != "" {
		info += "  Device: " + n.Address
	}
	if n.RSSI != 0 {
		info += fmt.Sprintf("  RSSI: %ddBm", n.RSSI)
	}
	if extra != "" {
		info += "  " + extra
	}

	content := StateBadge(n.State) + StyleStatusBar.Foreground(ColorGreen).Render(info)

	gap := width - 2 - lipgloss.Width(content)
	if gap < 0 {
		gap = 0
	}

	return StyleStatusBar.Width(width).Render(content + strings.Repeat(" ", gap))
}
