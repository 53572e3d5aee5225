package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"fishing-buddy.klederson.com/internal/session"
)

// Indicator is what the big panel is currently showing.
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorStrike
	IndicatorMeasuring
)

// HitView is what the hit panel shows.
type HitView struct {
	Notice     session.Notice
	Indicator  Indicator
	Spinner    string
	Strikes    int
	LastStrike time.Time
}

var strikeBanner = []string{
	` ____ _____ ____  ___ _  _______ _ `,
	`/ ___|_   _|  _ \|_ _| |/ / ____| |`,
	`\___ \ | | | |_) || || ' /|  _| | |`,
	` ___) || | |  _ < | || . \| |___|_|`,
	`|____/ |_| |_| \_\___|_|\_\_____(_)`,
}

// RenderHitPanel renders the strike / measuring indicator, or the connection
// progress while not streaming.
func RenderHitPanel(v HitView, width, height int) string {
	innerW := width - 4
	innerH := height - 2
	if innerW < 10 {
		innerW = 10
	}

	var body []string
	style := StylePanelBorder

	switch {
	case v.Notice.State != session.Subscribed:
		body = connectionLines(v)
	case v.Indicator == IndicatorStrike:
		style = StylePanelStrike
		for _, l := range strikeBanner {
			body = append(body, StyleStrike.Render(l))
		}
		body = append(body, "", StyleStrike.Render("Something is on the line!"))
	default:
		style = StylePanelActive
		body = []string{StyleMeasuring.Render(v.Spinner + " Measuring...")}
	}

	if v.Strikes > 0 {
		body = append(body, "", StyleLabel.Render(fmt.Sprintf("Strikes: %d  last %s", v.Strikes, formatLastSeen(v.LastStrike))))
	}

	content := lipgloss.Place(innerW, innerH, lipgloss.Center, lipgloss.Center, strings.Join(body, "\n"))
	return style.Width(width - 2).Height(innerH).Render(clampLines(content, innerH))
}

func connectionLines(v HitView) []string {
	n := v.Notice
	lines := []string{StateBadge(n.State), ""}

	switch n.State {
	case session.Scanning:
		lines = append(lines, v.Spinner+" Looking for the rod sensor...")
	case session.Connecting:
		lines = append(lines, v.Spinner+" Connecting to "+n.Address)
	case session.DiscoveringServices:
		lines = append(lines, v.Spinner+" Checking sensor services...")
	case session.Disconnected:
		lines = append(lines, StyleStateDown.Render("Device disconnected"))
	}

	if n.Err != nil {
		lines = append(lines, StyleError.Render(n.Err.Error()))
		if errors.Is(n.Err, session.ErrNotPaired) {
			lines = append(lines, "", StyleHelp.Render("Run `fishing-buddy pair` first"))
		}
	}
	if n.State == session.Idle || n.State == session.Disconnected || n.State == session.Failed {
		lines = append(lines, "", StyleHelp.Render("Press [S] to start"))
	}
	return lines
}
