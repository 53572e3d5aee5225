package ui

import (
	"fmt"
	"strings"

	"fishing-buddy.klederson.com/internal/bluetooth"
)

// RenderDeviceList renders the scrollable list of sensors found while
// pairing. The currently paired address is marked with "*".
// The title stays fixed at the top; only the device entries scroll.
func RenderDeviceList(devices []*bluetooth.Device, width, height, cursorIndex int, paired string) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("SENSORS [%d]", len(devices)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}
	headerCount := len(headerLines)

	// Total inner height (excluding border top+bottom)
	innerH := height - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}
	devSpace := innerH - headerCount

	var devLines []string
	if len(devices) == 0 {
		devLines = append(devLines, "")
		devLines = append(devLines, StyleHelp.Render(" No sensors yet..."))
		devLines = append(devLines, StyleHelp.Render(" Switch the rod sensor on"))
	} else {
		linesPerDevice := 3 // 2 content + 1 blank
		maxVisible := devSpace / linesPerDevice
		if maxVisible < 1 {
			maxVisible = 1
		}

		// Compute viewport start so cursor is always visible
		viewStart := 0
		if cursorIndex >= maxVisible {
			viewStart = cursorIndex - maxVisible + 1
		}

		for i := viewStart; i < len(devices) && len(devLines) < devSpace; i++ {
			isPaired := strings.EqualFold(devices[i].Address, paired)
			devLines = append(devLines, renderDeviceEntry(devices[i], innerW, i == cursorIndex, isPaired)...)
		}
	}

	all := make([]string, 0, innerH)
	all = append(all, headerLines...)
	all = append(all, devLines...)
	content := clampLines(strings.Join(all, "\n"), innerH)

	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(content)
	return clampLines(rendered, height)
}

func renderDeviceEntry(d *bluetooth.Device, maxW int, isCursor, isPaired bool) []string {
	name := d.DisplayName()
	nameMax := maxW - 12
	if nameMax < 4 {
		nameMax = 4
	}
	if len(name) > nameMax {
		name = name[:nameMax]
	}

	cursor := "  "
	if isCursor {
		cursor = ">>"
	}
	mark := " "
	if isPaired {
		mark = "*"
	}
	bars := strings.Repeat("|", d.SignalBars()) + strings.Repeat(".", 4-d.SignalBars())

	rssiStr := fmt.Sprintf("%ddBm", int(d.RSSI))
	distStr := fmt.Sprintf("~%.1fm", d.Distance)

	if isCursor {
		raw1 := truncRaw(fmt.Sprintf("%s %s %s %s", cursor, mark, name, bars), maxW)
		raw2 := truncRaw(fmt.Sprintf("     %s  %s  %s", d.Address, rssiStr, distStr), maxW)
		return []string{StyleCursorRow.Render(raw1), StyleCursorRow.Render(raw2), ""}
	}

	if isPaired {
		mark = StylePairedMarker.Render(mark)
	}
	barsSty := StyleDeviceRSSI.Foreground(proximityColor(d.RSSI))
	line1 := fmt.Sprintf("%s %s %s %s", cursor, mark, StyleDeviceName.Render(name), barsSty.Render(bars))
	line2 := fmt.Sprintf("     %s  %s  %s", StyleDeviceMAC.Render(d.Address), StyleDeviceRSSI.Render(rssiStr), StyleDeviceDist.Render(distStr))
	return []string{line1, line2, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}
