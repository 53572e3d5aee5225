package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"fishing-buddy.klederson.com/internal/packet"
)

// SensorView is what the sensor panel shows.
type SensorView struct {
	Reading    packet.SensorReading
	HasReading bool
	LastPacket time.Time
	History    []float64 // acceleration magnitude, oldest first
}

// RenderSensorPanel renders the live sensor values, a magnitude bar and a
// sparkline of recent magnitudes.
func RenderSensorPanel(v SensorView, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("SENSOR")
	sep := StyleSeparator.Render(strings.Repeat("-", innerW))
	lines := []string{title, sep, ""}

	if !v.HasReading {
		lines = append(lines, StyleHelp.Render("  Waiting for data..."))
		return StylePanelBorder.Width(width - 2).Height(height - 2).Render(clampLines(strings.Join(lines, "\n"), height-2))
	}

	r := v.Reading
	fields := []struct{ label, value string }{
		{"Gyro X", fmt.Sprintf("%.2f", r.GyroX)},
		{"Gyro Y", fmt.Sprintf("%.2f", r.GyroY)},
		{"Gyro Z", fmt.Sprintf("%.2f", r.GyroZ)},
		{"Acc X", fmt.Sprintf("%.2f", r.AccX)},
		{"Acc Y", fmt.Sprintf("%.2f", r.AccY)},
		{"Acc Z", fmt.Sprintf("%.2f", r.AccZ)},
		{"Hit", fmt.Sprintf("%t", r.HitRaw)},
		{"Last", formatLastSeen(v.LastPacket)},
	}
	for _, f := range fields {
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-10s", f.label))+StyleValue.Render(f.value))
	}
	lines = append(lines, "")

	barWidth := innerW - 22
	if barWidth < 10 {
		barWidth = 10
	}
	mag := r.AccelMagnitude()
	lines = append(lines, StyleLabel.Render("  |acc|    ")+renderLevelBar(mag/3, barWidth)+StyleValue.Render(fmt.Sprintf(" %.2fg", mag)))
	lines = append(lines, "")

	if len(v.History) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, StyleLabel.Render("  Motion:"))
		spark := renderSparkline(v.History, sparkW)
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(spark))
	}

	content := clampLines(strings.Join(lines, "\n"), height-2)
	return StylePanelActive.Width(width - 2).Height(height - 2).Render(content)
}

// renderLevelBar draws ratio (clamped to 0..1) as a filled bar.
func renderLevelBar(ratio float64, width int) string {
	if ratio < 0 || math.IsNaN(ratio) {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))

	color := ColorGreen
	if ratio > 0.66 {
		color = ColorStrike
	}
	filledPart := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("|", filled))
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(strings.Repeat("-", width-filled))
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	// Take last `width` values
	start := 0
	if len(values) > width {
		start = len(values) - width
	}
	values = values[start:]

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	rng := maxV - minV
	if rng < 0.1 {
		rng = 0.1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		sb.WriteByte(chars[idx])
	}

	return sb.String()
}

func formatLastSeen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	if d < time.Second {
		return "now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm ago", int(d.Minutes()))
}
