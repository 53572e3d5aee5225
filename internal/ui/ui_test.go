package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"

	"fishing-buddy.klederson.com/internal/bluetooth"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

func TestRenderDeviceListHeight(t *testing.T) {
	devices := []*bluetooth.Device{
		{Address: "AA:BB:CC:DD:EE:01", Name: "Fishing Buddy BLE Server", RSSI: -50, Distance: 0.8},
		{Address: "AA:BB:CC:DD:EE:02", Name: "Fishing Buddy BLE Server", RSSI: -80, Distance: 9.1},
	}
	for _, h := range []int{5, 12, 30} {
		out := RenderDeviceList(devices, 40, h, 1, "AA:BB:CC:DD:EE:02")
		assert.Len(t, strings.Split(out, "\n"), h, "height %d", h)
	}

	out := RenderDeviceList(devices, 60, 20, 0, "")
	assert.Contains(t, out, "SENSORS [2]")
	assert.Contains(t, out, "AA:BB:CC:DD:EE:02")
}

func TestRenderDeviceListEmpty(t *testing.T) {
	out := RenderDeviceList(nil, 40, 10, 0, "")
	assert.Contains(t, out, "No sensors yet")
}

func TestRenderSparkline(t *testing.T) {
	assert.Equal(t, "", renderSparkline(nil, 10))
	assert.Equal(t, "_^", renderSparkline([]float64{0, 1}, 10))
	assert.Equal(t, "__", renderSparkline([]float64{1, 1}, 10))
	assert.Len(t, renderSparkline(make([]float64, 50), 10), 10)
}

func TestTruncRaw(t *testing.T) {
	assert.Equal(t, "abc  ", truncRaw("abc", 5))
	assert.Equal(t, "abc", truncRaw("abcdef", 3))
}

func TestClampLines(t *testing.T) {
	assert.Equal(t, "a\nb", clampLines("a\nb\nc", 2))
	assert.Equal(t, "a\n\n", clampLines("a", 3))
}

func TestFormatLastSeen(t *testing.T) {
	assert.Equal(t, "never", formatLastSeen(time.Time{}))
	assert.Equal(t, "now", formatLastSeen(time.Now()))
	assert.Equal(t, "5s ago", formatLastSeen(time.Now().Add(-5*time.Second)))
	assert.Equal(t, "2m ago", formatLastSeen(time.Now().Add(-150*time.Second)))
}

func TestRenderHitPanel(t *testing.T) {
	live := session.Notice{State: session.Subscribed}

	out := RenderHitPanel(HitView{Notice: live, Indicator: IndicatorStrike, Strikes: 1, LastStrike: time.Now()}, 60, 16)
	assert.Contains(t, out, "Something is on the line!")
	assert.Contains(t, out, "Strikes: 1")

	out = RenderHitPanel(HitView{Notice: live, Indicator: IndicatorMeasuring, Spinner: "*"}, 60, 16)
	assert.Contains(t, out, "* Measuring...")

	out = RenderHitPanel(HitView{Notice: session.Notice{State: session.Idle, Err: session.ErrNotPaired}}, 60, 16)
	assert.Contains(t, out, "[IDLE]")
	assert.Contains(t, out, "fishing-buddy pair")

	out = RenderHitPanel(HitView{Notice: session.Notice{State: session.Connecting, Address: "AA"}, Spinner: "o"}, 60, 16)
	assert.Contains(t, out, "o Connecting to AA")
}

func TestRenderSensorPanel(t *testing.T) {
	out := RenderSensorPanel(SensorView{}, 50, 20)
	assert.Contains(t, out, "Waiting for data")

	v := SensorView{
		Reading:    packet.SensorReading{GyroX: 1, GyroY: -2.5, AccZ: 1},
		HasReading: true,
		LastPacket: time.Now(),
		History:    []float64{1, 1.2, 0.9},
	}
	out = RenderSensorPanel(v, 50, 24)
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "-2.50")
	assert.Contains(t, out, "1.00g")
	assert.Len(t, strings.Split(out, "\n"), 24)
}

func TestRenderMenuBarSkipsDisabled(t *testing.T) {
	start := key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "tart"))
	hidden := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "secret"))
	hidden.SetEnabled(false)

	out := RenderMenuBar(80, []key.Binding{start, hidden}, "WATCH")
	assert.Contains(t, out, "[S]")
	assert.Contains(t, out, "tart")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "WATCH")
}

func TestStatusBar(t *testing.T) {
	out := RenderStatusBar(100, session.Notice{State: session.Subscribed, Address: "AA", RSSI: -61}, 120, 2, "")
	assert.Contains(t, out, "[SUBSCRIBED]")
	assert.Contains(t, out, "Packets: 120")
	assert.Contains(t, out, "Strikes: 2")
	assert.Contains(t, out, "RSSI: -61dBm")
}
