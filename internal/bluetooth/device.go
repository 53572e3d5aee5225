package bluetooth

import (
	"math"
	"time"
)

// Device is a sensor candidate seen on the pairing screen.
type Device struct {
	Address    string
	Name       string
	RSSI       float64 // EMA-smoothed
	LastSeen   time.Time
	Distance   float64 // Estimated distance in meters
	HasService bool    // Advertised the sensor service UUID
}

// DisplayName returns the device name or "[unnamed]" if empty.
func (d *Device) DisplayName() string {
	if d.Name == "" {
		return "[unnamed]"
	}
	return d.Name
}

// SignalBars maps RSSI to 0..4 bars.
func (d *Device) SignalBars() int {
	switch {
	case d.RSSI >= -55:
		return 4
	case d.RSSI >= -67:
		return 3
	case d.RSSI >= -80:
		return 2
	case d.RSSI >= -90:
		return 1
	default:
		return 0
	}
}

// RSSIToDistance estimates distance from RSSI using the log-distance path loss model.
// Formula: d = 10^((measuredPower - rssi) / (10 * n))
func RSSIToDistance(rssi, measuredPower, pathLossExp float64) float64 {
	if rssi >= 0 {
		return 0.1
	}
	d := math.Pow(10, (measuredPower-rssi)/(10*pathLossExp))
	if d < 0.1 {
		return 0.1
	}
	return d
}
