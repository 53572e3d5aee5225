// Package hit turns the per-packet hit flag into display intents.
package hit

import "fishing-buddy.klederson.com/internal/packet"

// Threshold is how many consecutive non-hit packets must arrive before the
// hit indicator is cleared.
const Threshold = 50

// Intent tells the display what to do after a packet.
type Intent int

const (
	NoChange Intent = iota
	ShowHit
	ShowMeasuring
)

func (i Intent) String() string {
	switch i {
	case ShowHit:
		return "show-hit"
	case ShowMeasuring:
		return "show-measuring"
	default:
		return "no-change"
	}
}

// Debouncer holds the hit indicator up across BLE notification jitter.
// It is not safe for concurrent use.
type Debouncer struct {
	count int
}

// Observe feeds one reading, in arrival order, and returns the resulting intent.
func (d *Debouncer) Observe(r packet.SensorReading) Intent {
	if r.HitRaw {
		d.count = 0
		return ShowHit
	}

	d.count++
	if d.count >= Threshold {
		return ShowMeasuring
	}
	return NoChange
}

// Reset starts a new session.
func (d *Debouncer) Reset() {
	d.count = 0
}

// Count returns the number of non-hit readings since the last hit or reset.
func (d *Debouncer) Count() int {
	return d.count
}
