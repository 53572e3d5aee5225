package notify

import (
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

// Event types sent on the websocket feed.
const (
	EventConnection = "connection"
	EventReading    = "reading"
)

// Event is one message on the websocket feed.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ConnectionPayload struct {
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	Address string `json:"address,omitempty"`
	RSSI    int16  `json:"rssi,omitempty"`
}

type ReadingPayload struct {
	GyroX     float32 `json:"gyro_x"`
	GyroY     float32 `json:"gyro_y"`
	GyroZ     float32 `json:"gyro_z"`
	AccX      float32 `json:"acc_x"`
	AccY      float32 `json:"acc_y"`
	AccZ      float32 `json:"acc_z"`
	Hit       bool    `json:"hit"`
	Intent    string  `json:"intent"`
	Magnitude float64 `json:"magnitude"`
}

func connectionEvent(n session.Notice) Event {
	p := ConnectionPayload{
		State:   n.State.String(),
		Address: n.Address,
		RSSI:    n.RSSI,
	}
	if n.Err != nil {
		p.Error = n.Err.Error()
	}
	return Event{Type: EventConnection, Payload: p}
}

func readingEvent(r packet.SensorReading, intent hit.Intent) Event {
	return Event{Type: EventReading, Payload: ReadingPayload{
		GyroX:     r.GyroX,
		GyroY:     r.GyroY,
		GyroZ:     r.GyroZ,
		AccX:      r.AccX,
		AccY:      r.AccY,
		AccZ:      r.AccZ,
		Hit:       r.HitRaw,
		Intent:    intent.String(),
		Magnitude: r.AccelMagnitude(),
	}}
}
