package app

import (
	"time"

	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

// TickMsg triggers a frame update.
type TickMsg time.Time

// EvictMsg triggers candidate eviction on the pairing screen.
type EvictMsg time.Time

// NoticeMsg carries a connection change from the session loop.
type NoticeMsg struct {
	Notice session.Notice
}

// ReadingMsg carries a decoded packet and the debouncer's decision.
type ReadingMsg struct {
	Reading packet.SensorReading
	Intent  hit.Intent
	At      time.Time
}

// ScanErrorMsg reports scanner errors.
type ScanErrorMsg struct {
	Err error
}
