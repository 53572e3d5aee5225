package app

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fishing-buddy.klederson.com/internal/bluetooth"
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

// ProgramSink forwards session output to a Bubble Tea program.
type ProgramSink struct {
	P bluetooth.Sender
}

func (s ProgramSink) ConnectionChanged(n session.Notice) {
	s.P.Send(NoticeMsg{Notice: n})
}

func (s ProgramSink) ReadingReceived(r packet.SensorReading, intent hit.Intent) {
	s.P.Send(ReadingMsg{Reading: r, Intent: intent, At: time.Now()})
}

// ProgramRef is a Sender for a program created after the session it
// listens to. Messages sent before Attach are dropped.
type ProgramRef struct {
	mu sync.Mutex
	p  bluetooth.Sender
}

// Attach sets the program messages are forwarded to.
func (r *ProgramRef) Attach(p bluetooth.Sender) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *ProgramRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
