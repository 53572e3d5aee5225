package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EventQueueSize is the number of events that may be buffered before Post blocks.
const EventQueueSize = 256

// Loop serialises transport callbacks and caller requests onto one goroutine
// so the Machine, the codec and the debouncer only ever see a single writer.
type Loop struct {
	machine   *Machine
	events    chan Event
	done      chan struct{}
	log       *logrus.Entry
	reconnect time.Duration

	// retryGen invalidates pending reconnects when the caller stops or a
	// newer retry is scheduled.
	retryGen uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithReconnect restarts the machine after delay whenever a session ends in
// Disconnected or Failed. The machine itself never retries.
func WithReconnect(delay time.Duration) LoopOption {
	return func(l *Loop) { l.reconnect = delay }
}

// WithLoopLogger sets the log entry used by the loop.
func WithLoopLogger(e *logrus.Entry) LoopOption {
	return func(l *Loop) { l.log = e }
}

// retryStart is posted by the reconnect timer.
type retryStart struct {
	gen uint64
}

func (retryStart) event() {}

// NewLoop wraps m. Delayed events scheduled by m are routed back through the loop.
func NewLoop(m *Machine, opts ...LoopOption) *Loop {
	l := &Loop{
		machine: m,
		events:  make(chan Event, EventQueueSize),
		done:    make(chan struct{}),
		log:     logrus.WithField("component", "loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if m.schedule == nil {
		m.schedule = l.after
	}
	return l
}

// Post queues ev for the loop goroutine. It is safe to call from any
// goroutine and returns false once the loop has exited.
func (l *Loop) Post(ev Event) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}

// Start asks the machine to start scanning.
func (l *Loop) Start() bool { return l.Post(StartRequested{}) }

// Stop asks the machine to tear everything down.
func (l *Loop) Stop() bool { return l.Post(StopRequested{}) }

// Run dispatches events until ctx is cancelled. On exit the machine is
// stopped so the scan and link are released.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.machine.Dispatch(StopRequested{})
			return ctx.Err()
		case ev := <-l.events:
			l.dispatch(ev)
		}
	}
}

func (l *Loop) dispatch(ev Event) {
	starting := false
	switch e := ev.(type) {
	case retryStart:
		if e.gen != l.retryGen {
			return
		}
		l.log.Info("Reconnecting")
		ev = StartRequested{}
		starting = true
	case StartRequested:
		starting = true
	case StopRequested:
		l.retryGen++
	}

	before := l.machine.State()
	l.machine.Dispatch(ev)
	after := l.machine.State()

	// A start that fails again leaves the state at Failed, so a failed start
	// counts as an ending too.
	ended := after == Disconnected || after == Failed
	if l.reconnect > 0 && ended && (after != before || starting) {
		l.retryGen++
		l.log.Infof("Session ended (%s), retrying in %s", after, l.reconnect)
		l.after(l.reconnect, retryStart{gen: l.retryGen})
	}
}

func (l *Loop) after(d time.Duration, ev Event) {
	time.AfterFunc(d, func() { l.Post(ev) })
}
