package session

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
)

// Machine is the connection state machine for a single rod sensor.
// It is not safe for concurrent use: feed it through a Loop.
type Machine struct {
	transport Transport
	pairing   PairingStore
	sink      Sink
	log       *logrus.Entry

	serviceName    string
	strategy       Strategy
	connectTimeout time.Duration
	schedule       func(time.Duration, Event)

	state   State
	err     error
	session uint64
	address string
	rssi    int16
	matcher Matcher

	debounce hit.Debouncer
}

// Option configures a Machine.
type Option func(*Machine)

// WithServiceName overrides the advertised device name to look for.
func WithServiceName(name string) Option {
	return func(m *Machine) { m.serviceName = name }
}

// WithStrategy sets how advertisements are matched against the pairing.
func WithStrategy(s Strategy) Option {
	return func(m *Machine) { m.strategy = s }
}

// WithConnectTimeout fails a connect or discovery that takes longer than d.
// Zero disables the timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Machine) { m.connectTimeout = d }
}

// WithLogger sets the log entry used by the machine.
func WithLogger(l *logrus.Entry) Option {
	return func(m *Machine) { m.log = l }
}

// WithScheduler sets the function used to deliver delayed events.
func WithScheduler(fn func(time.Duration, Event)) Option {
	return func(m *Machine) { m.schedule = fn }
}

// New creates a Machine in the Idle state.
func New(t Transport, p PairingStore, sink Sink, opts ...Option) *Machine {
	if sink == nil {
		sink = nopSink{}
	}
	m := &Machine{
		transport:   t,
		pairing:     p,
		sink:        sink,
		log:         logrus.WithField("component", "session"),
		serviceName: config.ServiceName,
		strategy:    MatchAddress,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Err returns the reason for the last Failed state or start refusal.
func (m *Machine) Err() error { return m.err }

// Session returns the id of the current connection attempt.
func (m *Machine) Session() uint64 { return m.session }

// Address returns the address of the device being connected or streamed.
func (m *Machine) Address() string { return m.address }

// DebounceCount exposes the hit debouncer counter.
func (m *Machine) DebounceCount() int { return m.debounce.Count() }

// Dispatch advances the machine by one event.
func (m *Machine) Dispatch(ev Event) {
	switch ev := ev.(type) {
	case StartRequested:
		m.start()
	case StopRequested:
		m.stop()
	case ScanResult:
		m.scanResult(ev.Advertisement)
	case LinkUp:
		if m.current(ev.Session, "link up") {
			m.linkUp()
		}
	case LinkFailed:
		if m.current(ev.Session, "link failed") {
			m.linkLost(ev.Err)
		}
	case LinkDown:
		if m.current(ev.Session, "link down") {
			m.linkLost(nil)
		}
	case ServicesDiscovered:
		if m.current(ev.Session, "services discovered") {
			m.servicesDiscovered(ev.Found, ev.Err)
		}
	case ValueChanged:
		if m.current(ev.Session, "value changed") {
			m.valueChanged(ev.Data)
		}
	case ConnectTimeout:
		if m.current(ev.Session, "connect timeout") {
			m.timeout()
		}
	}
}

func (m *Machine) current(id uint64, what string) bool {
	if id != m.session {
		m.log.Debugf("Dropping stale %s event for session %d (current %d)", what, id, m.session)
		return false
	}
	return true
}

func (m *Machine) start() {
	if m.state.Busy() {
		m.log.Debugf("Start ignored while %s", m.state)
		return
	}

	if err := m.transport.Ready(); err != nil {
		m.enter(Idle, err)
		return
	}

	paired, ok := m.pairing.PairedAddress()
	if !ok {
		m.enter(Idle, ErrNotPaired)
		return
	}

	m.matcher = m.strategy(m.serviceName, paired)
	m.address = ""
	m.rssi = 0
	if err := m.transport.StartScan(m.matcher.Filter()); err != nil {
		m.enter(Failed, fmt.Errorf("start scan: %w", err))
		return
	}
	m.enter(Scanning, nil)
}

func (m *Machine) stop() {
	switch {
	case m.state == Scanning:
		if err := m.transport.StopScan(); err != nil {
			m.log.Warnf("Failed to stop scan: %v", err)
		}
	case m.state.linked():
		m.release()
	case m.state == Idle:
		return
	}

	m.session++
	m.debounce.Reset()
	m.enter(Idle, nil)
}

func (m *Machine) scanResult(adv Advertisement) {
	if m.state != Scanning {
		return
	}
	if !m.matcher.Matches(adv) {
		m.log.Debugf("Ignoring advertisement from %q (%s)", adv.Name, adv.Address)
		return
	}

	if err := m.transport.StopScan(); err != nil {
		m.log.Warnf("Failed to stop scan: %v", err)
	}

	m.session++
	m.address = adv.Address
	m.rssi = adv.RSSI
	m.enter(Connecting, nil)

	if err := m.transport.Connect(m.session, adv.Address); err != nil {
		m.fail(fmt.Errorf("%w: %v", ErrLinkFailed, err))
		return
	}
	m.armTimeout()
}

func (m *Machine) linkUp() {
	if m.state != Connecting {
		return
	}
	m.enter(DiscoveringServices, nil)
	if err := m.transport.Discover(m.session); err != nil {
		m.fail(fmt.Errorf("%w: %v", ErrServiceNotFound, err))
	}
}

func (m *Machine) servicesDiscovered(found bool, cause error) {
	if m.state != DiscoveringServices {
		return
	}
	if !found {
		if cause != nil {
			m.fail(fmt.Errorf("%w: %v", ErrServiceNotFound, cause))
		} else {
			m.fail(ErrServiceNotFound)
		}
		return
	}

	if err := m.transport.EnableNotifications(m.session); err != nil {
		m.fail(fmt.Errorf("enable notifications: %w", err))
		return
	}
	m.debounce.Reset()
	m.enter(Subscribed, nil)
}

func (m *Machine) linkLost(cause error) {
	switch m.state {
	case Connecting, DiscoveringServices:
		if cause != nil {
			m.fail(fmt.Errorf("%w: %v", ErrLinkFailed, cause))
		} else {
			m.fail(ErrLinkFailed)
		}
	case Subscribed:
		m.release()
		m.debounce.Reset()
		if cause != nil {
			m.enter(Failed, fmt.Errorf("%w: %v", ErrLinkFailed, cause))
			return
		}
		m.enter(Disconnected, nil)
	}
}

func (m *Machine) valueChanged(data []byte) {
	if m.state != Subscribed {
		return
	}
	reading, err := packet.Decode(data)
	if err != nil {
		m.log.Warnf("Dropping packet: %v", err)
		return
	}
	m.sink.ReadingReceived(reading, m.debounce.Observe(reading))
}

func (m *Machine) timeout() {
	switch m.state {
	case Connecting, DiscoveringServices:
		m.log.Warnf("No response from %s while %s", m.address, m.state)
		m.fail(ErrTimeout)
	}
}

// fail releases the link and enters Failed.
func (m *Machine) fail(err error) {
	if m.state.linked() {
		m.release()
	}
	m.enter(Failed, err)
}

func (m *Machine) release() {
	if err := m.transport.Disconnect(m.session); err != nil {
		m.log.Debugf("Disconnect session %d: %v", m.session, err)
	}
}

func (m *Machine) armTimeout() {
	if m.connectTimeout <= 0 || m.schedule == nil {
		return
	}
	m.schedule(m.connectTimeout, ConnectTimeout{Session: m.session})
}

func (m *Machine) enter(s State, err error) {
	prev := m.state
	m.state = s
	m.err = err

	entry := m.log.WithFields(logrus.Fields{"from": prev, "to": s})
	if m.address != "" {
		entry = entry.WithField("address", m.address)
	}
	if err != nil {
		entry.WithError(err).Warn("Connection state changed")
	} else {
		entry.Info("Connection state changed")
	}

	m.sink.ConnectionChanged(Notice{State: s, Err: err, Address: m.address, RSSI: m.rssi})
}
