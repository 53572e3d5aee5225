package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
)

const pairedAddr = "AA:BB:CC:DD:EE:FF"

type fakeTransport struct {
	readyErr   error
	scanErr    error
	connectErr error
	notifyErr  error

	calls []string
}

func (f *fakeTransport) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTransport) Ready() error { return f.readyErr }

func (f *fakeTransport) StartScan(filter ScanFilter) error {
	f.record("scan %s|%s", filter.Name, filter.Address)
	return f.scanErr
}

func (f *fakeTransport) StopScan() error {
	f.record("stop-scan")
	return nil
}

func (f *fakeTransport) Connect(id uint64, address string) error {
	f.record("connect %d %s", id, address)
	return f.connectErr
}

func (f *fakeTransport) Discover(id uint64) error {
	f.record("discover %d", id)
	return nil
}

func (f *fakeTransport) EnableNotifications(id uint64) error {
	f.record("notify %d", id)
	return f.notifyErr
}

func (f *fakeTransport) Disconnect(id uint64) error {
	f.record("disconnect %d", id)
	return nil
}

func (f *fakeTransport) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type recordingSink struct {
	notices  []Notice
	readings []packet.SensorReading
	intents  []hit.Intent
}

func (s *recordingSink) ConnectionChanged(n Notice) {
	s.notices = append(s.notices, n)
}

func (s *recordingSink) ReadingReceived(r packet.SensorReading, i hit.Intent) {
	s.readings = append(s.readings, r)
	s.intents = append(s.intents, i)
}

func (s *recordingSink) last() Notice {
	return s.notices[len(s.notices)-1]
}

func newTestMachine(paired string, opts ...Option) (*Machine, *fakeTransport, *recordingSink) {
	tr := &fakeTransport{}
	sink := &recordingSink{}
	return New(tr, StaticPairing(paired), sink, opts...), tr, sink
}

func matchingAdv() Advertisement {
	return Advertisement{Name: config.ServiceName, Address: pairedAddr, RSSI: -61}
}

// subscribe drives m from Idle to Subscribed.
func subscribe(t *testing.T, m *Machine) {
	t.Helper()
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})
	m.Dispatch(LinkUp{Session: m.Session()})
	m.Dispatch(ServicesDiscovered{Session: m.Session(), Found: true})
	require.Equal(t, Subscribed, m.State())
}

func TestStartWithoutPairingStaysIdle(t *testing.T) {
	m, tr, sink := newTestMachine("")

	m.Dispatch(StartRequested{})

	require.Equal(t, Idle, m.State())
	require.ErrorIs(t, m.Err(), ErrNotPaired)
	require.Zero(t, tr.count("scan"))
	require.Len(t, sink.notices, 1)
	require.ErrorIs(t, sink.last().Err, ErrNotPaired)
}

func TestStartReportsAdapterProblems(t *testing.T) {
	for _, want := range []error{ErrAdapterUnavailable, ErrAdapterDisabled} {
		m, tr, sink := newTestMachine(pairedAddr)
		tr.readyErr = want

		m.Dispatch(StartRequested{})

		require.Equal(t, Idle, m.State())
		require.ErrorIs(t, sink.last().Err, want)
		require.Zero(t, tr.count("scan"))
	}
}

func TestStartScansWithFilter(t *testing.T) {
	m, tr, sink := newTestMachine(pairedAddr)

	m.Dispatch(StartRequested{})

	require.Equal(t, Scanning, m.State())
	require.Equal(t, []string{"scan " + config.ServiceName + "|" + pairedAddr}, tr.calls)
	require.Equal(t, Scanning, sink.last().State)
}

func TestStartIsIdempotent(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)

	m.Dispatch(StartRequested{})
	m.Dispatch(StartRequested{})
	require.Equal(t, 1, tr.count("scan"))

	m.Dispatch(ScanResult{matchingAdv()})
	m.Dispatch(StartRequested{})
	require.Equal(t, Connecting, m.State())
	require.Equal(t, 1, tr.count("scan"))
	require.Equal(t, 1, tr.count("connect"))
}

func TestStartScanErrorFails(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	tr.scanErr = errors.New("busy")

	m.Dispatch(StartRequested{})
	require.Equal(t, Failed, m.State())
	require.ErrorContains(t, m.Err(), "busy")
}

func TestMatchingAdvertisementConnects(t *testing.T) {
	m, tr, sink := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})

	adv := matchingAdv()
	adv.Address = "aa:bb:cc:dd:ee:ff"
	m.Dispatch(ScanResult{adv})

	require.Equal(t, Connecting, m.State())
	require.Equal(t, uint64(1), m.Session())
	require.Contains(t, tr.calls, "stop-scan")
	require.Contains(t, tr.calls, "connect 1 aa:bb:cc:dd:ee:ff")

	n := sink.last()
	require.Equal(t, Connecting, n.State)
	require.Equal(t, int16(-61), n.RSSI)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", n.Address)
}

func TestNonMatchingAdvertisementIgnored(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})

	m.Dispatch(ScanResult{Advertisement{Name: "Other Device", Address: pairedAddr}})
	m.Dispatch(ScanResult{Advertisement{Name: config.ServiceName, Address: "11:22:33:44:55:66"}})

	require.Equal(t, Scanning, m.State())
	require.Zero(t, tr.count("connect"))
	require.Zero(t, tr.count("stop-scan"))
}

func TestAdvertisementOutsideScanningIgnored(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)

	m.Dispatch(ScanResult{matchingAdv()})
	require.Equal(t, Idle, m.State())
	require.Empty(t, tr.calls)
}

func TestConnectErrorFails(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	tr.connectErr = errors.New("no route")
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})

	require.Equal(t, Failed, m.State())
	require.ErrorIs(t, m.Err(), ErrLinkFailed)
}

func TestLinkFailedWhileConnecting(t *testing.T) {
	m, tr, sink := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})

	m.Dispatch(LinkFailed{Session: m.Session(), Err: errors.New("refused")})

	require.Equal(t, Failed, m.State())
	require.ErrorIs(t, m.Err(), ErrLinkFailed)
	require.Equal(t, Failed, sink.last().State)
	require.Equal(t, 1, tr.count("disconnect"))
}

func TestFullSessionSubscribes(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})

	m.Dispatch(LinkUp{Session: 1})
	require.Equal(t, DiscoveringServices, m.State())
	require.Contains(t, tr.calls, "discover 1")

	m.Dispatch(ServicesDiscovered{Session: 1, Found: true})
	require.Equal(t, Subscribed, m.State())
	require.Contains(t, tr.calls, "notify 1")
	require.NoError(t, m.Err())
}

func TestServiceNotFoundFails(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})
	m.Dispatch(LinkUp{Session: 1})

	m.Dispatch(ServicesDiscovered{Session: 1, Found: false})

	require.Equal(t, Failed, m.State())
	require.ErrorIs(t, m.Err(), ErrServiceNotFound)
	require.Contains(t, tr.calls, "disconnect 1")
	require.Zero(t, tr.count("notify"))
}

func TestEnableNotificationsErrorFails(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	tr.notifyErr = errors.New("write rejected")
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})
	m.Dispatch(LinkUp{Session: 1})
	m.Dispatch(ServicesDiscovered{Session: 1, Found: true})

	require.Equal(t, Failed, m.State())
	require.Contains(t, tr.calls, "disconnect 1")
}

func TestValuesFlowThroughDebouncer(t *testing.T) {
	m, _, sink := newTestMachine(pairedAddr)
	subscribe(t, m)

	pkt := packet.Encode(packet.SensorReading{GyroX: 1, HitRaw: true})
	m.Dispatch(ValueChanged{Session: m.Session(), Data: pkt})

	require.Len(t, sink.readings, 1)
	require.Equal(t, float32(1), sink.readings[0].GyroX)
	require.True(t, sink.readings[0].HitRaw)
	require.Equal(t, hit.ShowHit, sink.intents[0])
	require.Equal(t, 0, m.DebounceCount())
}

func TestEndToEndHitPacket(t *testing.T) {
	m, _, sink := newTestMachine(pairedAddr)
	subscribe(t, m)

	raw := []byte{0x00, 0x3C, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01}
	m.Dispatch(ValueChanged{Session: m.Session(), Data: raw})

	require.Equal(t, []packet.SensorReading{{GyroX: 1.0, HitRaw: true}}, sink.readings)
	require.Equal(t, []hit.Intent{hit.ShowHit}, sink.intents)
	require.Equal(t, 0, m.DebounceCount())
}

func TestBadPacketIsDropped(t *testing.T) {
	m, _, sink := newTestMachine(pairedAddr)
	subscribe(t, m)

	m.Dispatch(ValueChanged{Session: m.Session(), Data: []byte{1, 2, 3}})
	require.Empty(t, sink.readings)
	require.Equal(t, Subscribed, m.State())

	m.Dispatch(ValueChanged{Session: m.Session(), Data: make([]byte, packet.Size)})
	require.Len(t, sink.readings, 1)
}

func TestLinkDownDisconnectsAndResets(t *testing.T) {
	m, tr, sink := newTestMachine(pairedAddr)
	subscribe(t, m)

	calm := packet.Encode(packet.SensorReading{})
	for i := 0; i < 5; i++ {
		m.Dispatch(ValueChanged{Session: m.Session(), Data: calm})
	}
	require.Equal(t, 5, m.DebounceCount())

	m.Dispatch(LinkDown{Session: m.Session()})

	require.Equal(t, Disconnected, m.State())
	require.Equal(t, Disconnected, sink.last().State)
	require.Equal(t, 0, m.DebounceCount())
	require.Contains(t, tr.calls, "disconnect 1")

	// Values after the drop are ignored.
	m.Dispatch(ValueChanged{Session: m.Session(), Data: calm})
	require.Len(t, sink.readings, 5)
}

func TestRestartAfterDisconnect(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	subscribe(t, m)
	m.Dispatch(LinkDown{Session: m.Session()})

	m.Dispatch(StartRequested{})
	require.Equal(t, Scanning, m.State())
	require.Equal(t, 2, tr.count("scan"))

	m.Dispatch(ScanResult{matchingAdv()})
	require.Equal(t, uint64(2), m.Session())
}

func TestRestartAfterFailure(t *testing.T) {
	m, _, _ := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})
	m.Dispatch(LinkFailed{Session: 1})
	require.Equal(t, Failed, m.State())

	m.Dispatch(StartRequested{})
	require.Equal(t, Scanning, m.State())
	require.NoError(t, m.Err())
}

func TestStopWhileScanning(t *testing.T) {
	m, tr, sink := newTestMachine(pairedAddr)
	m.Dispatch(StartRequested{})

	m.Dispatch(StopRequested{})

	require.Equal(t, Idle, m.State())
	require.Equal(t, "stop-scan", tr.calls[len(tr.calls)-1])
	require.Equal(t, Idle, sink.last().State)
}

func TestStopWhileSubscribedReleasesLink(t *testing.T) {
	m, tr, _ := newTestMachine(pairedAddr)
	subscribe(t, m)

	m.Dispatch(StopRequested{})

	require.Equal(t, Idle, m.State())
	require.Contains(t, tr.calls, "disconnect 1")
	require.Equal(t, 1, tr.count("stop-scan")) // only the one issued on match
}

func TestStopWhenIdleIsQuiet(t *testing.T) {
	m, tr, sink := newTestMachine(pairedAddr)
	m.Dispatch(StopRequested{})
	require.Empty(t, tr.calls)
	require.Empty(t, sink.notices)
}

func TestStaleEventsAreDiscarded(t *testing.T) {
	m, _, sink := newTestMachine(pairedAddr)
	subscribe(t, m)
	old := m.Session()

	m.Dispatch(StopRequested{})
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})
	require.Equal(t, Connecting, m.State())
	require.NotEqual(t, old, m.Session())

	// Teardown confirmation and late packets from the old link.
	m.Dispatch(LinkDown{Session: old})
	m.Dispatch(ValueChanged{Session: old, Data: packet.Encode(packet.SensorReading{HitRaw: true})})
	m.Dispatch(LinkUp{Session: old})

	require.Equal(t, Connecting, m.State())
	require.Empty(t, sink.readings)
}

func TestConnectTimeout(t *testing.T) {
	var scheduled []Event
	var delays []time.Duration
	m, tr, _ := newTestMachine(pairedAddr,
		WithConnectTimeout(5*time.Second),
		WithScheduler(func(d time.Duration, ev Event) {
			delays = append(delays, d)
			scheduled = append(scheduled, ev)
		}),
	)
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})

	require.Equal(t, []time.Duration{5 * time.Second}, delays)
	require.Equal(t, []Event{ConnectTimeout{Session: 1}}, scheduled)

	m.Dispatch(LinkUp{Session: 1})
	m.Dispatch(scheduled[0])

	require.Equal(t, Failed, m.State())
	require.ErrorIs(t, m.Err(), ErrTimeout)
	require.Contains(t, tr.calls, "disconnect 1")
}

func TestConnectTimeoutAfterSubscribeIsHarmless(t *testing.T) {
	var scheduled []Event
	m, _, _ := newTestMachine(pairedAddr,
		WithConnectTimeout(time.Second),
		WithScheduler(func(_ time.Duration, ev Event) { scheduled = append(scheduled, ev) }),
	)
	subscribe(t, m)

	m.Dispatch(scheduled[0])
	require.Equal(t, Subscribed, m.State())
}

func TestNoTimeoutByDefault(t *testing.T) {
	called := false
	m, _, _ := newTestMachine(pairedAddr,
		WithScheduler(func(time.Duration, Event) { called = true }),
	)
	m.Dispatch(StartRequested{})
	m.Dispatch(ScanResult{matchingAdv()})
	require.False(t, called)
}

func TestServiceStrategy(t *testing.T) {
	uuid := "A01D9034-21C3-4618-B9EE-D6D785B218C9"
	m, tr, _ := newTestMachine(uuid, WithStrategy(MatchService))

	m.Dispatch(StartRequested{})
	require.Equal(t, []string{"scan " + config.ServiceName + "|"}, tr.calls)

	m.Dispatch(ScanResult{Advertisement{Name: config.ServiceName, Address: "11:22:33:44:55:66"}})
	require.Equal(t, Scanning, m.State())

	m.Dispatch(ScanResult{Advertisement{
		Name:     config.ServiceName,
		Address:  "11:22:33:44:55:66",
		Services: []string{config.ServiceUUID},
	}})
	require.Equal(t, Connecting, m.State())
}
