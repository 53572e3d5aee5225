package bluetooth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"fishing-buddy.klederson.com/internal/config"
)

type mockDevice struct {
	address   string
	baseRSSI  float64
	phase     float64
	amplitude float64
	active    bool
}

// MockDiscovery advertises a few fake rod sensors for demo mode. Only the
// one at config.DemoAddress will accept a connection from MockTransport.
type MockDiscovery struct {
	mu      sync.Mutex
	devices []mockDevice
	cancel  context.CancelFunc
}

// NewMockDiscovery creates the demo sensor plus one to three strangers.
func NewMockDiscovery() *MockDiscovery {
	devices := []mockDevice{{
		address:   config.DemoAddress,
		baseRSSI:  -55,
		phase:     rand.Float64() * 2 * math.Pi,
		amplitude: 4,
		active:    true,
	}}

	extra := 1 + rand.Intn(3)
	for i := 0; i < extra; i++ {
		devices = append(devices, mockDevice{
			address:   randomMAC(),
			baseRSSI:  -65 - rand.Float64()*25, // -65 to -90 dBm
			phase:     rand.Float64() * 2 * math.Pi,
			amplitude: 3 + rand.Float64()*6,
			active:    true,
		})
	}

	return &MockDiscovery{devices: devices}
}

// Start begins emitting advertisements to p.
func (s *MockDiscovery) Start(p Sender) error {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(ctx, p)
	return nil
}

func (s *MockDiscovery) loop(ctx context.Context, p Sender) {
	ticker := time.NewTicker(config.DemoAdvInterval)
	defer ticker.Stop()

	t := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t += config.DemoAdvInterval.Seconds()
			for _, msg := range s.advertise(t) {
				p.Send(msg)
			}
		}
	}
}

func (s *MockDiscovery) advertise(t float64) []DeviceDiscoveredMsg {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DeviceDiscoveredMsg
	for i := range s.devices {
		d := &s.devices[i]

		// Strangers come and go, the demo sensor stays.
		if d.address != config.DemoAddress && rand.Float64() < 0.01 {
			d.active = !d.active
		}
		if !d.active {
			continue
		}

		rssi := d.baseRSSI + d.amplitude*math.Sin(t*0.5+d.phase) + (rand.Float64()-0.5)*4
		out = append(out, DeviceDiscoveredMsg{
			Address:  d.address,
			Name:     config.ServiceName,
			RSSI:     int16(rssi),
			Services: []string{config.ServiceUUID},
		})
	}
	return out
}

// Stop halts the mock discovery.
func (s *MockDiscovery) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func randomMAC() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}
