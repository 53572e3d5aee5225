package bluetooth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

// MockTransport simulates the rod sensor for demo mode and tests. It
// advertises config.DemoAddress, accepts connections only to it and streams
// packets with a gently swaying rod and an occasional bite.
type MockTransport struct {
	post PostFunc

	AdvInterval    time.Duration
	PacketInterval time.Duration
	LinkDelay      time.Duration
	HitChance      float64 // per packet

	mu       sync.Mutex
	rng      *rand.Rand
	scanStop context.CancelFunc
	linkID   uint64
	linkCtx  context.Context
	linkStop context.CancelFunc
	linked   bool
}

// NewMockTransport creates a demo transport posting to post.
func NewMockTransport(post PostFunc) *MockTransport {
	return &MockTransport{
		post:           post,
		AdvInterval:    config.DemoAdvInterval,
		PacketInterval: config.DemoPacketInterval,
		LinkDelay:      config.DemoLinkDelay,
		HitChance:      1.0 / 600,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *MockTransport) Ready() error { return nil }

func (t *MockTransport) StartScan(filter session.ScanFilter) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scanStop != nil {
		return fmt.Errorf("scan already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.scanStop = cancel

	adv := session.Advertisement{
		Name:     config.ServiceName,
		Address:  config.DemoAddress,
		Services: []string{config.ServiceUUID},
	}

	go func() {
		ticker := time.NewTicker(t.AdvInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				adv.RSSI = int16(-55 - t.intn(10))
				if filter.Accepts(adv) {
					t.post(session.ScanResult{Advertisement: adv})
				}
			}
		}
	}()
	return nil
}

func (t *MockTransport) StopScan() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scanStop != nil {
		t.scanStop()
		t.scanStop = nil
	}
	return nil
}

func (t *MockTransport) Connect(id uint64, address string) error {
	ctx := t.openLink(id)
	if !strings.EqualFold(address, config.DemoAddress) {
		t.later(ctx, t.LinkDelay, session.LinkFailed{Session: id, Err: fmt.Errorf("no response from %s", address)})
		return nil
	}
	t.later(ctx, t.LinkDelay, session.LinkUp{Session: id})
	return nil
}

func (t *MockTransport) Discover(id uint64) error {
	ctx, err := t.linkContext(id)
	if err != nil {
		return err
	}
	t.later(ctx, t.LinkDelay/2, session.ServicesDiscovered{Session: id, Found: true})
	return nil
}

func (t *MockTransport) EnableNotifications(id uint64) error {
	ctx, err := t.linkContext(id)
	if err != nil {
		return err
	}
	go t.stream(ctx, id)
	return nil
}

func (t *MockTransport) Disconnect(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.linked && t.linkID == id {
		t.linkStop()
		t.linked = false
	}
	return nil
}

// Drop simulates the sensor going out of range.
func (t *MockTransport) Drop() {
	t.mu.Lock()
	id, linked := t.linkID, t.linked
	t.mu.Unlock()
	if linked {
		t.post(session.LinkDown{Session: id})
	}
}

func (t *MockTransport) openLink(id uint64) context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.linked {
		t.linkStop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.linkID, t.linkCtx, t.linkStop, t.linked = id, ctx, cancel, true
	return ctx
}

func (t *MockTransport) linkContext(id uint64) (context.Context, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.linked || t.linkID != id {
		return nil, fmt.Errorf("session %d is not connected", id)
	}
	return t.linkCtx, nil
}

func (t *MockTransport) later(ctx context.Context, d time.Duration, ev session.Event) {
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			t.post(ev)
		}
	}()
}

func (t *MockTransport) stream(ctx context.Context, id uint64) {
	ticker := time.NewTicker(t.PacketInterval)
	defer ticker.Stop()

	phase := 0.0
	biting := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			phase += t.PacketInterval.Seconds()
			if biting == 0 && t.float() < t.HitChance {
				biting = 5 + t.intn(10)
			}
			r := t.reading(phase, biting > 0)
			if biting > 0 {
				biting--
			}
			t.post(session.ValueChanged{Session: id, Data: packet.Encode(r)})
		}
	}
}

// reading models a rod tip swaying in the wind, with a sharp jerk on a bite.
func (t *MockTransport) reading(phase float64, bite bool) packet.SensorReading {
	sway := math.Sin(phase * 0.8)
	r := packet.SensorReading{
		GyroX: float32(0.3*sway + t.noise(0.05)),
		GyroY: float32(0.2*math.Cos(phase*0.6) + t.noise(0.05)),
		GyroZ: float32(t.noise(0.02)),
		AccX:  float32(0.1*sway + t.noise(0.02)),
		AccY:  float32(t.noise(0.02)),
		AccZ:  float32(1.0 + t.noise(0.02)),
	}
	if bite {
		r.GyroX += float32(4 + t.noise(1))
		r.AccY += float32(1.5 + t.noise(0.5))
		r.HitRaw = true
	}
	return r
}

func (t *MockTransport) noise(scale float64) float64 { return (t.float()*2 - 1) * scale }

func (t *MockTransport) float() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rng.Float64()
}

func (t *MockTransport) intn(n int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rng.Intn(n)
}
