package bluetooth

import (
	"sort"
	"strings"
	"sync"
	"time"

	"fishing-buddy.klederson.com/internal/config"
)

// DeviceStore is a thread-safe store of pairing candidates, keyed by address.
type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]*Device
	now     func() time.Time
}

// NewDeviceStore creates a new empty DeviceStore.
func NewDeviceStore() *DeviceStore {
	return &DeviceStore{
		devices: make(map[string]*Device),
		now:     time.Now,
	}
}

// Upsert adds or updates a candidate. Repeated advertisements from the same
// address are merged and their RSSI smoothed using EMA.
func (s *DeviceStore) Upsert(msg DeviceDiscoveredMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(msg.Address)
	rssi := float64(msg.RSSI)
	now := s.now()
	hasService := false
	for _, uuid := range msg.Services {
		if strings.EqualFold(uuid, config.ServiceUUID) {
			hasService = true
		}
	}

	if existing, ok := s.devices[key]; ok {
		existing.RSSI = existing.RSSI*(1-config.SmoothingAlpha) + rssi*config.SmoothingAlpha
		existing.Distance = RSSIToDistance(existing.RSSI, config.MeasuredPower, config.PathLossExp)
		existing.LastSeen = now
		existing.HasService = existing.HasService || hasService
		if msg.Name != "" {
			existing.Name = msg.Name
		}
		return
	}

	s.devices[key] = &Device{
		Address:    key,
		Name:       msg.Name,
		RSSI:       rssi,
		LastSeen:   now,
		Distance:   RSSIToDistance(rssi, config.MeasuredPower, config.PathLossExp),
		HasService: hasService,
	}
}

// Evict removes devices not seen within the timeout duration.
// Returns the number of evicted devices.
func (s *DeviceStore) Evict(timeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-timeout)
	count := 0
	for addr, dev := range s.devices {
		if dev.LastSeen.Before(cutoff) {
			delete(s.devices, addr)
			count++
		}
	}
	return count
}

// Snapshot returns a sorted copy of all devices (strongest RSSI first, then address).
func (s *DeviceStore) Snapshot() []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Device, 0, len(s.devices))
	for _, d := range s.devices {
		cp := *d
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RSSI != result[j].RSSI {
			return result[i].RSSI > result[j].RSSI
		}
		return result[i].Address < result[j].Address
	})
	return result
}

// Count returns the total number of tracked devices.
func (s *DeviceStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// Clear forgets every candidate.
func (s *DeviceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = make(map[string]*Device)
}
