package bluetooth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/session"
)

// PostFunc delivers an event to the session loop.
type PostFunc func(session.Event) bool

// link is the single device connection owned by the transport.
type link struct {
	id      uint64
	address string

	connected bool
	device    bluetooth.Device
	char      *bluetooth.DeviceCharacteristic
}

// BLETransport implements session.Transport on top of tinygo bluetooth.
// It keeps at most one scan and one link.
type BLETransport struct {
	adapter     *bluetooth.Adapter
	adapterName string
	post        PostFunc
	log         *logrus.Entry

	scan *scanRunner

	mu      sync.Mutex
	enabled bool
	filter  session.ScanFilter
	seen    map[string]bluetooth.Address
	link    *link
}

// NewBLETransport creates a transport for the named adapter (e.g. "hci0").
// Results are delivered through post.
func NewBLETransport(adapterName string, post PostFunc, log *logrus.Entry) *BLETransport {
	t := &BLETransport{
		adapter:     bluetooth.DefaultAdapter,
		adapterName: adapterName,
		post:        post,
		log:         log,
		scan:        newScanRunner(bluetooth.DefaultAdapter),
		seen:        make(map[string]bluetooth.Address),
	}
	t.adapter.SetConnectHandler(t.onConnectChange)
	return t
}

// Ready enables the adapter and checks that it is powered.
func (t *BLETransport) Ready() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		if err := t.adapter.Enable(); err != nil {
			return fmt.Errorf("%w: %v (try running with sudo or setcap cap_net_admin+ep)", session.ErrAdapterUnavailable, err)
		}
		t.enabled = true
	}

	powered, err := adapterPowered(t.adapterName)
	if err != nil {
		t.log.WithError(err).Debug("Could not read adapter power state")
		return nil
	}
	if !powered {
		return session.ErrAdapterDisabled
	}
	return nil
}

// StartScan begins a scan in the background. Only advertisements accepted by
// filter are posted.
func (t *BLETransport) StartScan(filter session.ScanFilter) error {
	t.mu.Lock()
	t.filter = filter
	t.mu.Unlock()

	return t.scan.Start(t.onScanResult, func(err error) {
		if err != nil {
			t.log.WithError(err).Warn("Scan ended with error")
		}
	})
}

func (t *BLETransport) onScanResult(result bluetooth.ScanResult) {
	adv := advertisementFrom(result)

	t.mu.Lock()
	if !t.filter.Accepts(adv) {
		t.mu.Unlock()
		return
	}
	t.seen[strings.ToUpper(adv.Address)] = result.Address
	t.mu.Unlock()

	t.post(session.ScanResult{Advertisement: adv})
}

// StopScan stops a running scan and waits until the adapter has let go of it.
func (t *BLETransport) StopScan() error {
	return t.scan.Stop()
}

// Connect opens a link to an address seen during the current scan.
func (t *BLETransport) Connect(id uint64, address string) error {
	t.mu.Lock()
	addr, ok := t.seen[strings.ToUpper(address)]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("address %s was not seen in a scan", address)
	}
	l := &link{id: id, address: address}
	t.link = l
	t.mu.Unlock()

	go func() {
		device, err := t.adapter.Connect(addr, bluetooth.ConnectionParams{})

		t.mu.Lock()
		if t.link != l {
			t.mu.Unlock()
			if err == nil {
				_ = device.Disconnect()
			}
			return
		}
		if err != nil {
			t.link = nil
			t.mu.Unlock()
			t.post(session.LinkFailed{Session: id, Err: err})
			return
		}
		l.device = device
		l.connected = true
		t.mu.Unlock()

		t.post(session.LinkUp{Session: id})
	}()
	return nil
}

// Discover looks for the sensor service and characteristic in the background.
func (t *BLETransport) Discover(id uint64) error {
	l, err := t.current(id)
	if err != nil {
		return err
	}

	go func() {
		char, err := findCharacteristic(l.device)

		t.mu.Lock()
		if t.link == l {
			l.char = char
		}
		t.mu.Unlock()

		t.post(session.ServicesDiscovered{Session: id, Found: err == nil, Err: err})
	}()
	return nil
}

// EnableNotifications subscribes to the sensor characteristic. Every value is
// copied and posted as a ValueChanged event.
func (t *BLETransport) EnableNotifications(id uint64) error {
	l, err := t.current(id)
	if err != nil {
		return err
	}
	if l.char == nil {
		return errors.New("characteristic not discovered")
	}

	return l.char.EnableNotifications(func(buf []byte) {
		data := make([]byte, len(buf))
		copy(data, buf)
		t.post(session.ValueChanged{Session: id, Data: data})
	})
}

// Disconnect tears down the link for id, if it is still the current one.
func (t *BLETransport) Disconnect(id uint64) error {
	t.mu.Lock()
	l := t.link
	if l == nil || l.id != id {
		t.mu.Unlock()
		return nil
	}
	t.link = nil
	t.mu.Unlock()

	if !l.connected {
		return nil
	}

	go func() {
		if l.char != nil {
			_ = l.char.EnableNotifications(nil)
		}
		if err := l.device.Disconnect(); err != nil {
			t.log.WithError(err).Debugf("Disconnect %s", l.address)
		}
	}()
	return nil
}

func (t *BLETransport) current(id uint64) (*link, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.link == nil || t.link.id != id || !t.link.connected {
		return nil, fmt.Errorf("session %d is not connected", id)
	}
	return t.link, nil
}

func (t *BLETransport) onConnectChange(device bluetooth.Device, connected bool) {
	if connected {
		return
	}

	t.mu.Lock()
	l := t.link
	t.mu.Unlock()

	if l == nil || !strings.EqualFold(device.Address.String(), l.address) {
		return
	}
	t.log.Infof("Link to %s dropped", l.address)
	t.post(session.LinkDown{Session: l.id})
}

// findCharacteristic locates the sensor characteristic on a connected device.
func findCharacteristic(device bluetooth.Device) (*bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}

	var svc *bluetooth.DeviceService
	for i := range services {
		if strings.EqualFold(services[i].UUID().String(), config.ServiceUUID) {
			svc = &services[i]
			break
		}
	}
	if svc == nil {
		return nil, fmt.Errorf("service %s not found", config.ServiceUUID)
	}

	chars, err := svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover characteristics: %w", err)
	}
	for i := range chars {
		if strings.EqualFold(chars[i].UUID().String(), config.CharacteristicUUID) {
			return &chars[i], nil
		}
	}
	return nil, fmt.Errorf("characteristic %s not found", config.CharacteristicUUID)
}

// advertisementFrom converts a tinygo scan result.
func advertisementFrom(result bluetooth.ScanResult) session.Advertisement {
	adv := session.Advertisement{
		Name:    result.LocalName(),
		Address: result.Address.String(),
		RSSI:    result.RSSI,
	}
	if uuid, err := bluetooth.ParseUUID(config.ServiceUUID); err == nil && result.HasServiceUUID(uuid) {
		adv.Services = append(adv.Services, config.ServiceUUID)
	}
	return adv
}
