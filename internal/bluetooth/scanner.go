package bluetooth

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"tinygo.org/x/bluetooth"
)

// DeviceDiscoveredMsg is sent via Sender.Send when a sensor advertises.
type DeviceDiscoveredMsg struct {
	Address  string
	Name     string
	RSSI     int16
	Services []string
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Discovery scans for advertisements carrying the given name, for the
// pairing screen. It does not connect.
type Discovery struct {
	adapter *bluetooth.Adapter
	scan    *scanRunner
	name    string
}

// NewDiscovery creates a discovery scanner for devices named name.
func NewDiscovery(name string) *Discovery {
	return &Discovery{
		adapter: bluetooth.DefaultAdapter,
		scan:    newScanRunner(bluetooth.DefaultAdapter),
		name:    name,
	}
}

// Start begins scanning in a goroutine. Matching advertisements are sent
// as DeviceDiscoveredMsg.
func (s *Discovery) Start(p Sender) error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}

	return s.scan.Start(func(result bluetooth.ScanResult) {
		adv := advertisementFrom(result)
		if adv.Name != s.name {
			return
		}
		p.Send(DeviceDiscoveredMsg{
			Address:  adv.Address,
			Name:     adv.Name,
			RSSI:     adv.RSSI,
			Services: adv.Services,
		})
	}, nil)
}

// Stop halts the scan. The adapter is free for a new scan once it returns.
func (s *Discovery) Stop() {
	_ = s.scan.Stop()
}
