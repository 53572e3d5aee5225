package session

import (
	"strings"

	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
)

// Advertisement is a scan result as seen by the machine.
type Advertisement struct {
	Name     string
	Address  string
	RSSI     int16
	Services []string // lower-case UUIDs
}

// ScanFilter is applied by the transport before results are posted.
// An empty Address accepts any address.
type ScanFilter struct {
	Name    string
	Address string
}

// Accepts reports whether adv passes the filter.
func (f ScanFilter) Accepts(adv Advertisement) bool {
	if adv.Name != f.Name {
		return false
	}
	return f.Address == "" || strings.EqualFold(adv.Address, f.Address)
}

// Transport is the BLE stack as the machine uses it. Methods must not wait
// for the remote device; connect, discovery and notification results arrive
// later as events posted to the Loop. id is the session the request belongs
// to and must be echoed on the resulting events.
type Transport interface {
	Ready() error
	StartScan(filter ScanFilter) error
	StopScan() error
	Connect(id uint64, address string) error
	Discover(id uint64) error
	// EnableNotifications writes the notification-enable value to the
	// characteristic's client configuration descriptor.
	EnableNotifications(id uint64) error
	Disconnect(id uint64) error
}

// PairingStore persists the paired device identifier.
type PairingStore interface {
	PairedAddress() (string, bool)
	SetPairedAddress(address string) error
}

// StaticPairing is a read-only PairingStore holding one address.
type StaticPairing string

func (p StaticPairing) PairedAddress() (string, bool) {
	return string(p), p != ""
}

func (p StaticPairing) SetPairedAddress(string) error {
	return nil
}

// Sink receives everything the machine wants shown to the user.
type Sink interface {
	ConnectionChanged(n Notice)
	ReadingReceived(r packet.SensorReading, intent hit.Intent)
}

type nopSink struct{}

func (nopSink) ConnectionChanged(Notice)                          {}
func (nopSink) ReadingReceived(packet.SensorReading, hit.Intent) {}

// Matcher decides which advertisement is the paired device.
type Matcher interface {
	Matches(adv Advertisement) bool
	Filter() ScanFilter
}

// Strategy builds a Matcher from the service name and the paired identifier.
type Strategy func(name, paired string) Matcher

// MatchAddress pairs by Bluetooth address.
func MatchAddress(name, paired string) Matcher {
	return addressMatcher{filter: ScanFilter{Name: name, Address: paired}}
}

// MatchService pairs by an advertised service UUID; paired is that UUID.
func MatchService(name, paired string) Matcher {
	return serviceMatcher{name: name, uuid: strings.ToLower(paired)}
}

type addressMatcher struct {
	filter ScanFilter
}

func (m addressMatcher) Matches(adv Advertisement) bool { return m.filter.Accepts(adv) }
func (m addressMatcher) Filter() ScanFilter             { return m.filter }

type serviceMatcher struct {
	name string
	uuid string
}

func (m serviceMatcher) Matches(adv Advertisement) bool {
	if adv.Name != m.name {
		return false
	}
	for _, s := range adv.Services {
		if strings.EqualFold(s, m.uuid) {
			return true
		}
	}
	return false
}

func (m serviceMatcher) Filter() ScanFilter { return ScanFilter{Name: m.name} }
