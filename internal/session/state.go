// Package session drives the connection to one rod sensor: scan, connect,
// discover, subscribe, stream and disconnect.
package session

import "errors"

// State is the connection lifecycle state of a Machine.
type State int

const (
	Idle State = iota
	Scanning
	Connecting
	DiscoveringServices
	Subscribed
	Disconnected
	Failed
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Connecting:
		return "connecting"
	case DiscoveringServices:
		return "discovering"
	case Subscribed:
		return "subscribed"
	case Disconnected:
		return "disconnected"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Busy reports whether a scan or a link is in progress.
func (s State) Busy() bool {
	switch s {
	case Scanning, Connecting, DiscoveringServices, Subscribed:
		return true
	}
	return false
}

// linked reports whether a connection resource is held.
func (s State) linked() bool {
	switch s {
	case Connecting, DiscoveringServices, Subscribed:
		return true
	}
	return false
}

var (
	ErrAdapterUnavailable = errors.New("bluetooth adapter not available")
	ErrAdapterDisabled    = errors.New("bluetooth adapter is powered off")
	ErrNotPaired          = errors.New("no paired device, run the pair command first")
	ErrLinkFailed         = errors.New("connect failed")
	ErrServiceNotFound    = errors.New("service not found")
	ErrTimeout            = errors.New("timed out waiting for device")
)

// Notice is sent to sinks on every state change.
type Notice struct {
	State   State
	Err     error
	Address string
	RSSI    int16
}
