package session

// Event is an input to Machine.Dispatch. The set is closed: only types in
// this package implement it.
type Event interface {
	event()
}

// StartRequested asks the machine to begin scanning for the paired device.
type StartRequested struct{}

// StopRequested tears down any scan or link and returns to Idle.
type StopRequested struct{}

// ScanResult carries one advertisement seen by the transport.
type ScanResult struct {
	Advertisement
}

// LinkUp reports that the connection for Session is established.
type LinkUp struct {
	Session uint64
}

// LinkFailed reports that the transport could not connect or keep a link.
type LinkFailed struct {
	Session uint64
	Err     error
}

// LinkDown reports that the connection for Session dropped.
type LinkDown struct {
	Session uint64
}

// ServicesDiscovered reports whether the sensor service and characteristic exist.
type ServicesDiscovered struct {
	Session uint64
	Found   bool
	Err     error
}

// ValueChanged carries one characteristic notification.
type ValueChanged struct {
	Session uint64
	Data    []byte
}

// ConnectTimeout fires when connect or discovery took too long.
type ConnectTimeout struct {
	Session uint64
}

func (StartRequested) event()     {}
func (StopRequested) event()      {}
func (ScanResult) event()         {}
func (LinkUp) event()             {}
func (LinkFailed) event()         {}
func (LinkDown) event()           {}
func (ServicesDiscovered) event() {}
func (ValueChanged) event()       {}
func (ConnectTimeout) event()     {}
