package bluetooth

import (
	"errors"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// scanAdapter is the part of *bluetooth.Adapter a scan needs.
type scanAdapter interface {
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

// errScanRunning is returned by scanRunner.Start while a scan is active.
var errScanRunning = errors.New("scan already running")

const (
	stopScanTimeout = 2 * time.Second
	stopScanRetry   = 50 * time.Millisecond
)

// scanRunner runs one adapter scan at a time. Stop returns only after the
// adapter's Scan call has returned, because on Linux the adapter stops BlueZ
// discovery from inside Scan after StopScan, which would otherwise cancel a
// scan started in the meantime. Results and the end of a scan are tagged
// with a generation so an old scan never touches a newer one's state.
type scanRunner struct {
	adapter scanAdapter

	mu     sync.Mutex
	gen    uint64
	active bool
	done   chan struct{}
}

func newScanRunner(adapter scanAdapter) *scanRunner {
	return &scanRunner{adapter: adapter}
}

// Start begins a scan in the background. onResult is called for results of
// this scan only, until Stop. onEnd, if set, gets the error a scan ended
// with on its own.
func (r *scanRunner) Start(onResult func(bluetooth.ScanResult), onEnd func(error)) error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return errScanRunning
	}
	prev := r.done
	r.gen++
	gen := r.gen
	done := make(chan struct{})
	r.active = true
	r.done = done
	r.mu.Unlock()

	// A stop that timed out may leave the previous Scan still returning.
	if prev != nil {
		select {
		case <-prev:
		case <-time.After(stopScanTimeout):
		}
	}

	go func() {
		defer close(done)
		err := r.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if r.current(gen) {
				onResult(result)
			}
		})

		r.mu.Lock()
		owned := r.gen == gen && r.active
		if owned {
			r.active = false
		}
		r.mu.Unlock()

		if owned && onEnd != nil {
			onEnd(err)
		}
	}()
	return nil
}

// Stop ends the current scan and waits for the adapter to finish it.
func (r *scanRunner) Stop() error {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil
	}
	r.active = false
	r.gen++
	done := r.done
	r.mu.Unlock()

	// StopScan fails until Scan has registered itself, so keep asking.
	deadline := time.After(stopScanTimeout)
	tick := time.NewTicker(stopScanRetry)
	defer tick.Stop()

	_ = r.adapter.StopScan()
	for {
		select {
		case <-done:
			return nil
		case <-tick.C:
			_ = r.adapter.StopScan()
		case <-deadline:
			return errors.New("timed out waiting for scan to stop")
		}
	}
}

// Running reports whether a scan is active.
func (r *scanRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *scanRunner) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active && r.gen == gen
}
