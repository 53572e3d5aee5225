//go:build !linux

package bluetooth

import "errors"

// adapterPowered is only implemented for BlueZ.
func adapterPowered(string) (bool, error) {
	return false, errors.New("adapter power state not available on this platform")
}
