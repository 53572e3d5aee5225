//go:build linux

package bluetooth

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBus      = "org.bluez"
	bluezAdapter1 = "org.bluez.Adapter1"
)

// adapterPowered reads org.bluez.Adapter1.Powered for the named adapter.
func adapterPowered(adapter string) (bool, error) {
	// Shared system bus connection, must not be closed.
	conn, err := dbus.SystemBus()
	if err != nil {
		return false, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	obj := conn.Object(bluezBus, dbus.ObjectPath("/org/bluez/"+adapter))
	variant, err := obj.GetProperty(bluezAdapter1 + ".Powered")
	if err != nil {
		return false, err
	}

	powered, ok := variant.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property Powered has unexpected type %T", variant.Value())
	}
	return powered, nil
}
