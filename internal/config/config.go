package config

import "time"

const (
	// Sensor protocol
	ServiceName        = "Fishing Buddy BLE Server"
	ServiceUUID        = "a01d9034-21c3-4618-b9ee-d6d785b218c9"
	CharacteristicUUID = "f98bb903-5c5a-4f46-a0f2-dbbcf658b445"
	CCCDUUID           = "00002902-0000-1000-8000-00805f9b34fb" // client characteristic configuration

	// Session
	DefaultReconnectDelay = 3 * time.Second
	DefaultConnectTimeout = 0 // disabled, matches the Android app
	PairVerifyTimeout     = 15 * time.Second

	// Pairing screen
	DeviceTimeout  = 30 * time.Second // Drop candidates not seen for this long
	EvictInterval  = 5 * time.Second  // How often to run eviction
	SmoothingAlpha = 0.3              // EMA smoothing factor (30% new, 70% old)
	MeasuredPower  = -59.0            // RSSI at 1 meter (dBm)
	PathLossExp    = 2.5              // Path loss exponent (2.0 = free space, 2.5-4.0 = indoor)

	// Watch screen
	TargetFPS     = 10 // Redraws per second
	HistoryLength = 120

	// Demo mode
	DemoAddress        = "F1:5E:B0:DD:1E:01"
	DemoPacketInterval = 50 * time.Millisecond
	DemoAdvInterval    = 200 * time.Millisecond
	DemoLinkDelay      = 400 * time.Millisecond

	// Notifications
	NotificationTitle = "Fishing Buddy"
	NotificationHit   = "Strike! Something is on the line."
	NotificationDrop  = "Device connection was lost"
	HitNotifyCooldown = 2 * time.Second // One desktop notification per bite burst

	// App
	AppName    = "FISHING-BUDDY"
	AppVersion = "1.0"
	AppDir     = ".fishing-buddy"
)
