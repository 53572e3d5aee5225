package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsNotify = notificationsDest + ".Notify"

	callTimeout = 500 * time.Millisecond
)

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Desktop raises freedesktop notifications for strikes and dropped links.
// A new strike replaces the previous strike notification.
type Desktop struct {
	obj      caller
	log      *logrus.Entry
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	hitID     uint32
	lastHit   time.Time
	wasLinked bool
}

// NewDesktop connects to the session bus.
func NewDesktop(log *logrus.Entry) (*Desktop, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return newDesktop(conn.Object(notificationsDest, notificationsPath), log), nil
}

func newDesktop(obj caller, log *logrus.Entry) *Desktop {
	return &Desktop{
		obj:      obj,
		log:      log,
		cooldown: config.HitNotifyCooldown,
		now:      time.Now,
	}
}

func (d *Desktop) ConnectionChanged(n session.Notice) {
	d.mu.Lock()
	dropped := d.wasLinked && (n.State == session.Disconnected || n.State == session.Failed)
	d.wasLinked = n.State == session.Subscribed
	d.mu.Unlock()

	if dropped {
		if _, err := d.notify(0, config.NotificationDrop, "normal"); err != nil {
			d.log.WithError(err).Warn("Failed to send notification")
		}
	}
}

func (d *Desktop) ReadingReceived(_ packet.SensorReading, intent hit.Intent) {
	if intent != hit.ShowHit {
		return
	}

	d.mu.Lock()
	now := d.now()
	if !d.lastHit.IsZero() && now.Sub(d.lastHit) < d.cooldown {
		d.mu.Unlock()
		return
	}
	d.lastHit = now
	replaces := d.hitID
	d.mu.Unlock()

	id, err := d.notify(replaces, config.NotificationHit, "critical")
	if err != nil {
		d.log.WithError(err).Warn("Failed to send notification")
		return
	}

	d.mu.Lock()
	d.hitID = id
	d.mu.Unlock()
}

func (d *Desktop) notify(replaces uint32, body, urgency string) (uint32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	level := byte(1)
	if urgency == "critical" {
		level = 2
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(level),
	}

	call := d.obj.CallWithContext(ctx, notificationsNotify, 0,
		config.AppName, replaces, "", config.NotificationTitle, body,
		[]string{}, hints, int32(-1))
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}
