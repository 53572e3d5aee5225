package notify

import (
	"github.com/sirupsen/logrus"

	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
)

// Sinks fans every call out to each sink in order.
type Sinks []session.Sink

func (s Sinks) ConnectionChanged(n session.Notice) {
	for _, sink := range s {
		sink.ConnectionChanged(n)
	}
}

func (s Sinks) ReadingReceived(r packet.SensorReading, intent hit.Intent) {
	for _, sink := range s {
		sink.ReadingReceived(r, intent)
	}
}

// LogSink writes connection changes and strikes to the log. It is the only
// output in headless mode.
type LogSink struct {
	log       *logrus.Entry
	measuring bool
}

func NewLogSink(log *logrus.Entry) *LogSink {
	return &LogSink{log: log}
}

func (l *LogSink) ConnectionChanged(n session.Notice) {
	l.measuring = false

	entry := l.log.WithField("state", n.State)
	if n.Address != "" {
		entry = entry.WithField("address", n.Address)
	}
	if n.RSSI != 0 {
		entry = entry.WithField("rssi", n.RSSI)
	}
	if n.Err != nil {
		entry.WithError(n.Err).Warn("Sensor connection")
		return
	}
	entry.Info("Sensor connection")
}

func (l *LogSink) ReadingReceived(r packet.SensorReading, intent hit.Intent) {
	switch intent {
	case hit.ShowHit:
		l.measuring = false
		l.log.WithField("gyro_x", r.GyroX).Info("Strike detected")
	case hit.ShowMeasuring:
		if !l.measuring {
			l.measuring = true
			l.log.Info("Line is calm, measuring")
		}
	}
	l.log.Trace(r.String())
}
