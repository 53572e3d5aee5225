package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/hit"
	"fishing-buddy.klederson.com/internal/packet"
	"fishing-buddy.klederson.com/internal/session"
	"fishing-buddy.klederson.com/internal/ui"
)

// Controller starts and stops the sensor session. *session.Loop implements it.
type Controller interface {
	Start() bool
	Stop() bool
}

// Dropper simulates a lost link (demo mode only).
type Dropper interface {
	Drop()
}

// shared holds state shared between the Bubble Tea model copies.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	history *Ring
}

// WatchModel is the receive screen: connection progress, the strike /
// measuring indicator and live sensor values.
type WatchModel struct {
	width  int
	height int

	keys    watchKeys
	spinner spinner.Model
	control Controller
	dropper Dropper
	label   string

	notice     session.Notice
	reading    packet.SensorReading
	hasReading bool
	lastPacket time.Time
	indicator  ui.Indicator
	packets    int
	strikes    int
	lastStrike time.Time

	shared *shared
}

// NewWatch creates the receive screen. dropper may be nil. label is shown on
// the right of the menu bar.
func NewWatch(control Controller, dropper Dropper, label string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.StyleMeasuring

	return WatchModel{
		keys:    newWatchKeys(dropper != nil),
		spinner: s,
		control: control,
		dropper: dropper,
		label:   label,
		shared: &shared{
			history: NewRing(config.HistoryLength),
		},
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		m.startCmd(),
	)
}

func (m WatchModel) startCmd() tea.Cmd {
	return func() tea.Msg {
		m.control.Start()
		return nil
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case NoticeMsg:
		m.notice = msg.Notice
		if msg.Notice.State == session.Subscribed {
			m.indicator = ui.IndicatorMeasuring
		} else {
			m.indicator = ui.IndicatorNone
		}
		return m, nil

	case ReadingMsg:
		m.applyReading(msg)
		return m, nil
	}

	return m, nil
}

func (m *WatchModel) applyReading(msg ReadingMsg) {
	m.packets++
	m.reading = msg.Reading
	m.hasReading = true
	m.lastPacket = msg.At
	m.shared.history.Push(msg.Reading.AccelMagnitude())

	switch msg.Intent {
	case hit.ShowHit:
		// A burst of hit packets is one strike.
		if m.indicator != ui.IndicatorStrike {
			m.strikes++
			m.lastStrike = msg.At
		}
		m.indicator = ui.IndicatorStrike
	case hit.ShowMeasuring:
		m.indicator = ui.IndicatorMeasuring
	}
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.control.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		m.control.Start()

	case key.Matches(msg, m.keys.Stop):
		m.control.Stop()

	case key.Matches(msg, m.keys.Drop):
		if m.dropper != nil {
			m.dropper.Drop()
		}
	}

	return m, nil
}

func (m WatchModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing Fishing Buddy..."
	}

	bodyH := m.height - 2 // menu + status
	if bodyH < 8 {
		bodyH = 8
	}

	hitW := m.width * 3 / 5
	if hitW < 30 {
		hitW = 30
	}
	sensorW := m.width - hitW
	if sensorW < 24 {
		sensorW = 24
		hitW = m.width - sensorW
	}

	menuBar := ui.RenderMenuBar(m.width, m.keys.bar(), m.label)

	hitPanel := ui.RenderHitPanel(ui.HitView{
		Notice:     m.notice,
		Indicator:  m.indicator,
		Spinner:    m.spinner.View(),
		Strikes:    m.strikes,
		LastStrike: m.lastStrike,
	}, hitW, bodyH)

	sensorPanel := ui.RenderSensorPanel(ui.SensorView{
		Reading:    m.reading,
		HasReading: m.hasReading,
		LastPacket: m.lastPacket,
		History:    m.shared.history.Values(),
	}, sensorW, bodyH)

	statusBar := ui.RenderStatusBar(m.width, m.notice, m.packets, m.strikes, "")

	return ui.ComposeLayout(menuBar, hitPanel, sensorPanel, statusBar)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func evictCmd() tea.Cmd {
	return tea.Tick(config.EvictInterval, func(t time.Time) tea.Msg {
		return EvictMsg(t)
	})
}
