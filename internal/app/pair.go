package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fishing-buddy.klederson.com/internal/bluetooth"
	"fishing-buddy.klederson.com/internal/config"
	"fishing-buddy.klederson.com/internal/session"
	"fishing-buddy.klederson.com/internal/ui"
)

// Scanner finds pairing candidates. *bluetooth.Discovery and
// *bluetooth.MockDiscovery implement it.
type Scanner interface {
	Start(p bluetooth.Sender) error
	Stop()
}

// VerifyFunc connects to address and reports progress as NoticeMsg. The
// returned function stops the attempt.
type VerifyFunc func(address string) (stop func())

type pairPhase int

const (
	phaseList pairPhase = iota
	phaseConfirm
	phaseVerifying
	phaseDone
	phaseFailed
)

// PairModel is the pairing screen: list nearby sensors, confirm one, verify
// it by connecting, and save its address.
type PairModel struct {
	width  int
	height int

	keys    pairKeys
	spinner spinner.Model

	scanner Scanner
	verify  VerifyFunc
	pairing session.PairingStore
	store   *bluetooth.DeviceStore
	sender  *senderRef

	phase      pairPhase
	cursor     int
	devices    []*bluetooth.Device
	selected   string
	stopVerify func()
	status     session.Notice
	err        error
}

// NewPair creates the pairing screen.
func NewPair(scanner Scanner, verify VerifyFunc, pairing session.PairingStore) PairModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.StyleMeasuring

	return PairModel{
		keys:    newPairKeys(),
		spinner: s,
		scanner: scanner,
		verify:  verify,
		pairing: pairing,
		store:   bluetooth.NewDeviceStore(),
		sender:  &senderRef{},
	}
}

// senderRef lets every model copy reach the program for rescans.
type senderRef struct {
	p bluetooth.Sender
}

// StartScanner starts discovery. Must be called before p.Run().
func (m *PairModel) StartScanner(p bluetooth.Sender) error {
	m.sender.p = p
	return m.scanner.Start(p)
}

func (m PairModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd(), evictCmd())
}

func (m PairModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		m.devices = m.store.Snapshot()
		if m.cursor >= len(m.devices) && len(m.devices) > 0 {
			m.cursor = len(m.devices) - 1
		}
		return m, tickCmd()

	case EvictMsg:
		m.store.Evict(config.DeviceTimeout)
		return m, evictCmd()

	case bluetooth.DeviceDiscoveredMsg:
		if m.phase == phaseList || m.phase == phaseConfirm {
			m.store.Upsert(msg)
		}
		return m, nil

	case NoticeMsg:
		return m.handleNotice(msg.Notice), nil

	case ScanErrorMsg:
		m.phase = phaseFailed
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m PairModel) handleNotice(n session.Notice) PairModel {
	if m.phase != phaseVerifying {
		return m
	}
	m.status = n

	switch n.State {
	case session.Subscribed:
		m.finishVerify()
		if err := m.pairing.SetPairedAddress(m.selected); err != nil {
			m.phase = phaseFailed
			m.err = fmt.Errorf("failed to save pairing: %w", err)
			return m
		}
		m.phase = phaseDone

	case session.Failed, session.Disconnected, session.Idle:
		m.finishVerify()
		m.phase = phaseFailed
		m.err = n.Err
		if m.err == nil {
			m.err = fmt.Errorf("sensor %s went away", m.selected)
		}
	}
	return m
}

func (m *PairModel) finishVerify() {
	if m.stopVerify != nil {
		m.stopVerify()
		m.stopVerify = nil
	}
}

func (m PairModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.scanner.Stop()
		m.finishVerify()
		return m, tea.Quit
	}

	switch m.phase {
	case phaseList:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.devices)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if m.cursor < len(m.devices) {
				m.selected = m.devices[m.cursor].Address
				m.phase = phaseConfirm
			}
		case key.Matches(msg, m.keys.Rescan):
			m.store.Clear()
			m.devices = nil
			m.cursor = 0
		}

	case phaseConfirm:
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.scanner.Stop()
			m.phase = phaseVerifying
			m.status = session.Notice{}
			m.stopVerify = m.verify(m.selected)
		case key.Matches(msg, m.keys.No):
			m.phase = phaseList
		}

	case phaseDone:
		return m, tea.Quit

	case phaseFailed:
		if key.Matches(msg, m.keys.Rescan) {
			m.err = nil
			m.phase = phaseList
			m.store.Clear()
			m.devices = nil
			m.cursor = 0
			return m, m.restartScanCmd()
		}
	}

	return m, nil
}

func (m PairModel) restartScanCmd() tea.Cmd {
	scanner, p := m.scanner, m.sender.p
	return func() tea.Msg {
		scanner.Stop()
		if err := scanner.Start(p); err != nil {
			return ScanErrorMsg{Err: err}
		}
		return nil
	}
}

// Paired returns the address saved by this session, if any.
func (m PairModel) Paired() (string, bool) {
	return m.selected, m.phase == phaseDone
}

func (m PairModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing Fishing Buddy..."
	}

	bodyH := m.height - 2
	if bodyH < 8 {
		bodyH = 8
	}
	listW := m.width / 2
	if listW < 30 {
		listW = 30
	}
	infoW := m.width - listW
	if infoW < 24 {
		infoW = 24
		listW = m.width - infoW
	}

	bindings := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Rescan, m.keys.Quit}
	if m.phase == phaseConfirm {
		bindings = []key.Binding{m.keys.Yes, m.keys.No, m.keys.Quit}
	}
	menuBar := ui.RenderMenuBar(m.width, bindings, "PAIRING")

	paired, _ := m.pairing.PairedAddress()
	list := ui.RenderDeviceList(m.devices, listW, bodyH, m.cursor, paired)
	info := ui.StylePanelBorder.Width(infoW - 2).Height(bodyH - 2).Render(m.infoContent(infoW - 4))

	statusBar := ui.RenderStatusBar(m.width, m.status, 0, 0, fmt.Sprintf("Found: %d", len(m.devices)))

	return ui.ComposeLayout(menuBar, list, info, statusBar)
}

func (m PairModel) infoContent(width int) string {
	var lines []string
	title := ui.StylePanelTitle.Render("PAIR A SENSOR")

	switch m.phase {
	case phaseList:
		lines = []string{
			m.spinner.View() + " Scanning for " + config.ServiceName,
			"",
			ui.StyleHelp.Render("Pick your rod sensor and press enter."),
		}
	case phaseConfirm:
		lines = []string{
			"Pair with",
			ui.StyleValue.Render(m.selected) + "?",
			"",
			ui.StyleMenuKey.Render("[Y]") + "es  " + ui.StyleMenuKey.Render("[N]") + "o",
		}
	case phaseVerifying:
		state := "starting"
		if m.status.State != session.Idle {
			state = m.status.State.String()
		}
		lines = []string{
			m.spinner.View() + " Verifying " + m.selected,
			ui.StyleLabel.Render("  " + state),
		}
	case phaseDone:
		lines = []string{
			ui.StyleStateLive.Render("Paired with " + m.selected),
			"",
			ui.StyleHelp.Render("Run `fishing-buddy watch` to start fishing."),
			ui.StyleHelp.Render("Press any key to exit."),
		}
	case phaseFailed:
		lines = []string{ui.StyleStateDown.Render("Pairing failed")}
		if m.err != nil {
			lines = append(lines, ui.StyleError.Render(m.err.Error()))
		}
		lines = append(lines, "", ui.StyleHelp.Render("Press [R] to scan again or [Q] to quit."))
	}

	body := lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
	return title + "\n\n" + body
}
