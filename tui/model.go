package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"axum-engine/debug"
	"axum-engine/engine"
	"axum-engine/midi"
	"axum-engine/theme"
	"axum-engine/widgets"
)

type page int

const (
	pageConsoles page = iota
	pageModules
	pageNodes
	numPages
)

var pageNames = [numPages]string{"consoles", "modules", "nodes"}

// meterRefresh redraws meters, which change without engine notifications.
const meterRefresh = 100 * time.Millisecond

const meterWidth = 24

type Model struct {
	Engine    *engine.Engine
	DeviceMgr *midi.DeviceManager // may be nil
	Bridge    *midi.Bridge        // may be nil
	Theme     *theme.Theme

	status   engine.Status
	page     page
	surfaces map[string]string // port id -> surface name
	quitting bool
}

type UpdateMsg struct{}

type RefreshMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(e *engine.Engine, deviceMgr *midi.DeviceManager, bridge *midi.Bridge, th *theme.Theme) Model {
	return Model{
		Engine:    e,
		DeviceMgr: deviceMgr,
		Bridge:    bridge,
		Theme:     th,
		status:    e.Snapshot(),
		surfaces:  make(map[string]string),
	}
}

func ListenForUpdates(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-e.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(meterRefresh, func(time.Time) tea.Msg { return RefreshMsg{} })
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Engine), refresh()}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab", "right", "l":
			m.page = (m.page + 1) % numPages
		case "shift+tab", "left", "h":
			m.page = (m.page + numPages - 1) % numPages
		case "1", "2", "3":
			m.page = page(msg.String()[0] - '1')
		case "b":
			if err := m.Engine.Backup(); err != nil {
				debug.Log("backup", "manual backup: %v", err)
			}
		}

	case UpdateMsg:
		m.status = m.Engine.Snapshot()
		return m, ListenForUpdates(m.Engine)

	case RefreshMsg:
		m.status = m.Engine.Snapshot()
		return m, refresh()

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// handleDevice brings surfaces on and off the bridge as ports come and go.
func (m *Model) handleDevice(event midi.DeviceEvent) {
	if m.Bridge == nil {
		return
	}
	switch event.Type {
	case midi.DeviceConnected:
		if err := m.Bridge.Attach(event.Controller, event.Surface); err != nil {
			debug.Log("midi", "attach %s: %v", event.ID, err)
			return
		}
		m.surfaces[event.ID] = event.Surface.Name
	case midi.DeviceDisconnected:
		m.Bridge.Detach(event.Surface.Address)
		delete(m.surfaces, event.ID)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	tabStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted()).Padding(0, 1)
	activeTab := tabStyle.Foreground(m.Theme.FG()).Underline(true)

	var tabs []string
	for p := page(0); p < numPages; p++ {
		style := tabStyle
		if p == m.page {
			style = activeTab
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%d %s", p+1, pageNames[p])))
	}

	header := headerStyle.Render(fmt.Sprintf("axum-engine  tick %d  sent %d  surfaces %d  backup %s",
		m.status.Ticks, m.status.Sent, len(m.surfaces), shortID(m.status.Backup.ID)))

	var body string
	switch m.page {
	case pageConsoles:
		body = m.viewConsoles()
	case pageModules:
		body = m.viewModules()
	case pageNodes:
		body = m.viewNodes()
	}

	help := dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{
		Keys: []widgets.KeyBinding{
			{Key: "tab/1-3", Desc: "switch page"},
			{Key: "b", Desc: "backup now"},
			{Key: "q", Desc: "quit"},
		},
	}}))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}

func (m Model) viewConsoles() string {
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Width(10)
	var lines []string
	for c, con := range m.status.Consoles {
		sel := "-"
		if con.SelectedModule >= 0 {
			sel = fmt.Sprintf("%d", con.SelectedModule+1)
		}
		user := con.User
		if user == "" {
			user = "-"
		}
		lines = append(lines, fmt.Sprintf("%s module %-3s mode %-14s master %-10s user %s (%d)",
			labelStyle.Render(fmt.Sprintf("console %d", c+1)), sel, con.ControlMode, con.MasterMode, user, con.UserLevel))
	}
	lines = append(lines, "")
	for _, b := range m.status.Busses {
		label := b.Label
		if label == "" {
			label = "-"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s dB %s  feeds %2d",
			labelStyle.Render(label),
			widgets.RenderPad(m.Theme, b.On),
			widgets.FormatDB(b.Level),
			widgets.RenderMeter(m.Theme, max(b.Meter[0], b.Meter[1]), meterWidth),
			b.Feeds))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewModules() string {
	if len(m.status.Modules) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("no active modules")
	}
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Width(10)
	var lines []string
	for _, mod := range m.status.Modules {
		label := mod.Label
		if label == "" {
			label = fmt.Sprintf("M%d", mod.Index+1)
		}
		active := " "
		if mod.Active {
			active = string(m.Theme.Symbols.Selected)
		}
		lines = append(lines, fmt.Sprintf("%s %s%s %-10s %s dB %s",
			labelStyle.Render(label),
			active,
			widgets.RenderPad(m.Theme, mod.On),
			mod.Source,
			widgets.FormatDB(mod.Level),
			widgets.RenderMeter(m.Theme, max(mod.Meter[0], mod.Meter[1]), meterWidth)))
	}

	// EQ of the module console 1 has selected
	sel := m.status.Consoles[0].SelectedModule
	for _, mod := range m.status.Modules {
		if mod.Index == sel {
			lines = append(lines, "", fmt.Sprintf("%s %s",
				labelStyle.Render(fmt.Sprintf("EQ M%d", mod.Index+1)),
				widgets.RenderEQCurve(m.Theme, mod.EQOn, mod.EQ[:], m.status.SampleRate, 2*meterWidth)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewNodes() string {
	if len(m.status.Nodes) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("no nodes online")
	}
	var lines []string
	for _, n := range m.status.Nodes {
		state := lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(string(m.Theme.Symbols.Probing))
		if n.InitFinished {
			state = lipgloss.NewStyle().Foreground(m.Theme.Success()).Render(string(m.Theme.Symbols.Online))
		}
		slot := "-"
		if n.Slot >= 0 {
			slot = fmt.Sprintf("%d", n.Slot+1)
		}
		lines = append(lines, fmt.Sprintf("%s %s 0x%08x  product %04x  objects %3d  slot %s",
			state, shortID(n.ID), n.Address, n.Product, n.Objects, slot))
	}
	return strings.Join(lines, "\n")
}

// shortID is the first group of an id, "-" before one is assigned.
func shortID(id uuid.UUID) string {
	if id == uuid.Nil {
		return "-"
	}
	return id.String()[:8]
}
