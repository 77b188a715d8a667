package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"axum-engine/config"
	"axum-engine/engine"
	"axum-engine/midi"
	"axum-engine/theme"
)

type nopController struct{ events chan midi.Event }

func (c nopController) ID() string                { return "nop" }
func (c nopController) Events() <-chan midi.Event { return c.events }
func (c nopController) Send(gomidi.Message) error { return nil }
func (c nopController) Close() error              { close(c.events); return nil }

func key(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPages(t *testing.T) {
	m := NewModel(engine.New(engine.Options{}), nil, nil, theme.New(nil))

	if !strings.Contains(m.View(), "console 1") {
		t.Fatal("want consoles on the first page")
	}

	next, _ := m.Update(key("tab"))
	m = next.(Model)
	if m.page != pageModules || !strings.Contains(m.View(), "no active modules") {
		t.Fatalf("want modules page, got page %d", m.page)
	}

	next, _ = m.Update(key("3"))
	m = next.(Model)
	if !strings.Contains(m.View(), "no nodes online") {
		t.Fatal("want nodes page")
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("want quit command")
	}
}

func TestHeaderShowsBackup(t *testing.T) {
	e := engine.New(engine.Options{})
	m := NewModel(e, nil, nil, theme.New(nil))
	if !strings.Contains(m.View(), "backup -") {
		t.Fatal("want no backup shown before the first one")
	}
	if err := e.Backup(); err != nil {
		t.Fatalf("backup: %v", err)
	}
	next, _ := m.Update(UpdateMsg{})
	m = next.(Model)
	id := e.Snapshot().Backup.ID.String()[:8]
	if !strings.Contains(m.View(), "backup "+id) {
		t.Fatalf("want backup %s in header", id)
	}
}

func TestDeviceEventsAttachSurfaces(t *testing.T) {
	surface := config.DefaultConfig().Surfaces[0]
	bridge := midi.NewBridge([]config.SurfaceConfig{surface})
	m := NewModel(engine.New(engine.Options{Sender: bridge}), nil, bridge, theme.New(nil))
	ctl := nopController{events: make(chan midi.Event)}
	defer ctl.Close()

	m.handleDevice(midi.DeviceEvent{Type: midi.DeviceConnected, Controller: ctl, Surface: surface, ID: "port"})
	if len(m.surfaces) != 1 {
		t.Fatalf("want 1 surface, got %d", len(m.surfaces))
	}
	m.handleDevice(midi.DeviceEvent{Type: midi.DeviceDisconnected, Surface: surface, ID: "port"})
	if len(m.surfaces) != 0 {
		t.Fatalf("want no surfaces, got %d", len(m.surfaces))
	}
}
