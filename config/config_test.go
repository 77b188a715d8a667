package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if got := cfg.BackupTicks(); got != 6000 {
		t.Fatalf("want 6000 backup ticks, got %d", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TickMs != 10 || len(cfg.Surfaces) != 1 {
		t.Fatalf("want defaults, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Debug = true
	cfg.AddSurface(SurfaceConfig{
		Name:        "Wing",
		Port:        "X-Touch",
		Address:     0x2000,
		SysExHeader: []int{0x00, 0x20, 0x32},
		Controls:    []ControlConfig{{Function: "buss/0/master-level", Kind: KindEncoder2C, Controller: 3}},
	})
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Debug || len(got.Surfaces) != 2 {
		t.Fatalf("want debug and 2 surfaces, got %+v", got)
	}
	s := got.FindSurface("X-Touch Compact MIDI 1")
	if s == nil || s.Address != 0x2000 || len(s.SysExHeader) != 3 {
		t.Fatalf("want surface Wing found by port, got %+v", s)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TickMs != 10 || cfg.MeterDivider != 5 {
		t.Fatalf("want default timing, got %d ms / %d", cfg.TickMs, cfg.MeterDivider)
	}
	if len(cfg.Surfaces) != 0 {
		t.Fatalf("want no surfaces, got %d", len(cfg.Surfaces))
	}
}

func TestMomentaryZeroIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "surfaces:\n- name: a\n  port: p\n  address: 1\n  controls:\n  - {function: module/0/on-off, kind: button, note: 1, momentary: 0}\n  - {function: module/1/on-off, kind: button, note: 2}\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctls := cfg.Surfaces[0].Controls
	if ctls[0].Momentary == nil || *ctls[0].Momentary != 0 {
		t.Fatalf("want zero hold time, got %v", ctls[0].Momentary)
	}
	if ctls[1].Momentary != nil {
		t.Fatalf("want latching, got %d", *ctls[1].Momentary)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown function", "surfaces:\n- {name: a, port: p, address: 1, controls: [{function: module/0/nope, kind: fader}]}\n", "unknown sub-function"},
		{"unknown kind", "surfaces:\n- {name: a, port: p, address: 1, controls: [{function: module/0/level, kind: knob}]}\n", "unknown kind"},
		{"duplicate address", "surfaces:\n- {name: a, port: p, address: 1}\n- {name: b, port: q, address: 1}\n", "already used"},
		{"reserved address", "surfaces:\n- {name: a, port: p, address: 0}\n", "reserved"},
		{"bad range", "surfaces:\n- {name: a, port: p, address: 1, controls: [{function: module/0/level, kind: fader, min: 100, max: 10}]}\n", "bad range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("want error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAutoConnectSurfaces(t *testing.T) {
	cfg := &Config{Surfaces: []SurfaceConfig{
		{Name: "a", AutoConnect: true},
		{Name: "b"},
	}}
	cfg.AddSurface(SurfaceConfig{Name: "b", AutoConnect: true})
	if got := cfg.AutoConnectSurfaces(); len(got) != 2 {
		t.Fatalf("want 2 auto-connect surfaces, got %d", len(got))
	}
	if len(cfg.Surfaces) != 2 {
		t.Fatalf("want AddSurface to replace by name, got %d surfaces", len(cfg.Surfaces))
	}
}
