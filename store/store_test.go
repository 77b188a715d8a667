package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"axum-engine/fieldbus"
	"axum-engine/mixer"
)

func TestOpenMissingStartsEmpty(t *testing.T) {
	f, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	g, _ := f.LoadGlobal()
	if g.SamplerateHz != mixer.DefaultSamplerate {
		t.Fatalf("want default samplerate, got %d", g.SamplerateHz)
	}
	if _, err := f.LoadBackup(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSlotsPersist(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.UpsertSlot(3, mixer.RackSlot{Address: 0xA0, InputChannels: 8}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.UpsertSlot(1, mixer.RackSlot{Address: 0xB0, OutputChannels: 4}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.UpsertSlot(99, mixer.RackSlot{}); err == nil {
		t.Fatal("want error for slot out of range")
	}

	again, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	slots, _ := again.LoadSlots()
	if len(slots) != 2 || slots[0].Index != 1 || slots[1].Address != 0xA0 {
		t.Fatalf("want slots 1 and 3 in order, got %+v", slots)
	}

	if err := again.DeleteSlot(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := again.DeleteSlot(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestBackupsNewestWinsAndPrune(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.keep = 2
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		f.now = func() time.Time { return at }
		if err := f.SaveBackup([]byte{byte('a' + i)}); err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
	}

	data, err := f.LoadBackup()
	if err != nil || string(data) != "d" {
		t.Fatalf("want newest backup d, got %q (%v)", data, err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "backup-*.json"))
	if len(matches) != 2 {
		t.Fatalf("want 2 backups kept, got %d", len(matches))
	}
}

func TestCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, documentName), []byte("{"), 0644)
	if _, err := Open(dir); err == nil {
		t.Fatal("want parse error")
	}
}

func TestLookupAccount(t *testing.T) {
	m := NewMemory(Document{Accounts: []Account{{User: "anna", Pass: "1234", Level: 2}}})

	a, err := m.LookupAccount("anna", "1234")
	if err != nil || a.Level != 2 {
		t.Fatalf("want level 2, got %+v (%v)", a, err)
	}
	if _, err := m.LookupAccount("anna", "0000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestObjectBindingThreshold(t *testing.T) {
	tests := []struct {
		json string
		want int
	}{
		{`{"object":1024,"function":"module/0/on-off"}`, -1},
		{`{"object":1024,"function":"module/0/on-off","momentary":0}`, 0},
		{`{"object":1024,"function":"module/0/on-off","momentary":500}`, 500},
		{`{"object":1024,"function":"module/0/on-off","momentary":-3}`, -1},
	}
	for _, tt := range tests {
		var b ObjectBinding
		if err := json.Unmarshal([]byte(tt.json), &b); err != nil {
			t.Fatalf("%s: %v", tt.json, err)
		}
		if got := b.Threshold(); got != tt.want {
			t.Fatalf("%s: want %d, got %d", tt.json, tt.want, got)
		}
	}
}

func TestNodeCatalog(t *testing.T) {
	m := NewMemory(Document{
		Templates: []NodeTemplate{
			{ManufacturerID: 1, ProductID: 12, FirmwareMajor: -1, Objects: make([]ObjectTemplate, 4)},
			{ManufacturerID: 1, ProductID: 12, FirmwareMajor: 2, Objects: make([]ObjectTemplate, 6)},
		},
		NodeConfigs: []NodeConfig{
			{ManufacturerID: 1, ProductID: 12, UniqueID: 7, Bindings: []ObjectBinding{{Object: 1024, Function: "module/0/level"}}},
			{Address: 0x42, Bindings: nil},
		},
	})

	t.Run("exact firmware wins", func(t *testing.T) {
		tpl, err := m.LoadNodeTemplate(1, 12, 2)
		if err != nil || len(tpl.Objects) != 6 {
			t.Fatalf("want 6 objects, got %d (%v)", len(tpl.Objects), err)
		}
	})
	t.Run("any firmware fallback", func(t *testing.T) {
		tpl, err := m.LoadNodeTemplate(1, 12, 5)
		if err != nil || len(tpl.Objects) != 4 {
			t.Fatalf("want 4 objects, got %d (%v)", len(tpl.Objects), err)
		}
	})
	t.Run("config by identity", func(t *testing.T) {
		nc, err := m.LoadNodeConfig(fieldbus.AddressEntry{Address: 0x10, ManufacturerID: 1, ProductID: 12, UniqueID: 7})
		if err != nil || len(nc.Bindings) != 1 {
			t.Fatalf("want one binding, got %+v (%v)", nc, err)
		}
	})
	t.Run("catalog chain", func(t *testing.T) {
		chain := Catalogs{NewMemory(Document{}), m}
		if _, err := chain.LoadNodeTemplate(1, 12, 2); err != nil {
			t.Fatalf("want hit in second catalog, got %v", err)
		}
		if _, err := chain.LoadNodeTemplate(9, 9, 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}
