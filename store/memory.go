package store

import (
	"fmt"
	"sort"
	"sync"

	"axum-engine/fieldbus"
	"axum-engine/mixer"
)

// Document is the whole persisted configuration.
type Document struct {
	Global            mixer.Global             `json:"global"`
	Slots             []SlotConfig             `json:"slots,omitempty"`
	Sources           []SourceConfig           `json:"sources,omitempty"`
	Modules           []ModuleConfig           `json:"modules,omitempty"`
	Busses            []BussConfig             `json:"busses,omitempty"`
	Monitors          []MonitorConfig          `json:"monitors,omitempty"`
	Destinations      []DestinationConfig      `json:"destinations,omitempty"`
	ProcessingPresets []mixer.Preset           `json:"processingPresets,omitempty"`
	RoutingPresets    []RoutingPresetConfig    `json:"routingPresets,omitempty"`
	ConsolePresets    []ConsolePresetConfig    `json:"consolePresets,omitempty"`
	MixMonitorPresets []MixMonitorPresetConfig `json:"mixMonitorPresets,omitempty"`
	Accounts          []Account                `json:"accounts,omitempty"`
	Templates         []NodeTemplate           `json:"templates,omitempty"`
	NodeConfigs       []NodeConfig             `json:"nodeConfigs,omitempty"`
}

// DefaultDocument returns an empty console with default global settings.
func DefaultDocument() Document {
	return Document{Global: mixer.NewState().Global}
}

// Memory is a Store and NodeCatalog kept in memory.
type Memory struct {
	mu      sync.Mutex
	doc     Document
	backups [][]byte
}

// NewMemory returns a store over doc.
func NewMemory(doc Document) *Memory {
	return &Memory{doc: doc}
}

// Document returns a copy of the current document.
func (m *Memory) Document() Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

func (m *Memory) LoadGlobal() (mixer.Global, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Global, nil
}

func (m *Memory) LoadSlots() ([]SlotConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SlotConfig(nil), m.doc.Slots...), nil
}

func (m *Memory) LoadSources() ([]SourceConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SourceConfig(nil), m.doc.Sources...), nil
}

func (m *Memory) LoadModules() ([]ModuleConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModuleConfig(nil), m.doc.Modules...), nil
}

func (m *Memory) LoadBusses() ([]BussConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BussConfig(nil), m.doc.Busses...), nil
}

func (m *Memory) LoadMonitors() ([]MonitorConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MonitorConfig(nil), m.doc.Monitors...), nil
}

func (m *Memory) LoadDestinations() ([]DestinationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DestinationConfig(nil), m.doc.Destinations...), nil
}

func (m *Memory) LoadProcessingPresets() ([]mixer.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mixer.Preset(nil), m.doc.ProcessingPresets...), nil
}

func (m *Memory) LoadRoutingPresets() ([]RoutingPresetConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RoutingPresetConfig(nil), m.doc.RoutingPresets...), nil
}

func (m *Memory) LoadConsolePresets() ([]ConsolePresetConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ConsolePresetConfig(nil), m.doc.ConsolePresets...), nil
}

func (m *Memory) LoadMixMonitorPresets() ([]MixMonitorPresetConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MixMonitorPresetConfig(nil), m.doc.MixMonitorPresets...), nil
}

// LookupAccount finds the account matching a chip-card credential pair.
func (m *Memory) LookupAccount(user, pass string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.doc.Accounts {
		if a.User == user && a.Pass == pass {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("account %q: %w", user, ErrNotFound)
}

// UpsertSlot records the card occupying rack slot index.
func (m *Memory) UpsertSlot(index int, slot mixer.RackSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertSlot(index, slot)
}

func (m *Memory) upsertSlot(index int, slot mixer.RackSlot) error {
	if index < 0 || index >= mixer.NumRackSlots {
		return fmt.Errorf("slot %d out of range", index)
	}
	for i := range m.doc.Slots {
		if m.doc.Slots[i].Index == index {
			m.doc.Slots[i].RackSlot = slot
			return nil
		}
	}
	m.doc.Slots = append(m.doc.Slots, SlotConfig{Index: index, RackSlot: slot})
	sort.Slice(m.doc.Slots, func(i, j int) bool { return m.doc.Slots[i].Index < m.doc.Slots[j].Index })
	return nil
}

// DeleteSlot clears rack slot index.
func (m *Memory) DeleteSlot(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteSlot(index)
}

func (m *Memory) deleteSlot(index int) error {
	for i := range m.doc.Slots {
		if m.doc.Slots[i].Index == index {
			m.doc.Slots = append(m.doc.Slots[:i], m.doc.Slots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("slot %d: %w", index, ErrNotFound)
}

// SaveBackup keeps data as the newest backup.
func (m *Memory) SaveBackup(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups = append(m.backups, append([]byte(nil), data...))
	return nil
}

// LoadBackup returns the newest backup.
func (m *Memory) LoadBackup() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.backups) == 0 {
		return nil, fmt.Errorf("backup: %w", ErrNotFound)
	}
	return m.backups[len(m.backups)-1], nil
}

// LoadNodeTemplate finds the template of a product. An exact firmware match
// wins over a template for any revision.
func (m *Memory) LoadNodeTemplate(manufacturer, product uint16, firmware int) (NodeTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := -1
	for i, t := range m.doc.Templates {
		if t.ManufacturerID != manufacturer || t.ProductID != product {
			continue
		}
		if t.FirmwareMajor == firmware {
			return t, nil
		}
		if t.FirmwareMajor < 0 && found < 0 {
			found = i
		}
	}
	if found >= 0 {
		return m.doc.Templates[found], nil
	}
	return NodeTemplate{}, fmt.Errorf("template %04x:%04x fw %d: %w", manufacturer, product, firmware, ErrNotFound)
}

// LoadNodeConfig finds the bindings of a node, by address first and then by
// identity.
func (m *Memory) LoadNodeConfig(e fieldbus.AddressEntry) (NodeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.doc.NodeConfigs {
		if c.Address != 0 && c.Address == e.Address {
			return c, nil
		}
	}
	for _, c := range m.doc.NodeConfigs {
		if c.Address == 0 && c.ManufacturerID == e.ManufacturerID && c.ProductID == e.ProductID && c.UniqueID == e.UniqueID {
			return c, nil
		}
	}
	return NodeConfig{}, fmt.Errorf("node config %08x: %w", e.Address, ErrNotFound)
}
