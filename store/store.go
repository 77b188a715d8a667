// Package store is the configuration store of the engine: the persisted
// console layout, presets, accounts, node templates and the backup blob.
package store

import (
	"errors"

	"axum-engine/fieldbus"
	"axum-engine/mixer"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Account is an operator login.
type Account struct {
	User  string `json:"user"`
	Pass  string `json:"pass"`
	Level int    `json:"level"`
}

// SlotConfig is one occupied rack slot.
type SlotConfig struct {
	Index int `json:"index"`
	mixer.RackSlot
}

// SourceConfig is the persisted part of a source.
type SourceConfig struct {
	Index              int                                  `json:"index"`
	Label              string                               `json:"label"`
	Inputs             [mixer.NumIOBindings]mixer.IOBinding `json:"inputs"`
	DefaultGain        float64                              `json:"defaultGain"`
	Phantom            bool                                 `json:"phantom"`
	Pad                bool                                 `json:"pad"`
	StartOnActive      bool                                 `json:"startOnActive"`
	StopOnInactive     bool                                 `json:"stopOnInactive"`
	Redlight           [mixer.NumRedlights]bool             `json:"redlight"`
	MonitorMute        [mixer.NumMonitors]bool              `json:"monitorMute"`
	RelatedDestination int                                  `json:"relatedDestination"`
	Pool               uint8                                `json:"pool"`
}

// ModuleConfig is the persisted part of a module.
type ModuleConfig struct {
	Index          int                                        `json:"index"`
	Label          string                                     `json:"label"`
	Console        int                                        `json:"console"`
	Source         int                                        `json:"source"`
	InsertSource   int                                        `json:"insertSource"`
	Presets        [mixer.NumModulePresets]mixer.ModulePreset `json:"presets"`
	Defaults       mixer.ProcessingData                       `json:"defaults"`
	DefaultRouting mixer.RoutingPreset                        `json:"defaultRouting"`
	Assigned       [mixer.NumBusses]bool                      `json:"assigned"`
}

// BussConfig is the persisted part of a buss.
type BussConfig struct {
	Index            int                      `json:"index"`
	Label            string                   `json:"label"`
	MasterLevel      float64                  `json:"masterLevel"`
	Mono             bool                     `json:"mono"`
	PreModuleOn      bool                     `json:"preModuleOn"`
	PreModuleLevel   bool                     `json:"preModuleLevel"`
	PreModuleBalance bool                     `json:"preModuleBalance"`
	Exclusive        int                      `json:"exclusive"`
	Interlock        bool                     `json:"interlock"`
	Talkback         [mixer.NumTalkbacks]bool `json:"talkback"`
	Console          int                      `json:"console"`
	GlobalReset      bool                     `json:"globalReset"`
}

// MonitorConfig is the persisted part of a monitor buss.
type MonitorConfig struct {
	Index             int                      `json:"index"`
	Label             string                   `json:"label"`
	AutoSwitch        [mixer.NumBusses]bool    `json:"autoSwitch"`
	DefaultSelection  int                      `json:"defaultSelection"`
	Interlock         bool                     `json:"interlock"`
	Talkback          [mixer.NumTalkbacks]bool `json:"talkback"`
	Console           int                      `json:"console"`
	SwitchingDimLevel float64                  `json:"switchingDimLevel"`
	PhonesLevel       float64                  `json:"phonesLevel"`
	SpeakerLevel      float64                  `json:"speakerLevel"`
}

// DestinationConfig is the persisted part of a destination.
type DestinationConfig struct {
	Index          int                                  `json:"index"`
	Label          string                               `json:"label"`
	Outputs        [mixer.NumIOBindings]mixer.IOBinding `json:"outputs"`
	Source         int                                  `json:"source"`
	Level          float64                              `json:"level"`
	Routing        mixer.Routing                        `json:"routing"`
	Talkback       [mixer.NumTalkbacks]bool             `json:"talkback"`
	MixMinusSource int                                  `json:"mixMinusSource"`
	CommBuss       int                                  `json:"commBuss"`
}

// RoutingPresetConfig is routing preset Index (0-based) of a module.
type RoutingPresetConfig struct {
	Module int `json:"module"`
	Index  int `json:"index"`
	mixer.RoutingPreset
}

// ConsolePresetConfig is one console preset.
type ConsolePresetConfig struct {
	Index int `json:"index"`
	mixer.ConsolePreset
}

// MixMonitorPresetConfig is one mix/monitor preset.
type MixMonitorPresetConfig struct {
	Index int `json:"index"`
	mixer.MixMonitorPreset
}

// Store loads the console configuration and keeps the backup blob.
type Store interface {
	LoadGlobal() (mixer.Global, error)
	LoadSlots() ([]SlotConfig, error)
	LoadSources() ([]SourceConfig, error)
	LoadModules() ([]ModuleConfig, error)
	LoadBusses() ([]BussConfig, error)
	LoadMonitors() ([]MonitorConfig, error)
	LoadDestinations() ([]DestinationConfig, error)
	LoadProcessingPresets() ([]mixer.Preset, error)
	LoadRoutingPresets() ([]RoutingPresetConfig, error)
	LoadConsolePresets() ([]ConsolePresetConfig, error)
	LoadMixMonitorPresets() ([]MixMonitorPresetConfig, error)

	LookupAccount(user, pass string) (Account, error)

	UpsertSlot(index int, slot mixer.RackSlot) error
	DeleteSlot(index int) error

	SaveBackup(data []byte) error
	LoadBackup() ([]byte, error)
}

// ObjectTemplate describes one custom object of a node type.
type ObjectTemplate struct {
	Description string            `json:"description"`
	Sensor      fieldbus.DataSpec `json:"sensor"`
	Actuator    fieldbus.DataSpec `json:"actuator"`
}

// NodeTemplate is the object table of a product at a firmware revision.
// FirmwareMajor -1 matches any revision.
type NodeTemplate struct {
	ManufacturerID uint16           `json:"manufacturerId"`
	ProductID      uint16           `json:"productId"`
	FirmwareMajor  int              `json:"firmwareMajor"`
	SlotObject     uint16           `json:"slotObject,omitempty"`
	InputChannels  int              `json:"inputChannels,omitempty"`
	OutputChannels int              `json:"outputChannels,omitempty"`
	Objects        []ObjectTemplate `json:"objects"`
}

// ObjectBinding binds a custom object to a function name. Momentary is the
// hold time in milliseconds after which a switch acts momentary; 0 acts
// momentary on every release. Nil or negative keeps it latching.
type ObjectBinding struct {
	Object    uint16 `json:"object"`
	Function  string `json:"function"`
	Momentary *int   `json:"momentary,omitempty"`
}

// Threshold returns the momentary hold time, or -1 for a latching binding.
func (b ObjectBinding) Threshold() int {
	if b.Momentary == nil || *b.Momentary < 0 {
		return -1
	}
	return *b.Momentary
}

// NodeConfig is the persisted binding table of one node. Address 0 matches
// by identity only.
type NodeConfig struct {
	Address        uint32          `json:"address,omitempty"`
	ManufacturerID uint16          `json:"manufacturerId"`
	ProductID      uint16          `json:"productId"`
	UniqueID       uint16          `json:"uniqueId"`
	Bindings       []ObjectBinding `json:"bindings"`
}

// NodeCatalog resolves templates and bindings for discovered nodes.
type NodeCatalog interface {
	LoadNodeTemplate(manufacturer, product uint16, firmware int) (NodeTemplate, error)
	LoadNodeConfig(e fieldbus.AddressEntry) (NodeConfig, error)
}

// Catalogs tries each catalog in turn and returns the first hit.
type Catalogs []NodeCatalog

func (cs Catalogs) LoadNodeTemplate(manufacturer, product uint16, firmware int) (NodeTemplate, error) {
	for _, c := range cs {
		t, err := c.LoadNodeTemplate(manufacturer, product, firmware)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return NodeTemplate{}, err
		}
	}
	return NodeTemplate{}, ErrNotFound
}

func (cs Catalogs) LoadNodeConfig(e fieldbus.AddressEntry) (NodeConfig, error) {
	for _, c := range cs {
		nc, err := c.LoadNodeConfig(e)
		if err == nil {
			return nc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return NodeConfig{}, err
		}
	}
	return NodeConfig{}, ErrNotFound
}
