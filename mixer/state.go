// Package mixer holds the in-memory model of the whole console: sources,
// modules, busses, monitor busses, destinations, consoles and presets.
//
// Nothing here locks. The engine owns the single State value and only
// touches it while holding its state lock.
package mixer

import "axum-engine/funcnum"

// Sizes of the model.
const (
	NumSources        = funcnum.NumSources
	NumModules        = funcnum.NumModules
	NumBusses         = funcnum.NumBusses
	NumMonitors       = funcnum.NumMonitors
	NumDestinations   = funcnum.NumDestinations
	NumConsoles       = funcnum.NumConsoles
	NumEQBands        = funcnum.NumEQBands
	NumModulePresets  = funcnum.NumModulePresets
	NumConsolePresets = funcnum.NumConsolePresets
	NumTalkbacks      = funcnum.NumTalkbacks
	NumRedlights      = funcnum.NumRedlights
	NumMonitorInputs  = funcnum.NumMonitorInputs
	NumRoutingPresets = 8
	NumMixMonitor     = 32
	NumRackSlots      = 42
	NumDSPCards       = 4
	NumExternSources  = 8
	NumPools          = 8
	NumIOBindings     = 8
	ModulesPerCard    = NumModules / NumDSPCards
)

// Level constants in dB.
const (
	FaderOff             = -140.0
	ActiveThreshold      = -80.0
	MaxLevel             = 10.0
	MasterHeadroom       = 10.0
	DefaultSourceGain    = 30.0
	MinSourceGain        = 20.0
	MaxSourceGain        = 75.0
	MinModuleGain        = -20.0
	MaxModuleGain        = 20.0
	DefaultEQRange       = 18.0
	MaxEQLevel           = 18.0
	MinFrequency         = 20.0
	MaxFrequency         = 15000.0
	DefaultLowCut        = 80.0
	PanCenter            = 512
	PanMax               = 1023
	DefaultDimLevel      = -20.0
	DefaultTalkbackLevel = -20.0
)

// IOBinding is one physical channel of an I/O card, addressed by the
// card's node address and a channel number on that card.
type IOBinding struct {
	Address uint32 `json:"address"`
	Channel int    `json:"channel"`
}

// Bound reports whether the binding points at a card.
func (b IOBinding) Bound() bool { return b.Address != 0 }

// Source is a physical input as presented to the operator.
type Source struct {
	Label          string                   `json:"label"`
	Inputs         [NumIOBindings]IOBinding `json:"inputs"`
	Gain           float64                  `json:"gain"`
	DefaultGain    float64                  `json:"defaultGain"`
	Phantom        bool                     `json:"phantom"`
	Pad            bool                     `json:"pad"`
	Alert          bool                     `json:"alert"`
	Start          bool                     `json:"start"`
	Stop           bool                     `json:"stop"`
	StartOnActive  bool                     `json:"startOnActive"`
	StopOnInactive bool                     `json:"stopOnInactive"`
	Redlight       [NumRedlights]bool       `json:"redlight"`
	MonitorMute    [NumMonitors]bool        `json:"monitorMute"`
	Cough          bool                     `json:"cough"`
	Comm           bool                     `json:"comm"`
	Pool           uint8                    `json:"pool"`
	// RelatedDestination is the talk-back/comm destination of this source, -1 for none.
	RelatedDestination int  `json:"relatedDestination"`
	Active             bool `json:"-"`
}

// EQType selects the filter shape of an EQ band.
type EQType int

const (
	EQOff EQType = iota
	EQHPF
	EQLowShelf
	EQPeaking
	EQHighShelf
	EQLPF
	EQBPF
	EQNotch

	NumEQTypes
)

var eqTypeNames = [NumEQTypes]string{"Off", "HPF", "LowShelf", "Peaking", "HighShelf", "LPF", "BPF", "Notch"}

func (t EQType) String() string {
	if t < 0 || t >= NumEQTypes {
		return "?"
	}
	return eqTypeNames[t]
}

// EQBand is one parametric band. Range bounds Level to [-Range, Range].
type EQBand struct {
	Level     float64 `json:"level"`
	Frequency float64 `json:"frequency"`
	Bandwidth float64 `json:"bandwidth"`
	Type      EQType  `json:"type"`
	Range     float64 `json:"range"`
}

// Dynamics holds the AGC and downward expander settings.
type Dynamics struct {
	Amount            float64 `json:"amount"`
	Threshold         float64 `json:"threshold"`
	ExpanderThreshold float64 `json:"expanderThreshold"`
	On                bool    `json:"on"`
}

// BussSend is a module's contribution to one buss.
type BussSend struct {
	Level    float64 `json:"level"`
	On       bool    `json:"on"`
	Balance  int     `json:"balance"`
	Pre      bool    `json:"pre"`
	Assigned bool    `json:"assigned"`
	// PreviousOn is the on state saved when an exclusive buss suppressed this send.
	PreviousOn bool `json:"previousOn"`
}

// ModulePreset is one of the 4x A/B slots of a module. Zero fields mean
// "do not change"; Source uses the matrix numbering with -1 as unset.
type ModulePreset struct {
	Source           int `json:"source"`
	ProcessingPreset int `json:"processingPreset"`
	RoutingPreset    int `json:"routingPreset"`
}

// Module is one channel strip.
type Module struct {
	Label          string `json:"label"`
	Console        int    `json:"console"`
	SelectedSource int    `json:"selectedSource"`
	SelectedPreset int    `json:"selectedPreset"`
	RoutingPreset  int    `json:"routingPreset"`

	// Deferred commits while the module is active; -1 means nothing waiting.
	WaitingSource        int `json:"waitingSource"`
	WaitingPreset        int `json:"waitingPreset"`
	WaitingRoutingPreset int `json:"waitingRoutingPreset"`

	// Per-console scratch copies while a console dials in source or preset mode.
	ScratchSource [NumConsoles]int `json:"-"`
	ScratchPreset [NumConsoles]int `json:"-"`

	Presets [NumModulePresets]ModulePreset `json:"presets"`

	InsertSource int     `json:"insertSource"`
	InsertOn     bool    `json:"insertOn"`
	Phase        bool    `json:"phase"`
	Mono         bool    `json:"mono"`
	Gain         float64 `json:"gain"`

	LowCutFrequency float64 `json:"lowCutFrequency"`
	LowCutOn        bool    `json:"lowCutOn"`

	EQOn bool               `json:"eqOn"`
	EQ   [NumEQBands]EQBand `json:"eq"`

	Dynamics Dynamics `json:"dynamics"`

	Pan        int     `json:"pan"`
	FaderLevel float64 `json:"faderLevel"`
	On         bool    `json:"on"`

	OverruleActive bool `json:"-"`

	Buss [NumBusses]BussSend `json:"buss"`
	// ExclusiveBuss is the exclusive-class-1 buss currently suppressing the
	// other sends, -1 for none.
	ExclusiveBuss int `json:"exclusiveBuss"`

	Defaults       ProcessingData                   `json:"defaults"`
	DefaultRouting RoutingPreset                    `json:"defaultRouting"`
	RoutingPresets [NumRoutingPresets]RoutingPreset `json:"routingPresets"`

	Meter [2]float64 `json:"-"`
}

// Exclusive classes of a buss.
const (
	ExclusiveNone        = 0
	ExclusiveDump        = 1
	ExclusiveComm        = 2
	ExclusiveCommNoCough = 3
)

// Buss is a master buss.
type Buss struct {
	Label            string             `json:"label"`
	MasterLevel      float64            `json:"masterLevel"`
	MasterOn         bool               `json:"masterOn"`
	Mono             bool               `json:"mono"`
	PreModuleOn      bool               `json:"preModuleOn"`
	PreModuleLevel   bool               `json:"preModuleLevel"`
	PreModuleBalance bool               `json:"preModuleBalance"`
	Exclusive        int                `json:"exclusive"`
	Interlock        bool               `json:"interlock"`
	Talkback         [NumTalkbacks]bool `json:"talkback"`
	Dim              bool               `json:"-"`
	Console          int                `json:"console"`
	GlobalReset      bool               `json:"globalReset"`
	Meter            [2]float64         `json:"-"`
}

// Monitor is a control-room or studio monitor path.
type Monitor struct {
	Label      string                 `json:"label"`
	Buss       [NumMonitorInputs]bool `json:"buss"`
	AutoSwitch [NumBusses]bool        `json:"autoSwitch"`
	// DefaultSelection is the input switched on when no auto-switch buss is active, -1 for none.
	DefaultSelection  int                `json:"defaultSelection"`
	Interlock         bool               `json:"interlock"`
	Mute              bool               `json:"mute"`
	Dim               bool               `json:"dim"`
	Mono              bool               `json:"mono"`
	Phase             bool               `json:"phase"`
	PhonesLevel       float64            `json:"phonesLevel"`
	SpeakerLevel      float64            `json:"speakerLevel"`
	Talkback          [NumTalkbacks]bool `json:"talkback"`
	Console           int                `json:"console"`
	SwitchingDimLevel float64            `json:"switchingDimLevel"`
	AutoMute          bool               `json:"-"`
	Meter             [2]float64         `json:"-"`
}

// Routing selects how a stereo source feeds a destination.
type Routing int

const (
	RoutingStereo Routing = iota
	RoutingLeft
	RoutingRight

	NumRoutings
)

func (r Routing) String() string {
	switch r {
	case RoutingStereo:
		return "Stereo"
	case RoutingLeft:
		return "Left"
	case RoutingRight:
		return "Right"
	}
	return "?"
}

// Destination is a physical output.
type Destination struct {
	Label    string                   `json:"label"`
	Outputs  [NumIOBindings]IOBinding `json:"outputs"`
	Source   int                      `json:"source"`
	Level    float64                  `json:"level"`
	Mute     bool                     `json:"mute"`
	Dim      bool                     `json:"dim"`
	Mono     bool                     `json:"mono"`
	Phase    bool                     `json:"phase"`
	Talkback [NumTalkbacks]bool       `json:"talkback"`
	Routing  Routing                  `json:"routing"`
	// MixMinusSource is the matrix source whose module provides the N-1 feed, 0 for none.
	MixMinusSource int  `json:"mixMinusSource"`
	MixMinusActive bool `json:"mixMinusActive"`
	// CommBuss overrides the routed source while CommActive, -1 for none.
	CommBuss   int        `json:"commBuss"`
	CommActive bool       `json:"commActive"`
	Meter      [2]float64 `json:"-"`
}

// Selection kinds, indexes into Console.Selected and Console.SelectTimer.
const (
	SelectModule = iota
	SelectBuss
	SelectMonitor
	SelectSource
	SelectDestination

	NumSelectKinds
)

// Console is one operator position.
type Console struct {
	Selected     [NumSelectKinds]int `json:"selected"`
	SelectTimer  [NumSelectKinds]int `json:"-"`
	AutoDeselect bool                `json:"autoDeselect"`

	ControlMode            int `json:"controlMode"`
	ControlModeTimer       int `json:"-"`
	MasterControlMode      int `json:"masterControlMode"`
	MasterControlModeTimer int `json:"-"`

	SourcePool int `json:"sourcePool"`
	PresetPool int `json:"presetPool"`

	Username     string `json:"username"`
	Password     string `json:"-"`
	UserLevel    int    `json:"userLevel"`
	ChipcardUser string `json:"-"`
	ChipcardPass string `json:"-"`

	// Console preset recall bookkeeping.
	PresetPressed   int   `json:"-"`
	PresetPressedAt int64 `json:"-"`
	LastPreset      int   `json:"lastPreset"`
}

// ProcessingData is a set of processing values each guarded by a Use flag.
// Presets and module defaults share this layout.
type ProcessingData struct {
	UseGain bool    `json:"useGain"`
	Gain    float64 `json:"gain"`

	UseLowCut       bool    `json:"useLowCut"`
	LowCutFrequency float64 `json:"lowCutFrequency"`
	LowCutOn        bool    `json:"lowCutOn"`

	UsePhase bool `json:"usePhase"`
	Phase    bool `json:"phase"`

	UseMono bool `json:"useMono"`
	Mono    bool `json:"mono"`

	UseEQ bool               `json:"useEQ"`
	EQOn  bool               `json:"eqOn"`
	EQ    [NumEQBands]EQBand `json:"eq"`

	UseDynamics bool     `json:"useDynamics"`
	Dynamics    Dynamics `json:"dynamics"`
}

// Preset is a named processing preset.
type Preset struct {
	Label string         `json:"label"`
	Pool  uint8          `json:"pool"`
	Data  ProcessingData `json:"data"`
}

// RoutingBuss is one buss of a routing preset.
type RoutingBuss struct {
	Use     bool    `json:"use"`
	Level   float64 `json:"level"`
	On      bool    `json:"on"`
	Balance int     `json:"balance"`
}

// RoutingPreset is a per-module set of buss send overrides.
type RoutingPreset struct {
	Label string                 `json:"label"`
	Buss  [NumBusses]RoutingBuss `json:"buss"`
}

// ConsolePreset recalls module presets and a mix/monitor preset on a set of consoles.
type ConsolePreset struct {
	Label            string            `json:"label"`
	Consoles         [NumConsoles]bool `json:"consoles"`
	ModulePreset     int               `json:"modulePreset"`
	MixMonitorPreset int               `json:"mixMonitorPreset"`
	SafeRecallTime   int               `json:"safeRecallTime"`
	ForcedRecallTime int               `json:"forcedRecallTime"`
}

// MixMonitorBuss is the buss master part of a mix/monitor preset.
type MixMonitorBuss struct {
	Use   bool    `json:"use"`
	Level float64 `json:"level"`
	On    bool    `json:"on"`
}

// MixMonitorMonitor is the monitor part of a mix/monitor preset.
type MixMonitorMonitor struct {
	Use  bool                   `json:"use"`
	Buss [NumMonitorInputs]bool `json:"buss"`
}

// MixMonitorPreset sets buss masters and monitor selections.
type MixMonitorPreset struct {
	Label   string                         `json:"label"`
	Buss    [NumBusses]MixMonitorBuss      `json:"buss"`
	Monitor [NumMonitors]MixMonitorMonitor `json:"monitor"`
}

// Global holds console-wide settings.
type Global struct {
	Redlight       [NumRedlights]bool `json:"redlight"`
	Talkback       [NumTalkbacks]bool `json:"talkback"`
	TalkbackSource [NumTalkbacks]int  `json:"talkbackSource"`
	AutoMomentary  bool               `json:"autoMomentary"`
	// AutoMomentaryTime is the hold time applied to latching bindings in auto-momentary mode.
	AutoMomentaryTime int     `json:"autoMomentaryTime"`
	LevelReserve      float64 `json:"levelReserve"`
	SamplerateHz      int     `json:"samplerate"`
	UseModuleDefaults bool    `json:"useModuleDefaults"`
	AutoMonitorMute   bool    `json:"autoMonitorMute"`
}

// RackSlot is an I/O card position in the rack.
type RackSlot struct {
	Address        uint32 `json:"address"`
	InputChannels  int    `json:"inputChannels"`
	OutputChannels int    `json:"outputChannels"`
}

// DSPCard is a processing card serving 32 modules.
type DSPCard struct {
	Address       uint32                `json:"address"`
	ExternSources [NumExternSources]int `json:"externSources"`
}

// State is the whole console model.
type State struct {
	Sources           [NumSources]Source
	Modules           [NumModules]Module
	Busses            [NumBusses]Buss
	Monitors          [NumMonitors]Monitor
	Destinations      [NumDestinations]Destination
	Consoles          [NumConsoles]Console
	ProcessingPresets []Preset
	ConsolePresets    [NumConsolePresets]ConsolePreset
	MixMonitorPresets [NumMixMonitor]MixMonitorPreset
	Global            Global
	RackSlots         [NumRackSlots]RackSlot
	DSPCards          [NumDSPCards]DSPCard

	MatrixSources   *PositionTable `json:"-"`
	PresetPositions *PositionTable `json:"-"`
}

// NewState returns a State with every field at its default.
func NewState() *State {
	s := &State{}
	s.InitializeDefaults()
	return s
}

// Module returns module i, or false if i is out of range.
func (s *State) Module(i int) (*Module, bool) {
	if i < 0 || i >= NumModules {
		return nil, false
	}
	return &s.Modules[i], true
}

// Buss returns buss i, or false if i is out of range.
func (s *State) Buss(i int) (*Buss, bool) {
	if i < 0 || i >= NumBusses {
		return nil, false
	}
	return &s.Busses[i], true
}

// Monitor returns monitor buss i, or false if i is out of range.
func (s *State) Monitor(i int) (*Monitor, bool) {
	if i < 0 || i >= NumMonitors {
		return nil, false
	}
	return &s.Monitors[i], true
}

// Source returns source i, or false if i is out of range.
func (s *State) Source(i int) (*Source, bool) {
	if i < 0 || i >= NumSources {
		return nil, false
	}
	return &s.Sources[i], true
}

// Destination returns destination i, or false if i is out of range.
func (s *State) Destination(i int) (*Destination, bool) {
	if i < 0 || i >= NumDestinations {
		return nil, false
	}
	return &s.Destinations[i], true
}

// Console returns console i, or false if i is out of range.
func (s *State) Console(i int) (*Console, bool) {
	if i < 0 || i >= NumConsoles {
		return nil, false
	}
	return &s.Consoles[i], true
}

// ProcessingPreset returns preset p (1-based), or false if it does not exist.
func (s *State) ProcessingPreset(p int) (*Preset, bool) {
	if p < 1 || p > len(s.ProcessingPresets) {
		return nil, false
	}
	return &s.ProcessingPresets[p-1], true
}

// Active reports whether the module is live: on with its fader above the
// active threshold.
func (m *Module) Active() bool {
	return m.On && m.FaderLevel > ActiveThreshold
}

// SelectedInstance implements funcnum.Selection.
func (s *State) SelectedInstance(d funcnum.Domain, console int) int {
	c, ok := s.Console(console)
	if !ok {
		return -1
	}
	switch d {
	case funcnum.Module:
		return c.Selected[SelectModule]
	case funcnum.Buss:
		return c.Selected[SelectBuss]
	case funcnum.MonitorBuss:
		return c.Selected[SelectMonitor]
	case funcnum.Source:
		return c.Selected[SelectSource]
	case funcnum.Destination:
		return c.Selected[SelectDestination]
	}
	return -1
}

// SelectKind maps a domain to its Console.Selected index.
func SelectKind(d funcnum.Domain) (int, bool) {
	switch d {
	case funcnum.Module:
		return SelectModule, true
	case funcnum.Buss:
		return SelectBuss, true
	case funcnum.MonitorBuss:
		return SelectMonitor, true
	case funcnum.Source:
		return SelectSource, true
	case funcnum.Destination:
		return SelectDestination, true
	}
	return 0, false
}

// ModulesOfSource returns every module whose selected source is matrix source ms.
func (s *State) ModulesOfSource(ms int) []int {
	if ms <= 0 {
		return nil
	}
	var mods []int
	for i := range s.Modules {
		if s.Modules[i].SelectedSource == ms {
			mods = append(mods, i)
		}
	}
	return mods
}
