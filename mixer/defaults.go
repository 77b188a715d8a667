package mixer

// Default EQ layout, band 1 to 6.
var (
	DefaultEQTypes       = [NumEQBands]EQType{EQPeaking, EQPeaking, EQPeaking, EQLowShelf, EQHPF, EQLPF}
	DefaultEQFrequencies = [NumEQBands]float64{12000, 4000, 800, 120, 80, 12000}
)

// Default dynamics settings.
const (
	DefaultDynamicsAmount    = 50.0
	DefaultDynamicsThreshold = -20.0
	DefaultExpanderThreshold = -50.0
	DefaultBandwidth         = 1.0
	DefaultAutoMomentaryTime = 500
	DefaultSamplerate        = 48000
)

// DefaultEQ returns the default bands.
func DefaultEQ() [NumEQBands]EQBand {
	var eq [NumEQBands]EQBand
	for i := range eq {
		eq[i] = EQBand{
			Level:     0,
			Frequency: DefaultEQFrequencies[i],
			Bandwidth: DefaultBandwidth,
			Type:      DefaultEQTypes[i],
			Range:     DefaultEQRange,
		}
	}
	return eq
}

// DefaultDynamics returns the default dynamics block.
func DefaultDynamics() Dynamics {
	return Dynamics{
		Amount:            DefaultDynamicsAmount,
		Threshold:         DefaultDynamicsThreshold,
		ExpanderThreshold: DefaultExpanderThreshold,
	}
}

// DefaultProcessing returns processing data holding the defaults with no
// field marked in use.
func DefaultProcessing() ProcessingData {
	return ProcessingData{
		Gain:            0,
		LowCutFrequency: DefaultLowCut,
		EQ:              DefaultEQ(),
		Dynamics:        DefaultDynamics(),
	}
}

// DefaultRoutingPreset returns a routing preset with every buss unused.
func DefaultRoutingPreset() RoutingPreset {
	var r RoutingPreset
	for b := range r.Buss {
		r.Buss[b] = RoutingBuss{Level: 0, Balance: PanCenter}
	}
	return r
}

// InitializeDefaults resets the whole model. Values must stay stable:
// backups taken from an earlier run are compared against them.
func (s *State) InitializeDefaults() {
	for i := range s.Sources {
		s.Sources[i] = Source{
			Gain:               DefaultSourceGain,
			DefaultGain:        DefaultSourceGain,
			RelatedDestination: -1,
		}
	}

	for i := range s.Modules {
		m := &s.Modules[i]
		*m = Module{
			Console:              i / (NumModules / NumConsoles),
			SelectedSource:       0,
			SelectedPreset:       0,
			WaitingSource:        -1,
			WaitingPreset:        -1,
			WaitingRoutingPreset: -1,
			InsertSource:         0,
			Gain:                 0,
			LowCutFrequency:      DefaultLowCut,
			EQ:                   DefaultEQ(),
			Dynamics:             DefaultDynamics(),
			Pan:                  PanCenter,
			FaderLevel:           FaderOff,
			ExclusiveBuss:        -1,
			Defaults:             DefaultProcessing(),
			DefaultRouting:       DefaultRoutingPreset(),
		}
		for p := range m.Presets {
			m.Presets[p] = ModulePreset{Source: -1}
		}
		for c := range m.ScratchSource {
			m.ScratchSource[c] = -1
			m.ScratchPreset[c] = -1
		}
		for b := range m.Buss {
			m.Buss[b] = BussSend{Level: 0, Balance: PanCenter, Assigned: true}
		}
		for r := range m.RoutingPresets {
			m.RoutingPresets[r] = DefaultRoutingPreset()
		}
	}

	for i := range s.Busses {
		s.Busses[i] = Buss{
			MasterLevel: 0,
			MasterOn:    true,
			Console:     0,
		}
	}

	for i := range s.Monitors {
		s.Monitors[i] = Monitor{
			DefaultSelection:  -1,
			PhonesLevel:       FaderOff,
			SpeakerLevel:      FaderOff,
			SwitchingDimLevel: DefaultDimLevel,
		}
	}

	for i := range s.Destinations {
		s.Destinations[i] = Destination{
			Level:    0,
			CommBuss: -1,
		}
	}

	for i := range s.Consoles {
		c := &s.Consoles[i]
		*c = Console{
			ControlMode:       -1,
			MasterControlMode: -1,
			PresetPressed:     -1,
			LastPreset:        -1,
		}
		for k := range c.Selected {
			c.Selected[k] = -1
		}
	}

	s.ProcessingPresets = nil
	for i := range s.ConsolePresets {
		s.ConsolePresets[i] = ConsolePreset{ModulePreset: -1, MixMonitorPreset: -1}
	}
	for i := range s.MixMonitorPresets {
		s.MixMonitorPresets[i] = MixMonitorPreset{}
	}

	s.Global = Global{
		AutoMomentaryTime: DefaultAutoMomentaryTime,
		SamplerateHz:      DefaultSamplerate,
	}
	for t := range s.Global.TalkbackSource {
		s.Global.TalkbackSource[t] = 0
	}

	for i := range s.RackSlots {
		s.RackSlots[i] = RackSlot{}
	}
	for i := range s.DSPCards {
		s.DSPCards[i] = DSPCard{}
	}

	s.MatrixSources = NewPositionTable()
	s.PresetPositions = NewPositionTable()
	s.RebuildMatrixPositions()
}

// RebuildMatrixPositions fills the matrix source position table with every
// buss, insert, monitor, mix-minus and source entry in matrix order. Entries
// without a label or input stay inactive.
func (s *State) RebuildMatrixPositions() {
	s.MatrixSources = NewPositionTable()
	for ms := 1; ms < NumMatrixSources; ms++ {
		pool := AllPools
		if src := SourceOfMatrix(ms); src >= 0 && s.Sources[src].Pool != 0 {
			pool = s.Sources[src].Pool
		}
		s.MatrixSources.Set(ms, ms, s.matrixActive(ms), pool)
	}
}

func (s *State) matrixActive(ms int) bool {
	switch MatrixKind(ms) {
	case MatrixSource:
		src := &s.Sources[ms-MatrixSourceBase]
		return src.Label != "" || src.Inputs[0].Bound()
	case MatrixNone:
		return false
	}
	return true
}

// RebuildPresetPositions fills the preset position table from the loaded
// processing presets.
func (s *State) RebuildPresetPositions() {
	s.PresetPositions = NewPositionTable()
	for i, p := range s.ProcessingPresets {
		pool := p.Pool
		if pool == 0 {
			pool = AllPools
		}
		s.PresetPositions.Set(i+1, i+1, true, pool)
	}
}
