package funcnum

// Module sub-functions.
const (
	ModuleLabel = iota
	ModuleSource
	ModuleProcessingPreset
	ModuleRoutingPreset
	ModulePresetBase // 1A, 1B, 2A, 2B, 3A, 3B, 4A, 4B
)

// NumModulePresets is the number of A/B module preset slots.
const NumModulePresets = 8

const (
	ModuleSourcePhantom = ModulePresetBase + NumModulePresets + iota
	ModuleSourcePad
	ModuleSourceGain
	ModuleSourceGainReset
	ModuleSourceStart
	ModuleSourceStop
	ModuleSourceStartStop
	ModuleSourceAlert
	ModuleCough
	ModuleInsertSource
	ModuleInsertOnOff
	ModulePhase
	ModuleMono
	ModuleGain
	ModuleGainReset
	ModuleLowCutFrequency
	ModuleLowCutOnOff
	ModuleEQOnOff
	ModuleDynamicsAmount
	ModuleDynamicsThreshold
	ModuleExpanderThreshold
	ModuleDynamicsOnOff
	ModulePan
	ModulePanReset
	ModuleLevel
	ModuleLevelReset
	ModuleOn
	ModuleOff
	ModuleOnOff
	ModuleOverrule
	ModuleActive
	ModuleMeterLeft
	ModuleMeterRight
)

// Per-console blocks: index by console number 0..3.
const (
	ModuleControlBase      = 48
	ModuleControlLabelBase = 52
	ModuleControlResetBase = 56
	ModuleSelectBase       = 60
)

// NumEQBands is the number of parametric EQ bands per module.
const NumEQBands = 6

// EQ band block layout.
const (
	ModuleEQBase = 64
	eqStride     = 8
)

const (
	EQLevel = iota
	EQLevelReset
	EQFrequency
	EQFrequencyReset
	EQBandwidth
	EQBandwidthReset
	EQType
	EQTypeReset
)

// Buss send block layout.
const (
	ModuleBussBase = 128
	bussStride     = 8
)

const (
	SendLevel = iota
	SendLevelReset
	SendOn
	SendOff
	SendOnOff
	SendPre
	SendBalance
	SendBalanceReset
)

const moduleSubCount = ModuleBussBase + NumBusses*bussStride

// ModuleEQ returns the sub-function for an EQ band parameter.
func ModuleEQ(band, kind int) int { return ModuleEQBase + band*eqStride + kind }

// SplitModuleEQ is the inverse of ModuleEQ.
func SplitModuleEQ(sub int) (band, kind int, ok bool) {
	if sub < ModuleEQBase || sub >= ModuleEQBase+NumEQBands*eqStride {
		return 0, 0, false
	}
	off := sub - ModuleEQBase
	return off / eqStride, off % eqStride, true
}

// ModuleBuss returns the sub-function for a buss send parameter.
func ModuleBuss(buss, kind int) int { return ModuleBussBase + buss*bussStride + kind }

// SplitModuleBuss is the inverse of ModuleBuss.
func SplitModuleBuss(sub int) (buss, kind int, ok bool) {
	if sub < ModuleBussBase || sub >= moduleSubCount {
		return 0, 0, false
	}
	off := sub - ModuleBussBase
	return off / bussStride, off % bussStride, true
}

// Buss (master) sub-functions.
const (
	BussLabel = iota
	BussMasterLevel
	BussMasterLevelReset
	BussMasterOn
	BussMasterOff
	BussMasterOnOff
	BussMasterPre
	BussReset
	BussMeterLeft
	BussMeterRight
	BussDim
)

const (
	BussSelectBase   = 12
	BussTalkbackBase = 16
	bussSubCount     = BussTalkbackBase + NumTalkbacks
)

// NumTalkbacks is the number of global talkback channels.
const NumTalkbacks = 16

// NumMonitorInputs is 16 busses plus 8 extern inputs.
const NumMonitorInputs = NumBusses + 8

// Monitor buss sub-functions.
const (
	MonitorLabel = iota
	MonitorMute
	MonitorDim
	MonitorMono
	MonitorPhase
	MonitorPhonesLevel
	MonitorSpeakerLevel
	MonitorMeterLeft
	MonitorMeterRight
)

const (
	MonitorSelectBase   = 12
	MonitorBussBase     = 16
	MonitorTalkbackBase = MonitorBussBase + NumMonitorInputs
	monitorSubCount     = MonitorTalkbackBase + NumTalkbacks
)

// Destination sub-functions.
const (
	DestinationLabel = iota
	DestinationSource
	DestinationLevel
	DestinationMute
	DestinationDim
	DestinationMono
	DestinationPhase
	DestinationRouting
	DestinationMixMinus
	DestinationMeterLeft
	DestinationMeterRight
)

const (
	DestinationSelectBase   = 12
	DestinationTalkbackBase = 16
	destinationSubCount     = DestinationTalkbackBase + NumTalkbacks
)

// Source sub-functions.
const (
	SourceLabel = iota
	SourceModuleOn
	SourceModuleOff
	SourceModuleOnOff
	SourceStart
	SourceStop
	SourceStartStop
	SourcePhantom
	SourcePad
	SourceGain
	SourceGainReset
	SourceAlert
	SourceCough
	SourceActive
)

const (
	SourceSelectBase = 16
	SourceBussBase   = 32
	sourceBussStride = 3
	sourceSubCount   = SourceBussBase + NumBusses*sourceBussStride
)

const (
	SourceBussOn = iota
	SourceBussOff
	SourceBussOnOff
)

// SourceBuss returns the sub-function for switching buss b of every module
// carrying the source.
func SourceBuss(buss, kind int) int { return SourceBussBase + buss*sourceBussStride + kind }

// SplitSourceBuss is the inverse of SourceBuss.
func SplitSourceBuss(sub int) (buss, kind int, ok bool) {
	if sub < SourceBussBase || sub >= sourceSubCount {
		return 0, 0, false
	}
	off := sub - SourceBussBase
	return off / sourceBussStride, off % sourceBussStride, true
}

// Console sub-functions.
const (
	ConsoleControlModeBase       = 0
	ConsoleMasterControlModeBase = 128
)

const (
	ConsoleMasterControl = 192 + iota
	ConsoleModuleSelect
	ConsoleBussSelect
	ConsoleMonitorSelect
	ConsoleSourceSelect
	ConsoleDestinationSelect
	ConsoleChipcardUser
	ConsoleChipcardPass
	ConsoleUpdateUser
	ConsoleUpdateUserPass
	ConsoleUserLevel
	ConsoleLogout
)

// NumConsolePresets is the number of console presets.
const NumConsolePresets = 32

const (
	ConsolePresetBase = 224
	consoleSubCount   = ConsolePresetBase + NumConsolePresets
)

// Global sub-functions.
const (
	GlobalRedlightBase  = 0
	GlobalTalkbackBase  = 8
	GlobalAutoMomentary = GlobalTalkbackBase + NumTalkbacks
	globalSubCount      = GlobalAutoMomentary + 1
)

// NumRedlights is the number of redlight outputs.
const NumRedlights = 8
