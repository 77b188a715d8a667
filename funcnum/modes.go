package funcnum

// Control mode kinds. A console's shared encoder drives exactly one of these
// on whichever module it is turned on.
const (
	ModeNone = -1

	ModeSource = iota - 1
	ModeProcessingPreset
	ModeSourceGain
	ModeGain
	ModeLowCutFrequency
	ModeEQBase // 6 bands x {level, frequency, bandwidth, type}
)

const (
	ModeDynamicsAmount = ModeEQBase + NumEQBands*4 + iota
	ModeDynamicsThreshold
	ModeExpanderThreshold
	ModePan
	ModeLevel
	ModeBussLevelBase
)

const (
	ModeBussBalanceBase = ModeBussLevelBase + NumBusses
	NumControlModes     = ModeBussBalanceBase + NumBusses
)

var eqModeKinds = [4]int{EQLevel, EQFrequency, EQBandwidth, EQType}

// ModeSub maps a control mode to the module sub-function it drives.
func ModeSub(mode int) (int, bool) {
	switch {
	case mode == ModeSource:
		return ModuleSource, true
	case mode == ModeProcessingPreset:
		return ModuleProcessingPreset, true
	case mode == ModeSourceGain:
		return ModuleSourceGain, true
	case mode == ModeGain:
		return ModuleGain, true
	case mode == ModeLowCutFrequency:
		return ModuleLowCutFrequency, true
	case mode >= ModeEQBase && mode < ModeEQBase+NumEQBands*4:
		off := mode - ModeEQBase
		return ModuleEQ(off/4, eqModeKinds[off%4]), true
	case mode == ModeDynamicsAmount:
		return ModuleDynamicsAmount, true
	case mode == ModeDynamicsThreshold:
		return ModuleDynamicsThreshold, true
	case mode == ModeExpanderThreshold:
		return ModuleExpanderThreshold, true
	case mode == ModePan:
		return ModulePan, true
	case mode == ModeLevel:
		return ModuleLevel, true
	case mode >= ModeBussLevelBase && mode < ModeBussLevelBase+NumBusses:
		return ModuleBuss(mode-ModeBussLevelBase, SendLevel), true
	case mode >= ModeBussBalanceBase && mode < NumControlModes:
		return ModuleBuss(mode-ModeBussBalanceBase, SendBalance), true
	}
	return 0, false
}

var subModes = func() map[int]int {
	m := make(map[int]int, NumControlModes)
	for mode := 0; mode < NumControlModes; mode++ {
		if sub, ok := ModeSub(mode); ok {
			m[sub] = mode
		}
	}
	return m
}()

// SubMode is the inverse of ModeSub; it returns ModeNone for module
// sub-functions no control mode drives.
func SubMode(sub int) int {
	if mode, ok := subModes[sub]; ok {
		return mode
	}
	return ModeNone
}

// Master control mode kinds for the console's master rotary.
const (
	MasterBussLevelBase      = 0
	MasterMonitorSpeakerBase = MasterBussLevelBase + NumBusses
	MasterMonitorPhonesBase  = MasterMonitorSpeakerBase + NumMonitors
	NumMasterControlModes    = MasterMonitorPhonesBase + NumMonitors
)

// MasterModeTarget maps a master control mode to the function it drives.
func MasterModeTarget(mode int) (Domain, int, int, bool) {
	switch {
	case mode >= MasterBussLevelBase && mode < MasterMonitorSpeakerBase:
		return Buss, mode - MasterBussLevelBase, BussMasterLevel, true
	case mode >= MasterMonitorSpeakerBase && mode < MasterMonitorPhonesBase:
		return MonitorBuss, mode - MasterMonitorSpeakerBase, MonitorSpeakerLevel, true
	case mode >= MasterMonitorPhonesBase && mode < NumMasterControlModes:
		return MonitorBuss, mode - MasterMonitorPhonesBase, MonitorPhonesLevel, true
	}
	return 0, 0, 0, false
}
