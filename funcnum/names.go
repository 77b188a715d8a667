package funcnum

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	subNames  [numDomains]map[int]string
	subByName [numDomains]map[string]int
)

func init() {
	for d := range subNames {
		subNames[d] = make(map[int]string)
		subByName[d] = make(map[string]int)
	}

	name := func(d Domain, sub int, n string) {
		subNames[d][sub] = n
		subByName[d][n] = sub
	}

	for sub, n := range map[int]string{
		ModuleLabel:             "label",
		ModuleSource:            "source",
		ModuleProcessingPreset:  "processing-preset",
		ModuleRoutingPreset:     "routing-preset",
		ModuleSourcePhantom:     "source-phantom",
		ModuleSourcePad:         "source-pad",
		ModuleSourceGain:        "source-gain",
		ModuleSourceGainReset:   "source-gain-reset",
		ModuleSourceStart:       "source-start",
		ModuleSourceStop:        "source-stop",
		ModuleSourceStartStop:   "source-start-stop",
		ModuleSourceAlert:       "source-alert",
		ModuleCough:             "cough",
		ModuleInsertSource:      "insert-source",
		ModuleInsertOnOff:       "insert-on-off",
		ModulePhase:             "phase",
		ModuleMono:              "mono",
		ModuleGain:              "gain",
		ModuleGainReset:         "gain-reset",
		ModuleLowCutFrequency:   "low-cut-frequency",
		ModuleLowCutOnOff:       "low-cut-on-off",
		ModuleEQOnOff:           "eq-on-off",
		ModuleDynamicsAmount:    "dynamics-amount",
		ModuleDynamicsThreshold: "dynamics-threshold",
		ModuleExpanderThreshold: "expander-threshold",
		ModuleDynamicsOnOff:     "dynamics-on-off",
		ModulePan:               "pan",
		ModulePanReset:          "pan-reset",
		ModuleLevel:             "level",
		ModuleLevelReset:        "level-reset",
		ModuleOn:                "on",
		ModuleOff:               "off",
		ModuleOnOff:             "on-off",
		ModuleOverrule:          "overrule",
		ModuleActive:            "active",
		ModuleMeterLeft:         "meter-left",
		ModuleMeterRight:        "meter-right",
	} {
		name(Module, sub, n)
	}
	for i := 0; i < NumModulePresets; i++ {
		name(Module, ModulePresetBase+i, fmt.Sprintf("preset-%d%c", i/2+1, 'a'+i%2))
	}
	for c := 0; c < NumConsoles; c++ {
		name(Module, ModuleControlBase+c, fmt.Sprintf("control-%d", c+1))
		name(Module, ModuleControlLabelBase+c, fmt.Sprintf("control-%d-label", c+1))
		name(Module, ModuleControlResetBase+c, fmt.Sprintf("control-%d-reset", c+1))
		name(Module, ModuleSelectBase+c, fmt.Sprintf("select-%d", c+1))
		name(Buss, BussSelectBase+c, fmt.Sprintf("select-%d", c+1))
		name(MonitorBuss, MonitorSelectBase+c, fmt.Sprintf("select-%d", c+1))
		name(Source, SourceSelectBase+c, fmt.Sprintf("select-%d", c+1))
		name(Destination, DestinationSelectBase+c, fmt.Sprintf("select-%d", c+1))
	}
	eqKinds := []string{"level", "level-reset", "frequency", "frequency-reset", "bandwidth", "bandwidth-reset", "type", "type-reset"}
	for band := 0; band < NumEQBands; band++ {
		for k, n := range eqKinds {
			name(Module, ModuleEQ(band, k), fmt.Sprintf("eq%d-%s", band+1, n))
		}
	}
	sendKinds := []string{"level", "level-reset", "on", "off", "on-off", "pre", "balance", "balance-reset"}
	for b := 0; b < NumBusses; b++ {
		for k, n := range sendKinds {
			name(Module, ModuleBuss(b, k), fmt.Sprintf("buss%d-%s", b+1, n))
		}
	}

	for sub, n := range map[int]string{
		BussLabel:            "label",
		BussMasterLevel:      "master-level",
		BussMasterLevelReset: "master-level-reset",
		BussMasterOn:         "master-on",
		BussMasterOff:        "master-off",
		BussMasterOnOff:      "master-on-off",
		BussMasterPre:        "master-pre",
		BussReset:            "reset",
		BussMeterLeft:        "meter-left",
		BussMeterRight:       "meter-right",
		BussDim:              "dim",
	} {
		name(Buss, sub, n)
	}

	for sub, n := range map[int]string{
		MonitorLabel:        "label",
		MonitorMute:         "mute",
		MonitorDim:          "dim",
		MonitorMono:         "mono",
		MonitorPhase:        "phase",
		MonitorPhonesLevel:  "phones-level",
		MonitorSpeakerLevel: "speaker-level",
		MonitorMeterLeft:    "meter-left",
		MonitorMeterRight:   "meter-right",
	} {
		name(MonitorBuss, sub, n)
	}
	for i := 0; i < NumMonitorInputs; i++ {
		if i < NumBusses {
			name(MonitorBuss, MonitorBussBase+i, fmt.Sprintf("buss%d-on-off", i+1))
		} else {
			name(MonitorBuss, MonitorBussBase+i, fmt.Sprintf("ext%d-on-off", i-NumBusses+1))
		}
	}

	for sub, n := range map[int]string{
		DestinationLabel:      "label",
		DestinationSource:     "source",
		DestinationLevel:      "level",
		DestinationMute:       "mute",
		DestinationDim:        "dim",
		DestinationMono:       "mono",
		DestinationPhase:      "phase",
		DestinationRouting:    "routing",
		DestinationMixMinus:   "mix-minus",
		DestinationMeterLeft:  "meter-left",
		DestinationMeterRight: "meter-right",
	} {
		name(Destination, sub, n)
	}

	for sub, n := range map[int]string{
		SourceLabel:       "label",
		SourceModuleOn:    "module-on",
		SourceModuleOff:   "module-off",
		SourceModuleOnOff: "module-on-off",
		SourceStart:       "start",
		SourceStop:        "stop",
		SourceStartStop:   "start-stop",
		SourcePhantom:     "phantom",
		SourcePad:         "pad",
		SourceGain:        "gain",
		SourceGainReset:   "gain-reset",
		SourceAlert:       "alert",
		SourceCough:       "cough",
		SourceActive:      "active",
	} {
		name(Source, sub, n)
	}
	for b := 0; b < NumBusses; b++ {
		name(Source, SourceBuss(b, SourceBussOn), fmt.Sprintf("buss%d-on", b+1))
		name(Source, SourceBuss(b, SourceBussOff), fmt.Sprintf("buss%d-off", b+1))
		name(Source, SourceBuss(b, SourceBussOnOff), fmt.Sprintf("buss%d-on-off", b+1))
	}

	for t := 0; t < NumTalkbacks; t++ {
		name(Buss, BussTalkbackBase+t, fmt.Sprintf("talkback-%d", t+1))
		name(MonitorBuss, MonitorTalkbackBase+t, fmt.Sprintf("talkback-%d", t+1))
		name(Destination, DestinationTalkbackBase+t, fmt.Sprintf("talkback-%d", t+1))
		name(Global, GlobalTalkbackBase+t, fmt.Sprintf("talkback-%d", t+1))
	}
	for r := 0; r < NumRedlights; r++ {
		name(Global, GlobalRedlightBase+r, fmt.Sprintf("redlight-%d", r+1))
	}
	name(Global, GlobalAutoMomentary, "auto-momentary")

	for mode := 0; mode < NumControlModes; mode++ {
		name(Console, ConsoleControlModeBase+mode, "mode-"+ModeName(mode))
	}
	for mode := 0; mode < NumMasterControlModes; mode++ {
		name(Console, ConsoleMasterControlModeBase+mode, "master-mode-"+MasterModeName(mode))
	}
	for sub, n := range map[int]string{
		ConsoleMasterControl:     "master-control",
		ConsoleModuleSelect:      "module-select",
		ConsoleBussSelect:        "buss-select",
		ConsoleMonitorSelect:     "monitor-select",
		ConsoleSourceSelect:      "source-select",
		ConsoleDestinationSelect: "destination-select",
		ConsoleChipcardUser:      "chipcard-user",
		ConsoleChipcardPass:      "chipcard-pass",
		ConsoleUpdateUser:        "update-user",
		ConsoleUpdateUserPass:    "update-user-pass",
		ConsoleUserLevel:         "user-level",
		ConsoleLogout:            "logout",
	} {
		name(Console, sub, n)
	}
	for p := 0; p < NumConsolePresets; p++ {
		name(Console, ConsolePresetBase+p, fmt.Sprintf("preset-%d", p+1))
	}
}

// ModeName returns the short name of a control mode.
func ModeName(mode int) string {
	switch {
	case mode == ModeNone:
		return "none"
	case mode == ModeSource:
		return "source"
	case mode == ModeProcessingPreset:
		return "preset"
	case mode == ModeSourceGain:
		return "source-gain"
	case mode == ModeGain:
		return "gain"
	case mode == ModeLowCutFrequency:
		return "low-cut"
	case mode >= ModeEQBase && mode < ModeDynamicsAmount:
		off := mode - ModeEQBase
		kinds := [4]string{"level", "frequency", "bandwidth", "type"}
		return fmt.Sprintf("eq%d-%s", off/4+1, kinds[off%4])
	case mode == ModeDynamicsAmount:
		return "dynamics"
	case mode == ModeDynamicsThreshold:
		return "dyn-threshold"
	case mode == ModeExpanderThreshold:
		return "expander"
	case mode == ModePan:
		return "pan"
	case mode == ModeLevel:
		return "level"
	case mode >= ModeBussLevelBase && mode < ModeBussBalanceBase:
		return fmt.Sprintf("buss%d-level", mode-ModeBussLevelBase+1)
	case mode >= ModeBussBalanceBase && mode < NumControlModes:
		return fmt.Sprintf("buss%d-balance", mode-ModeBussBalanceBase+1)
	}
	return fmt.Sprintf("mode%d", mode)
}

// MasterModeName returns the short name of a master control mode.
func MasterModeName(mode int) string {
	switch {
	case mode == ModeNone:
		return "none"
	case mode < MasterMonitorSpeakerBase:
		return fmt.Sprintf("buss%d", mode-MasterBussLevelBase+1)
	case mode < MasterMonitorPhonesBase:
		return fmt.Sprintf("speaker%d", mode-MasterMonitorSpeakerBase+1)
	case mode < NumMasterControlModes:
		return fmt.Sprintf("phones%d", mode-MasterMonitorPhonesBase+1)
	}
	return fmt.Sprintf("master%d", mode)
}

// SubName returns the configuration name of a sub-function.
func SubName(d Domain, sub int) string {
	if d < numDomains {
		if n, ok := subNames[d][sub]; ok {
			return n
		}
	}
	return strconv.Itoa(sub)
}

// String renders n as domain/instance/sub, using selN for console-selected
// instances.
func (n Number) String() string {
	if n == Unbound {
		return "unbound"
	}
	f, ok := Decode(n)
	if !ok {
		return fmt.Sprintf("0x%08x", uint32(n))
	}
	return f.String()
}

func (f Func) String() string {
	inst := strconv.Itoa(f.Instance.Index)
	if f.Instance.Selected {
		inst = fmt.Sprintf("sel%d", f.Instance.Console)
	}
	return f.Domain.String() + "/" + inst + "/" + SubName(f.Domain, f.Sub)
}

// Parse reads the form produced by String.
func Parse(s string) (Number, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Unbound, fmt.Errorf("function %q: want domain/instance/sub", s)
	}

	d := numDomains
	for i := Domain(0); i < numDomains; i++ {
		if i.String() == strings.ToLower(parts[0]) {
			d = i
			break
		}
	}
	if d == numDomains {
		return Unbound, fmt.Errorf("function %q: unknown domain %q", s, parts[0])
	}

	var ref InstanceRef
	if strings.HasPrefix(parts[1], "sel") {
		c, err := strconv.Atoi(strings.TrimPrefix(parts[1], "sel"))
		if err != nil || c < 0 || c >= NumConsoles || !HasVirtual(d) {
			return Unbound, fmt.Errorf("function %q: bad selected instance %q", s, parts[1])
		}
		ref = ConsoleSelected(c)
	} else {
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= InstanceCount(d) {
			return Unbound, fmt.Errorf("function %q: bad instance %q", s, parts[1])
		}
		ref = Concrete(i)
	}

	sub, ok := subByName[d][strings.ToLower(parts[2])]
	if !ok {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 || n >= SubCount(d) {
			return Unbound, fmt.Errorf("function %q: unknown sub-function %q", s, parts[2])
		}
		sub = n
	}

	return Func{Domain: d, Instance: ref, Sub: sub}.Number(), nil
}
