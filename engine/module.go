package engine

import (
	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
)

// Module sub-functions that act on the module's source, keyed to the
// source sub-function they drive.
var moduleSourceActions = map[int]int{
	funcnum.ModuleSourcePhantom:   funcnum.SourcePhantom,
	funcnum.ModuleSourcePad:       funcnum.SourcePad,
	funcnum.ModuleSourceGain:      funcnum.SourceGain,
	funcnum.ModuleSourceGainReset: funcnum.SourceGainReset,
	funcnum.ModuleSourceStart:     funcnum.SourceStart,
	funcnum.ModuleSourceStop:      funcnum.SourceStop,
	funcnum.ModuleSourceStartStop: funcnum.SourceStartStop,
	funcnum.ModuleSourceAlert:     funcnum.SourceAlert,
	funcnum.ModuleCough:           funcnum.SourceCough,
}

// Source actions that only apply when the source's own function is bound
// to an I/O card object.
var guardedSourceActions = map[int]bool{
	funcnum.SourcePhantom:   true,
	funcnum.SourcePad:       true,
	funcnum.SourceGain:      true,
	funcnum.SourceGainReset: true,
}

func (e *Engine) moduleSensor(m, sub int, in input) {
	mod, ok := e.st.Module(m)
	if !ok {
		return
	}
	if band, kind, ok := funcnum.SplitModuleEQ(sub); ok {
		e.moduleEQ(m, band, kind, in)
		return
	}
	if b, kind, ok := funcnum.SplitModuleBuss(sub); ok {
		e.moduleSend(m, b, kind, in)
		return
	}
	switch {
	case sub >= funcnum.ModulePresetBase && sub < funcnum.ModulePresetBase+funcnum.NumModulePresets:
		if in.pressed() {
			e.loadModulePreset(m, sub-funcnum.ModulePresetBase, false)
		}
		return
	case sub >= funcnum.ModuleControlBase && sub < funcnum.ModuleControlBase+mixer.NumConsoles:
		e.moduleControl(m, sub-funcnum.ModuleControlBase, in)
		return
	case sub >= funcnum.ModuleControlResetBase && sub < funcnum.ModuleControlResetBase+mixer.NumConsoles:
		if in.pressed() {
			e.moduleControlReset(m, sub-funcnum.ModuleControlResetBase)
		}
		return
	case sub >= funcnum.ModuleSelectBase && sub < funcnum.ModuleSelectBase+mixer.NumConsoles:
		if in.pressed() {
			e.toggleSelection(funcnum.Module, sub-funcnum.ModuleSelectBase, m)
		}
		return
	}

	if ssub, ok := moduleSourceActions[sub]; ok {
		e.moduleSourceAction(m, ssub, in)
		return
	}

	reserve := e.st.Global.LevelReserve
	switch sub {
	case funcnum.ModuleSource:
		e.moduleSourceInput(m, -1, in)
	case funcnum.ModuleProcessingPreset:
		e.modulePresetInput(m, -1, in)
	case funcnum.ModuleRoutingPreset:
		e.moduleRoutingPresetInput(m, in)
	case funcnum.ModuleInsertSource:
		next := mod.InsertSource
		switch in.typ() {
		case fieldbus.SInt:
			next = e.st.MatrixSources.Step(mod.InsertSource, in.delta(), -1, nil)
		case fieldbus.UInt:
			next = int(in.value.Int)
		}
		if next == mod.InsertSource || (next != 0 && mixer.MatrixKind(next) == mixer.MatrixNone) {
			return
		}
		mod.InsertSource = next
		e.router.ModuleInsertSource(m)
		e.moduleChanged(m, sub)
	case funcnum.ModuleInsertOnOff:
		e.moduleFlag(m, sub, &mod.InsertOn, in)
	case funcnum.ModulePhase:
		e.moduleFlag(m, sub, &mod.Phase, in)
	case funcnum.ModuleMono:
		e.moduleFlag(m, sub, &mod.Mono, in)
	case funcnum.ModuleLowCutOnOff:
		e.moduleFlag(m, sub, &mod.LowCutOn, in)
	case funcnum.ModuleDynamicsOnOff:
		e.moduleFlag(m, sub, &mod.Dynamics.On, in)
	case funcnum.ModuleEQOnOff:
		if v, ok := in.toggle(mod.EQOn); ok && v != mod.EQOn {
			mod.EQOn = v
			e.router.EQ(m)
			e.moduleChanged(m, sub)
		}
	case funcnum.ModuleGain:
		e.moduleStrip(m, sub, &mod.Gain, numeric{kind: stepTenth, lo: mixer.MinModuleGain, hi: mixer.MaxModuleGain}, in)
	case funcnum.ModuleGainReset:
		if in.pressed() {
			e.moduleStripSet(m, funcnum.ModuleGain, &mod.Gain, 0)
		}
	case funcnum.ModuleLowCutFrequency:
		e.moduleStrip(m, sub, &mod.LowCutFrequency, numeric{kind: stepFreq, lo: mixer.MinFrequency, hi: mixer.MaxFrequency}, in)
	case funcnum.ModuleDynamicsAmount:
		e.moduleStrip(m, sub, &mod.Dynamics.Amount, numeric{kind: stepWhole, lo: 0, hi: 100}, in)
	case funcnum.ModuleDynamicsThreshold:
		e.moduleStrip(m, sub, &mod.Dynamics.Threshold, numeric{kind: stepWhole, lo: -30, hi: 0}, in)
	case funcnum.ModuleExpanderThreshold:
		e.moduleStrip(m, sub, &mod.Dynamics.ExpanderThreshold, numeric{kind: stepWhole, lo: -80, hi: 0}, in)
	case funcnum.ModulePan:
		v, ok := numeric{kind: stepWhole, lo: 0, hi: mixer.PanMax}.apply(float64(mod.Pan), in)
		if ok {
			e.setPan(m, int(v))
		}
	case funcnum.ModulePanReset:
		if in.pressed() {
			e.setPan(m, mixer.PanCenter)
		}
	case funcnum.ModuleLevel:
		v, ok := numeric{kind: stepLevel, lo: mixer.FaderOff, hi: mixer.MaxLevel - reserve, reserve: reserve}.apply(mod.FaderLevel, in)
		if ok {
			e.setFaderLevel(m, v)
		}
	case funcnum.ModuleLevelReset:
		if in.pressed() {
			e.setFaderLevel(m, 0)
		}
	case funcnum.ModuleOn:
		if v, ok := in.set(mod.On, true); ok {
			e.setModuleOn(m, v)
		}
	case funcnum.ModuleOff:
		if v, ok := in.set(mod.On, false); ok {
			e.setModuleOn(m, v)
		}
	case funcnum.ModuleOnOff:
		if v, ok := in.toggle(mod.On); ok {
			e.setModuleOn(m, v)
		}
	case funcnum.ModuleOverrule:
		if v, ok := in.toggle(mod.OverruleActive); ok && v != mod.OverruleActive {
			mod.OverruleActive = v
			e.notifyModule(m, sub)
		}
	default:
		debug.Log("sensor", "module %d: %s is display only", m, funcnum.SubName(funcnum.Module, sub))
	}
}

// moduleChanged queues the display of sub on module m, the control display
// of every console whose control mode drives sub, and the preset indicators.
func (e *Engine) moduleChanged(m, sub int) {
	e.notifyModule(m, sub)
	if mode := funcnum.SubMode(sub); mode != funcnum.ModeNone {
		for c := range e.st.Consoles {
			if e.st.Consoles[c].ControlMode == mode {
				e.notifyModule(m, funcnum.ModuleControlBase+c)
			}
		}
	}
	e.notifyPresetIndicators(m)
}

func (e *Engine) notifyPresetIndicators(m int) {
	for p := 0; p < funcnum.NumModulePresets; p++ {
		e.notifyModule(m, funcnum.ModulePresetBase+p)
	}
}

// moduleFlag toggles one channel strip switch.
func (e *Engine) moduleFlag(m, sub int, flag *bool, in input) {
	v, ok := in.toggle(*flag)
	if !ok || v == *flag {
		return
	}
	*flag = v
	e.router.ChannelStrip(m)
	e.moduleChanged(m, sub)
}

// moduleStrip applies a numeric channel strip parameter.
func (e *Engine) moduleStrip(m, sub int, p *float64, n numeric, in input) {
	v, ok := n.apply(*p, in)
	if !ok {
		return
	}
	e.moduleStripSet(m, sub, p, v)
}

func (e *Engine) moduleStripSet(m, sub int, p *float64, v float64) {
	if v == *p {
		return
	}
	*p = v
	e.router.ChannelStrip(m)
	e.moduleChanged(m, sub)
}

func (e *Engine) setPan(m, pan int) {
	mod := &e.st.Modules[m]
	if pan == mod.Pan {
		return
	}
	mod.Pan = pan
	e.router.BussSends(m)
	e.moduleChanged(m, funcnum.ModulePan)
}

func (e *Engine) setFaderLevel(m int, level float64) {
	mod := &e.st.Modules[m]
	if level == mod.FaderLevel {
		return
	}
	was := mod.Active()
	mod.FaderLevel = level
	e.moduleChanged(m, funcnum.ModuleLevel)
	e.moduleActivityChanged(m, was)
}

func (e *Engine) setModuleOn(m int, on bool) {
	mod := &e.st.Modules[m]
	if on == mod.On {
		return
	}
	was := mod.Active()
	mod.On = on
	e.moduleChanged(m, funcnum.ModuleOn)
	e.notifyModule(m, funcnum.ModuleOff)
	e.notifyModule(m, funcnum.ModuleOnOff)
	if src := mixer.SourceOfMatrix(mod.SelectedSource); src >= 0 {
		e.notifySource(src, funcnum.SourceModuleOn)
		e.notifySource(src, funcnum.SourceModuleOff)
		e.notifySource(src, funcnum.SourceModuleOnOff)
	}
	e.moduleActivityChanged(m, was)
}

// moduleActivityChanged re-pushes the sends of m after an on or level change
// and runs the status-changed check.
func (e *Engine) moduleActivityChanged(m int, was bool) {
	mod := &e.st.Modules[m]
	e.router.BussSends(m)
	if mod.Active() != was {
		e.notifyModule(m, funcnum.ModuleActive)
	}
	e.updateSourceActive(mod.SelectedSource)
	if !mod.Active() {
		e.applyWaiting(m)
	}
}

// applyWaiting commits deferred source and preset changes of an inactive
// module.
func (e *Engine) applyWaiting(m int) {
	mod := &e.st.Modules[m]
	if mod.WaitingSource >= 0 {
		ms := mod.WaitingSource
		mod.WaitingSource = -1
		e.setNewSource(m, ms, true)
	}
	if mod.WaitingPreset >= 0 {
		p := mod.WaitingPreset
		mod.WaitingPreset = -1
		e.loadProcessingPreset(m, p, true)
	}
	if mod.WaitingRoutingPreset >= 0 {
		p := mod.WaitingRoutingPreset
		mod.WaitingRoutingPreset = -1
		e.loadRoutingPreset(m, p, true)
	}
}

// moduleSourceAction forwards a source switch pressed on a module to the
// module's source.
func (e *Engine) moduleSourceAction(m, ssub int, in input) {
	src := mixer.SourceOfMatrix(e.st.Modules[m].SelectedSource)
	if src < 0 {
		return
	}
	if guardedSourceActions[ssub] && e.reg.AttachedCount(funcnum.Make(funcnum.Source, src, ssub)) == 0 {
		debug.Log("sensor", "module %d: source %d has no %s control", m, src, funcnum.SubName(funcnum.Source, ssub))
		return
	}
	e.sourceSensor(src, ssub, in)
}

// moduleSourceInput steps or sets the source of m. With console c >= 0 the
// step only moves c's scratch copy until the control is reset.
func (e *Engine) moduleSourceInput(m, c int, in input) {
	mod := &e.st.Modules[m]
	switch in.typ() {
	case fieldbus.SInt:
		cur := mod.SelectedSource
		pool := e.consolePool(mod.Console, true)
		if c >= 0 {
			pool = e.consolePool(c, true)
			if mod.ScratchSource[c] >= 0 {
				cur = mod.ScratchSource[c]
			}
		}
		next := e.st.MatrixSources.Step(cur, in.delta(), pool, func(ms int) bool {
			return !e.st.MixMinusInUse(ms, m)
		})
		if c >= 0 {
			if next != mod.ScratchSource[c] {
				mod.ScratchSource[c] = next
				e.notifyModule(m, funcnum.ModuleControlBase+c)
			}
			return
		}
		e.setNewSource(m, next, false)
	case fieldbus.UInt:
		ms := int(in.value.Int)
		if ms != 0 && mixer.MatrixKind(ms) == mixer.MatrixNone {
			debug.Log("sensor", "module %d: matrix source %d out of range", m, ms)
			return
		}
		if e.st.MixMinusInUse(ms, m) {
			debug.Log("sensor", "module %d: source %d feeds a mix-minus in use", m, ms)
			return
		}
		e.setNewSource(m, ms, false)
	}
}

func (e *Engine) consolePool(c int, source bool) int {
	con, ok := e.st.Console(c)
	if !ok {
		return -1
	}
	if source {
		return con.SourcePool
	}
	return con.PresetPool
}

// Functions refreshed on both the old and new source when a module changes
// source.
var (
	moduleSourceRefresh = []int{
		funcnum.ModuleSource,
		funcnum.ModuleSourcePhantom,
		funcnum.ModuleSourcePad,
		funcnum.ModuleSourceGain,
		funcnum.ModuleSourceStart,
		funcnum.ModuleSourceStop,
		funcnum.ModuleSourceStartStop,
		funcnum.ModuleSourceAlert,
		funcnum.ModuleCough,
	}
	sourceModuleRefresh = []int{
		funcnum.SourceModuleOn,
		funcnum.SourceModuleOff,
		funcnum.SourceModuleOnOff,
		funcnum.SourceActive,
	}
)

// setNewSource switches module m to matrix source ms. An active module only
// records the request unless forced or overruled. It reports whether the
// source was switched.
func (e *Engine) setNewSource(m, ms int, forced bool) bool {
	mod := &e.st.Modules[m]
	if ms == mod.SelectedSource {
		if mod.WaitingSource >= 0 {
			mod.WaitingSource = -1
			e.notifyModule(m, funcnum.ModuleSource)
		}
		return false
	}
	if mod.Active() && !forced && !mod.OverruleActive {
		mod.WaitingSource = ms
		debug.Log("sensor", "module %d active, source %d waiting", m, ms)
		e.notifyModule(m, funcnum.ModuleSource)
		return false
	}

	old := mod.SelectedSource
	mod.SelectedSource = ms
	mod.WaitingSource = -1
	for c := range e.st.Consoles {
		if e.st.Consoles[c].ControlMode == funcnum.ModeSource {
			mod.ScratchSource[c] = ms
			e.notifyModule(m, funcnum.ModuleControlBase+c)
		}
	}
	e.router.ModuleSource(m)

	// Mix-minus feeds follow the module carrying their source.
	for d := range e.st.Destinations {
		dst := &e.st.Destinations[d]
		if dst.MixMinusSource != 0 && (dst.MixMinusSource == old || dst.MixMinusSource == ms) {
			e.router.DestinationSource(d)
		}
	}

	for _, sub := range moduleSourceRefresh {
		e.notifyModule(m, sub)
	}
	for b := 0; b < mixer.NumBusses; b++ {
		e.router.BussSend(m, b)
	}
	for _, s := range []int{old, ms} {
		src := mixer.SourceOfMatrix(s)
		if src < 0 {
			continue
		}
		for _, sub := range sourceModuleRefresh {
			e.notifySource(src, sub)
		}
		for b := 0; b < mixer.NumBusses; b++ {
			for kind := funcnum.SourceBussOn; kind <= funcnum.SourceBussOnOff; kind++ {
				e.notifySource(src, funcnum.SourceBuss(b, kind))
			}
		}
		e.updateSourceActive(s)
	}
	e.notifyPresetIndicators(m)
	debug.Log("sensor", "module %d source %d -> %d", m, old, ms)
	return true
}

// moduleControl handles the shared control encoder of console c on module m.
func (e *Engine) moduleControl(m, c int, in input) {
	con := &e.st.Consoles[c]
	mode := con.ControlMode
	if mode == funcnum.ModeNone {
		return
	}
	con.ControlModeTimer = 0
	switch mode {
	case funcnum.ModeSource:
		e.moduleSourceInput(m, c, in)
	case funcnum.ModeProcessingPreset:
		e.modulePresetInput(m, c, in)
	default:
		if sub, ok := funcnum.ModeSub(mode); ok {
			e.moduleSensor(m, sub, in)
		}
	}
}

// resetSub maps a value sub-function to its reset sub-function.
func resetSub(sub int) (int, bool) {
	if band, kind, ok := funcnum.SplitModuleEQ(sub); ok && kind%2 == 0 {
		return funcnum.ModuleEQ(band, kind+1), true
	}
	if b, kind, ok := funcnum.SplitModuleBuss(sub); ok {
		switch kind {
		case funcnum.SendLevel:
			return funcnum.ModuleBuss(b, funcnum.SendLevelReset), true
		case funcnum.SendBalance:
			return funcnum.ModuleBuss(b, funcnum.SendBalanceReset), true
		}
		return 0, false
	}
	switch sub {
	case funcnum.ModuleSourceGain:
		return funcnum.ModuleSourceGainReset, true
	case funcnum.ModuleGain:
		return funcnum.ModuleGainReset, true
	case funcnum.ModulePan:
		return funcnum.ModulePanReset, true
	case funcnum.ModuleLevel:
		return funcnum.ModuleLevelReset, true
	}
	return 0, false
}

// moduleControlReset commits the scratch selection in source and preset
// mode, and resets the driven parameter otherwise.
func (e *Engine) moduleControlReset(m, c int) {
	mod := &e.st.Modules[m]
	con := &e.st.Consoles[c]
	con.ControlModeTimer = 0
	switch con.ControlMode {
	case funcnum.ModeNone:
	case funcnum.ModeSource:
		if mod.ScratchSource[c] >= 0 {
			e.setNewSource(m, mod.ScratchSource[c], false)
		}
	case funcnum.ModeProcessingPreset:
		if mod.ScratchPreset[c] >= 0 {
			e.loadProcessingPreset(m, mod.ScratchPreset[c], false)
		}
	default:
		sub, _ := funcnum.ModeSub(con.ControlMode)
		if rs, ok := resetSub(sub); ok {
			e.moduleSensor(m, rs, input{value: fieldbus.StateValue(true), threshold: -1})
		}
	}
}

func (e *Engine) moduleEQ(m, band, kind int, in input) {
	mod := &e.st.Modules[m]
	eq := &mod.EQ[band]
	next := *eq

	switch kind {
	case funcnum.EQLevel:
		n := numeric{kind: stepTenth, lo: -eq.Range, hi: eq.Range, vlo: -mixer.MaxEQLevel, vhi: mixer.MaxEQLevel}
		if v, ok := n.apply(eq.Level, in); ok {
			next.Level = v
		}
	case funcnum.EQFrequency:
		if v, ok := (numeric{kind: stepFreq, lo: mixer.MinFrequency, hi: mixer.MaxFrequency}).apply(eq.Frequency, in); ok {
			next.Frequency = v
		}
	case funcnum.EQBandwidth:
		if v, ok := (numeric{kind: stepTenth, lo: 0.1, hi: 10}).apply(eq.Bandwidth, in); ok {
			next.Bandwidth = v
		}
	case funcnum.EQType:
		t := int(eq.Type)
		switch in.typ() {
		case fieldbus.SInt:
			t += in.delta()
		case fieldbus.UInt:
			t = int(in.value.Int)
		case fieldbus.Float:
			t = int(in.value.Float)
		}
		next.Type = mixer.EQType(mixer.ClampInt(t, 0, int(mixer.NumEQTypes)-1))
	default:
		if !in.pressed() {
			return
		}
		switch kind {
		case funcnum.EQLevelReset:
			next.Level = 0
		case funcnum.EQFrequencyReset:
			next.Frequency = mixer.DefaultEQFrequencies[band]
		case funcnum.EQBandwidthReset:
			next.Bandwidth = mixer.DefaultBandwidth
		case funcnum.EQTypeReset:
			next.Type = mixer.DefaultEQTypes[band]
		}
	}
	if next == *eq {
		return
	}
	*eq = next
	e.router.EQBand(m, band)
	e.moduleChanged(m, funcnum.ModuleEQ(band, kind-kind%2))
}

func (e *Engine) moduleSend(m, b, kind int, in input) {
	mod := &e.st.Modules[m]
	send := &mod.Buss[b]
	reserve := e.st.Global.LevelReserve

	switch kind {
	case funcnum.SendLevel:
		n := numeric{kind: stepLevel, lo: mixer.FaderOff, hi: mixer.MaxLevel - reserve, reserve: reserve}
		if v, ok := n.apply(send.Level, in); ok {
			e.setSendLevel(m, b, v)
		}
	case funcnum.SendLevelReset:
		if in.pressed() {
			e.setSendLevel(m, b, 0)
		}
	case funcnum.SendOn:
		if v, ok := in.set(send.On, true); ok {
			e.setBussOnOff(m, b, v)
		}
	case funcnum.SendOff:
		if v, ok := in.set(send.On, false); ok {
			e.setBussOnOff(m, b, v)
		}
	case funcnum.SendOnOff:
		if v, ok := in.toggle(send.On); ok {
			e.setBussOnOff(m, b, v)
		}
	case funcnum.SendPre:
		if v, ok := in.toggle(send.Pre); ok && v != send.Pre {
			send.Pre = v
			e.router.BussSend(m, b)
			e.moduleChanged(m, funcnum.ModuleBuss(b, funcnum.SendPre))
		}
	case funcnum.SendBalance:
		if v, ok := (numeric{kind: stepWhole, lo: 0, hi: mixer.PanMax}).apply(float64(send.Balance), in); ok {
			e.setSendBalance(m, b, int(v))
		}
	case funcnum.SendBalanceReset:
		if in.pressed() {
			e.setSendBalance(m, b, mixer.PanCenter)
		}
	}
}

func (e *Engine) setSendLevel(m, b int, v float64) {
	send := &e.st.Modules[m].Buss[b]
	if v == send.Level {
		return
	}
	send.Level = v
	e.router.BussSend(m, b)
	e.moduleChanged(m, funcnum.ModuleBuss(b, funcnum.SendLevel))
}

func (e *Engine) setSendBalance(m, b, v int) {
	send := &e.st.Modules[m].Buss[b]
	if v == send.Balance {
		return
	}
	send.Balance = v
	e.router.BussSend(m, b)
	e.moduleChanged(m, funcnum.ModuleBuss(b, funcnum.SendBalance))
}
