package engine

import (
	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
)

// modulePresetInput steps or sets the processing preset of m. With console
// c >= 0 the step only moves c's scratch copy.
func (e *Engine) modulePresetInput(m, c int, in input) {
	mod := &e.st.Modules[m]
	switch in.typ() {
	case fieldbus.SInt:
		cur := mod.SelectedPreset
		pool := e.consolePool(mod.Console, false)
		if c >= 0 {
			pool = e.consolePool(c, false)
			if mod.ScratchPreset[c] >= 0 {
				cur = mod.ScratchPreset[c]
			}
		}
		next := e.st.PresetPositions.Step(cur, in.delta(), pool, nil)
		if c >= 0 {
			if next != mod.ScratchPreset[c] {
				mod.ScratchPreset[c] = next
				e.notifyModule(m, funcnum.ModuleControlBase+c)
			}
			return
		}
		e.loadProcessingPreset(m, next, false)
	case fieldbus.UInt:
		e.loadProcessingPreset(m, int(in.value.Int), false)
	case fieldbus.State:
		if in.press() {
			e.loadProcessingPreset(m, mod.SelectedPreset, false)
		}
	}
}

func (e *Engine) moduleRoutingPresetInput(m int, in input) {
	mod := &e.st.Modules[m]
	next := mod.RoutingPreset
	switch in.typ() {
	case fieldbus.SInt:
		next = mixer.ClampInt(next+in.delta(), 0, mixer.NumRoutingPresets)
	case fieldbus.UInt:
		next = int(in.value.Int)
	case fieldbus.State:
		if !in.press() {
			return
		}
	default:
		return
	}
	e.loadRoutingPreset(m, next, false)
}

// loadModulePreset recalls slot p of module m. Source, processing and
// routing parts all wait while the module is active unless forced.
func (e *Engine) loadModulePreset(m, p int, forced bool) {
	mod := &e.st.Modules[m]
	slot := mod.Presets[p]
	if slot.Source >= 0 {
		e.setNewSource(m, slot.Source, forced)
	}
	if slot.ProcessingPreset > 0 {
		e.loadProcessingPreset(m, slot.ProcessingPreset, forced)
	}
	if slot.RoutingPreset > 0 {
		e.loadRoutingPreset(m, slot.RoutingPreset, forced)
	}
	e.notifyPresetIndicators(m)
}

// loadProcessingPreset applies processing preset p (1-based, 0 for module
// defaults) to m. Each field group takes the preset value if the preset
// uses it, else the module default if defaults are enabled and used, else
// stays unchanged.
func (e *Engine) loadProcessingPreset(m, p int, forced bool) bool {
	mod := &e.st.Modules[m]
	preset, ok := e.st.ProcessingPreset(p)
	if p != 0 && !ok {
		debug.Log("preset", "module %d: no processing preset %d", m, p)
		return false
	}
	if mod.Active() && !forced && !mod.OverruleActive {
		mod.WaitingPreset = p
		e.notifyModule(m, funcnum.ModuleProcessingPreset)
		return false
	}

	useDefaults := p == 0 || e.st.Global.UseModuleDefaults
	pick := func(inPreset, inDefaults bool) *mixer.ProcessingData {
		switch {
		case ok && inPreset:
			return &preset.Data
		case useDefaults && inDefaults:
			return &mod.Defaults
		}
		return nil
	}
	def := &mod.Defaults
	var data *mixer.ProcessingData
	if ok {
		data = &preset.Data
	} else {
		data = &mixer.ProcessingData{}
	}

	strip := false
	if src := pick(data.UseGain, def.UseGain); src != nil && src.Gain != mod.Gain {
		mod.Gain = src.Gain
		e.moduleChanged(m, funcnum.ModuleGain)
		strip = true
	}
	if src := pick(data.UseLowCut, def.UseLowCut); src != nil {
		if src.LowCutFrequency != mod.LowCutFrequency {
			mod.LowCutFrequency = src.LowCutFrequency
			e.moduleChanged(m, funcnum.ModuleLowCutFrequency)
			strip = true
		}
		if src.LowCutOn != mod.LowCutOn {
			mod.LowCutOn = src.LowCutOn
			e.moduleChanged(m, funcnum.ModuleLowCutOnOff)
			strip = true
		}
	}
	if src := pick(data.UsePhase, def.UsePhase); src != nil && src.Phase != mod.Phase {
		mod.Phase = src.Phase
		e.moduleChanged(m, funcnum.ModulePhase)
		strip = true
	}
	if src := pick(data.UseMono, def.UseMono); src != nil && src.Mono != mod.Mono {
		mod.Mono = src.Mono
		e.moduleChanged(m, funcnum.ModuleMono)
		strip = true
	}
	if src := pick(data.UseDynamics, def.UseDynamics); src != nil && src.Dynamics != mod.Dynamics {
		mod.Dynamics = src.Dynamics
		e.moduleChanged(m, funcnum.ModuleDynamicsAmount)
		e.moduleChanged(m, funcnum.ModuleDynamicsThreshold)
		e.moduleChanged(m, funcnum.ModuleExpanderThreshold)
		e.moduleChanged(m, funcnum.ModuleDynamicsOnOff)
		strip = true
	}
	if src := pick(data.UseEQ, def.UseEQ); src != nil {
		if src.EQOn != mod.EQOn {
			mod.EQOn = src.EQOn
			e.moduleChanged(m, funcnum.ModuleEQOnOff)
			e.router.EQ(m)
		}
		for band := range mod.EQ {
			if src.EQ[band] == mod.EQ[band] {
				continue
			}
			mod.EQ[band] = src.EQ[band]
			e.router.EQBand(m, band)
			for _, kind := range []int{funcnum.EQLevel, funcnum.EQFrequency, funcnum.EQBandwidth, funcnum.EQType} {
				e.moduleChanged(m, funcnum.ModuleEQ(band, kind))
			}
		}
	}
	if strip {
		e.router.ChannelStrip(m)
	}

	mod.SelectedPreset = p
	mod.WaitingPreset = -1
	e.notifyModule(m, funcnum.ModuleProcessingPreset)
	e.notifyPresetIndicators(m)
	debug.Log("preset", "module %d processing preset %d", m, p)
	return true
}

// loadRoutingPreset applies routing preset p (1-based, 0 for the module's
// default routing) with the same three-way merge per buss.
func (e *Engine) loadRoutingPreset(m, p int, forced bool) bool {
	mod := &e.st.Modules[m]
	if p < 0 || p > mixer.NumRoutingPresets {
		return false
	}
	if mod.Active() && !forced && !mod.OverruleActive {
		mod.WaitingRoutingPreset = p
		e.notifyModule(m, funcnum.ModuleRoutingPreset)
		return false
	}

	var preset *mixer.RoutingPreset
	if p > 0 {
		preset = &mod.RoutingPresets[p-1]
	}
	useDefaults := p == 0 || e.st.Global.UseModuleDefaults

	next := mod.Buss
	for b := range next {
		var src *mixer.RoutingBuss
		switch {
		case preset != nil && preset.Buss[b].Use:
			src = &preset.Buss[b]
		case useDefaults && mod.DefaultRouting.Buss[b].Use:
			src = &mod.DefaultRouting.Buss[b]
		default:
			continue
		}
		next[b].Level = src.Level
		next[b].On = src.On
		next[b].Balance = src.Balance
	}

	// A dump buss switched on by a preset keeps the other sends to restore.
	for b := range next {
		if next[b].On && !mod.Buss[b].On && e.st.Busses[b].Exclusive == mixer.ExclusiveDump && mod.ExclusiveBuss < 0 {
			mod.ExclusiveBuss = b
			for other := range next {
				next[other].PreviousOn = mod.Buss[other].On
			}
			break
		}
	}

	// Levels and balances first, then on/off through the buss class rules.
	for b := range next {
		old := mod.Buss[b]
		cur := next[b]
		cur.On = old.On
		mod.Buss[b] = cur
		if old == cur {
			continue
		}
		e.router.BussSend(m, b)
		if old.Level != next[b].Level {
			e.moduleChanged(m, funcnum.ModuleBuss(b, funcnum.SendLevel))
		}
		if old.Balance != next[b].Balance {
			e.moduleChanged(m, funcnum.ModuleBuss(b, funcnum.SendBalance))
		}
	}
	for b := range next {
		e.switchBuss(m, b, next[b].On, false)
	}
	e.updateSourceActive(mod.SelectedSource)

	mod.RoutingPreset = p
	mod.WaitingRoutingPreset = -1
	e.notifyModule(m, funcnum.ModuleRoutingPreset)
	e.notifyPresetIndicators(m)
	return true
}

// modulePresetActive reports whether module m currently matches slot p:
// every part the slot sets is in effect.
func (e *Engine) modulePresetActive(m, p int) bool {
	mod := &e.st.Modules[m]
	slot := mod.Presets[p]
	if slot.Source < 0 && slot.ProcessingPreset <= 0 && slot.RoutingPreset <= 0 {
		return false
	}
	if slot.Source >= 0 && mod.SelectedSource != slot.Source {
		return false
	}
	if slot.ProcessingPreset > 0 {
		preset, ok := e.st.ProcessingPreset(slot.ProcessingPreset)
		if !ok || !processingMatches(mod, &preset.Data) {
			return false
		}
	}
	if slot.RoutingPreset > 0 && slot.RoutingPreset <= mixer.NumRoutingPresets {
		if !routingMatches(mod, &mod.RoutingPresets[slot.RoutingPreset-1]) {
			return false
		}
	}
	return true
}

func processingMatches(mod *mixer.Module, d *mixer.ProcessingData) bool {
	switch {
	case d.UseGain && d.Gain != mod.Gain:
		return false
	case d.UseLowCut && (d.LowCutFrequency != mod.LowCutFrequency || d.LowCutOn != mod.LowCutOn):
		return false
	case d.UsePhase && d.Phase != mod.Phase:
		return false
	case d.UseMono && d.Mono != mod.Mono:
		return false
	case d.UseEQ && (d.EQOn != mod.EQOn || d.EQ != mod.EQ):
		return false
	case d.UseDynamics && d.Dynamics != mod.Dynamics:
		return false
	}
	return true
}

func routingMatches(mod *mixer.Module, r *mixer.RoutingPreset) bool {
	for b := range r.Buss {
		rb := &r.Buss[b]
		if !rb.Use {
			continue
		}
		s := &mod.Buss[b]
		if s.On != rb.On || s.Level != rb.Level || s.Balance != rb.Balance {
			return false
		}
	}
	return true
}

// consolePresetPressed starts a console preset recall on console c. Without
// hold times the preset applies at once.
func (e *Engine) consolePresetPressed(c, p int, press bool) {
	con := &e.st.Consoles[c]
	cp := &e.st.ConsolePresets[p]
	now := e.now()

	if press {
		if cp.SafeRecallTime <= 0 && cp.ForcedRecallTime <= 0 {
			e.applyConsolePreset(p, false)
			return
		}
		con.PresetPressed = p
		con.PresetPressedAt = now
		return
	}

	if con.PresetPressed != p {
		return
	}
	held := now - con.PresetPressedAt
	con.PresetPressed = -1
	if held >= int64(cp.SafeRecallTime) {
		e.applyConsolePreset(p, false)
	}
}

// consolePresetTimers fires forced recalls of held console preset keys.
func (e *Engine) consolePresetTimers() {
	now := e.now()
	for c := range e.st.Consoles {
		con := &e.st.Consoles[c]
		p := con.PresetPressed
		if p < 0 {
			continue
		}
		cp := &e.st.ConsolePresets[p]
		if cp.ForcedRecallTime > 0 && now-con.PresetPressedAt >= int64(cp.ForcedRecallTime) {
			con.PresetPressed = -1
			e.applyConsolePreset(p, true)
		}
	}
}

// applyConsolePreset recalls console preset p on its consoles. A forced
// recall skips the active-module check.
func (e *Engine) applyConsolePreset(p int, forced bool) {
	cp := &e.st.ConsolePresets[p]
	debug.Log("preset", "console preset %d forced=%v", p, forced)

	if cp.ModulePreset >= 0 && cp.ModulePreset < mixer.NumModulePresets {
		for m := range e.st.Modules {
			c := e.st.Modules[m].Console
			if c >= 0 && c < mixer.NumConsoles && cp.Consoles[c] {
				e.loadModulePreset(m, cp.ModulePreset, forced)
			}
		}
	}
	if cp.MixMonitorPreset >= 0 && cp.MixMonitorPreset < mixer.NumMixMonitor {
		e.applyMixMonitorPreset(cp.MixMonitorPreset, cp.Consoles)
	}

	for c := range e.st.Consoles {
		con := &e.st.Consoles[c]
		if !cp.Consoles[c] || con.LastPreset == p {
			continue
		}
		if con.LastPreset >= 0 {
			e.notifyConsole(c, funcnum.ConsolePresetBase+con.LastPreset)
		}
		con.LastPreset = p
		e.notifyConsole(c, funcnum.ConsolePresetBase+p)
	}
}

// applyMixMonitorPreset sets the buss masters and monitor inputs of the
// busses and monitors belonging to the given consoles.
func (e *Engine) applyMixMonitorPreset(p int, consoles [mixer.NumConsoles]bool) {
	mp := &e.st.MixMonitorPresets[p]
	for b := range mp.Buss {
		pb := &mp.Buss[b]
		c := e.st.Busses[b].Console
		if !pb.Use || c < 0 || c >= mixer.NumConsoles || !consoles[c] {
			continue
		}
		e.setBussMasterLevel(b, pb.Level)
		e.setBussMasterOn(b, pb.On)
	}
	for mon := range mp.Monitor {
		pm := &mp.Monitor[mon]
		c := e.st.Monitors[mon].Console
		if !pm.Use || c < 0 || c >= mixer.NumConsoles || !consoles[c] {
			continue
		}
		e.setMonitorInputs(mon, pm.Buss)
	}
}
