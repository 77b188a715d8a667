package engine

import (
	"axum-engine/debug"
	"axum-engine/funcnum"
	"axum-engine/mixer"
)

// setBussOnOff switches module m's send into buss b and applies the buss
// class rules: exclusive dump snapshots, comm talkback, interlock and
// monitor auto-switching.
func (e *Engine) setBussOnOff(m, b int, on bool) {
	e.switchBuss(m, b, on, true)
}

// switchBuss is setBussOnOff with the dump snapshot optional. Routing
// presets take their own snapshot and pass dump false; switching such a
// dump buss off then only releases it.
func (e *Engine) switchBuss(m, b int, on, dump bool) {
	mod := &e.st.Modules[m]
	send := &mod.Buss[b]
	if send.On == on {
		return
	}
	buss := &e.st.Busses[b]

	if buss.Exclusive == mixer.ExclusiveDump {
		if dump {
			e.exclusiveDump(m, b, on)
		} else if !on && mod.ExclusiveBuss == b {
			mod.ExclusiveBuss = -1
		}
	}

	send.On = on
	e.router.BussSend(m, b)
	e.notifySend(m, b)

	switch buss.Exclusive {
	case mixer.ExclusiveComm, mixer.ExclusiveCommNoCough:
		e.commBuss(m, b, on)
	}

	if on && buss.Interlock {
		for other := range e.st.Modules {
			if other != m && e.st.Modules[other].Buss[b].On {
				e.switchBuss(other, b, false, true)
			}
		}
	}

	e.monitorAutoSwitch(b, on)
	e.updateSourceActive(mod.SelectedSource)
	debug.Log("sensor", "module %d buss %d on=%v", m, b, on)
}

// exclusiveDump suppresses the other sends of an inactive module while it
// feeds a dump buss and restores them when the buss is switched off again.
func (e *Engine) exclusiveDump(m, b int, on bool) {
	mod := &e.st.Modules[m]
	if on {
		if mod.Active() || mod.ExclusiveBuss >= 0 {
			return
		}
		mod.ExclusiveBuss = b
		for other := range mod.Buss {
			if other == b {
				continue
			}
			mod.Buss[other].PreviousOn = mod.Buss[other].On
			if mod.Buss[other].On {
				mod.Buss[other].On = false
				e.router.BussSend(m, other)
				e.notifySend(m, other)
			}
		}
		return
	}
	if mod.ExclusiveBuss != b {
		return
	}
	mod.ExclusiveBuss = -1
	for other := range mod.Buss {
		if other == b || mod.Buss[other].On == mod.Buss[other].PreviousOn {
			continue
		}
		mod.Buss[other].On = mod.Buss[other].PreviousOn
		e.router.BussSend(m, other)
		e.notifySend(m, other)
	}
}

// commBuss routes the comm buss to the module source's related destination.
// Class 2 also marks the source as talking on comm, muting its normal sends.
func (e *Engine) commBuss(m, b int, on bool) {
	src := mixer.SourceOfMatrix(e.st.Modules[m].SelectedSource)
	if src < 0 {
		return
	}
	s := &e.st.Sources[src]
	if e.st.Busses[b].Exclusive == mixer.ExclusiveComm && s.Comm != on {
		s.Comm = on
		for _, mm := range e.st.ModulesOfSource(mixer.MatrixOfSource(src)) {
			e.router.BussSends(mm)
		}
	}
	if d := s.RelatedDestination; d >= 0 && d < mixer.NumDestinations {
		dst := &e.st.Destinations[d]
		if on {
			dst.CommBuss = b
			dst.CommActive = true
		} else if dst.CommBuss == b {
			dst.CommActive = false
		}
		e.router.DestinationSource(d)
		e.notifyDestination(d, funcnum.DestinationSource)
	}
}

// monitorAutoSwitch makes monitors follow auto-switch busses. When the last
// auto-switch buss of a monitor goes quiet it returns to its default input.
func (e *Engine) monitorAutoSwitch(b int, on bool) {
	for mon := range e.st.Monitors {
		mb := &e.st.Monitors[mon]
		if !mb.AutoSwitch[b] {
			continue
		}
		next := mb.Buss
		if on {
			if mb.Interlock {
				next = [mixer.NumMonitorInputs]bool{}
			}
			next[b] = true
		} else if !e.anyAutoSwitchActive(mon) {
			for i := 0; i < mixer.NumBusses; i++ {
				if mb.AutoSwitch[i] {
					next[i] = false
				}
			}
			if d := mb.DefaultSelection; d >= 0 && d < mixer.NumMonitorInputs {
				next[d] = true
			}
		}
		e.setMonitorInputs(mon, next)
	}
}

func (e *Engine) anyAutoSwitchActive(mon int) bool {
	mb := &e.st.Monitors[mon]
	for b := 0; b < mixer.NumBusses; b++ {
		if !mb.AutoSwitch[b] {
			continue
		}
		for m := range e.st.Modules {
			if e.st.Modules[m].Buss[b].On {
				return true
			}
		}
	}
	return false
}

func (e *Engine) setMonitorInputs(mon int, inputs [mixer.NumMonitorInputs]bool) {
	mb := &e.st.Monitors[mon]
	if inputs == mb.Buss {
		return
	}
	for i := range inputs {
		if inputs[i] != mb.Buss[i] {
			e.notifyMonitor(mon, funcnum.MonitorBussBase+i)
		}
	}
	mb.Buss = inputs
	e.router.MonitorBuss(mon)
}

// notifySend queues every display of module m's send into buss b,
// including the source-level buss switches of its source.
func (e *Engine) notifySend(m, b int) {
	e.notifyModule(m, funcnum.ModuleBuss(b, funcnum.SendOn))
	e.notifyModule(m, funcnum.ModuleBuss(b, funcnum.SendOff))
	e.notifyModule(m, funcnum.ModuleBuss(b, funcnum.SendOnOff))
	e.notifyPresetIndicators(m)
	if src := mixer.SourceOfMatrix(e.st.Modules[m].SelectedSource); src >= 0 {
		for kind := funcnum.SourceBussOn; kind <= funcnum.SourceBussOnOff; kind++ {
			e.notifySource(src, funcnum.SourceBuss(b, kind))
		}
	}
}

func (e *Engine) bussSensor(b, sub int, in input) {
	buss, ok := e.st.Buss(b)
	if !ok {
		return
	}
	switch {
	case sub >= funcnum.BussSelectBase && sub < funcnum.BussSelectBase+mixer.NumConsoles:
		if in.pressed() {
			e.toggleSelection(funcnum.Buss, sub-funcnum.BussSelectBase, b)
		}
		return
	case sub >= funcnum.BussTalkbackBase && sub < funcnum.BussTalkbackBase+mixer.NumTalkbacks:
		t := sub - funcnum.BussTalkbackBase
		if v, ok := in.toggle(buss.Talkback[t]); ok && v != buss.Talkback[t] {
			buss.Talkback[t] = v
			e.notifyBuss(b, sub)
			e.notifyBuss(b, funcnum.BussDim)
		}
		return
	}

	switch sub {
	case funcnum.BussMasterLevel:
		if v, ok := (numeric{kind: stepMaster, lo: mixer.FaderOff, hi: 0}).apply(buss.MasterLevel, in); ok {
			e.setBussMasterLevel(b, v)
		}
	case funcnum.BussMasterLevelReset:
		if in.pressed() {
			e.setBussMasterLevel(b, 0)
		}
	case funcnum.BussMasterOn:
		if v, ok := in.set(buss.MasterOn, true); ok {
			e.setBussMasterOn(b, v)
		}
	case funcnum.BussMasterOff:
		if v, ok := in.set(buss.MasterOn, false); ok {
			e.setBussMasterOn(b, v)
		}
	case funcnum.BussMasterOnOff:
		if v, ok := in.toggle(buss.MasterOn); ok {
			e.setBussMasterOn(b, v)
		}
	case funcnum.BussMasterPre:
		if v, ok := in.toggle(buss.PreModuleLevel); ok && v != buss.PreModuleLevel {
			buss.PreModuleLevel = v
			for m := range e.st.Modules {
				e.router.BussSend(m, b)
			}
			e.notifyBuss(b, sub)
		}
	case funcnum.BussReset:
		if !in.pressed() {
			return
		}
		for m := range e.st.Modules {
			if e.st.Modules[m].Buss[b].On {
				e.setBussOnOff(m, b, false)
			}
		}
	default:
		debug.Log("sensor", "buss %d: %s is display only", b, funcnum.SubName(funcnum.Buss, sub))
	}
}

func (e *Engine) setBussMasterLevel(b int, v float64) {
	buss := &e.st.Busses[b]
	if v == buss.MasterLevel {
		return
	}
	buss.MasterLevel = v
	e.router.BussMaster(b)
	e.notifyBuss(b, funcnum.BussMasterLevel)
	e.notifyMasterControl(funcnum.Buss, b, funcnum.BussMasterLevel)
}

func (e *Engine) setBussMasterOn(b int, on bool) {
	buss := &e.st.Busses[b]
	if on == buss.MasterOn {
		return
	}
	buss.MasterOn = on
	e.router.BussMaster(b)
	e.notifyBuss(b, funcnum.BussMasterOn)
	e.notifyBuss(b, funcnum.BussMasterOff)
	e.notifyBuss(b, funcnum.BussMasterOnOff)
}

// notifyMasterControl queues the master control display of every console
// whose master mode drives d/i/sub.
func (e *Engine) notifyMasterControl(d funcnum.Domain, i, sub int) {
	for c := range e.st.Consoles {
		td, ti, tsub, ok := funcnum.MasterModeTarget(e.st.Consoles[c].MasterControlMode)
		if ok && td == d && ti == i && tsub == sub {
			e.notifyConsole(c, funcnum.ConsoleMasterControl)
		}
	}
}

func (e *Engine) monitorSensor(mon, sub int, in input) {
	mb, ok := e.st.Monitor(mon)
	if !ok {
		return
	}
	switch {
	case sub >= funcnum.MonitorSelectBase && sub < funcnum.MonitorSelectBase+mixer.NumConsoles:
		if in.pressed() {
			e.toggleSelection(funcnum.MonitorBuss, sub-funcnum.MonitorSelectBase, mon)
		}
		return
	case sub >= funcnum.MonitorBussBase && sub < funcnum.MonitorBussBase+mixer.NumMonitorInputs:
		i := sub - funcnum.MonitorBussBase
		v, ok := in.toggle(mb.Buss[i])
		if !ok || v == mb.Buss[i] {
			return
		}
		next := mb.Buss
		if v && mb.Interlock {
			next = [mixer.NumMonitorInputs]bool{}
		}
		next[i] = v
		e.setMonitorInputs(mon, next)
		return
	case sub >= funcnum.MonitorTalkbackBase && sub < funcnum.MonitorTalkbackBase+mixer.NumTalkbacks:
		t := sub - funcnum.MonitorTalkbackBase
		if v, ok := in.toggle(mb.Talkback[t]); ok && v != mb.Talkback[t] {
			mb.Talkback[t] = v
			e.router.MonitorBuss(mon)
			e.notifyMonitor(mon, sub)
		}
		return
	}

	var flag *bool
	switch sub {
	case funcnum.MonitorMute:
		flag = &mb.Mute
	case funcnum.MonitorDim:
		flag = &mb.Dim
	case funcnum.MonitorMono:
		flag = &mb.Mono
	case funcnum.MonitorPhase:
		flag = &mb.Phase
	case funcnum.MonitorPhonesLevel:
		e.monitorLevel(mon, sub, &mb.PhonesLevel, in)
		return
	case funcnum.MonitorSpeakerLevel:
		e.monitorLevel(mon, sub, &mb.SpeakerLevel, in)
		return
	default:
		debug.Log("sensor", "monitor %d: %s is display only", mon, funcnum.SubName(funcnum.MonitorBuss, sub))
		return
	}
	if v, ok := in.toggle(*flag); ok && v != *flag {
		*flag = v
		e.router.MonitorBuss(mon)
		e.notifyMonitor(mon, sub)
	}
}

func (e *Engine) monitorLevel(mon, sub int, p *float64, in input) {
	v, ok := (numeric{kind: stepMaster, lo: mixer.FaderOff, hi: 0}).apply(*p, in)
	if !ok || v == *p {
		return
	}
	*p = v
	e.router.MonitorBuss(mon)
	e.notifyMonitor(mon, sub)
	e.notifyMasterControl(funcnum.MonitorBuss, mon, sub)
}
