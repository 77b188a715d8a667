package engine

import (
	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
)

// Source sub-functions mirrored on every module carrying the source.
var sourceMirror = map[int]int{
	funcnum.SourcePhantom:   funcnum.ModuleSourcePhantom,
	funcnum.SourcePad:       funcnum.ModuleSourcePad,
	funcnum.SourceGain:      funcnum.ModuleSourceGain,
	funcnum.SourceStart:     funcnum.ModuleSourceStart,
	funcnum.SourceStop:      funcnum.ModuleSourceStop,
	funcnum.SourceStartStop: funcnum.ModuleSourceStartStop,
	funcnum.SourceAlert:     funcnum.ModuleSourceAlert,
	funcnum.SourceCough:     funcnum.ModuleCough,
}

func (e *Engine) sourceSensor(src, sub int, in input) {
	s, ok := e.st.Source(src)
	if !ok {
		return
	}
	ms := mixer.MatrixOfSource(src)

	if sub >= funcnum.SourceSelectBase && sub < funcnum.SourceSelectBase+mixer.NumConsoles {
		if in.pressed() {
			e.toggleSelection(funcnum.Source, sub-funcnum.SourceSelectBase, src)
		}
		return
	}
	if b, kind, ok := funcnum.SplitSourceBuss(sub); ok {
		for _, m := range e.st.ModulesOfSource(ms) {
			cur := e.st.Modules[m].Buss[b].On
			var v bool
			switch kind {
			case funcnum.SourceBussOn:
				v, ok = in.set(cur, true)
			case funcnum.SourceBussOff:
				v, ok = in.set(cur, false)
			default:
				v, ok = in.toggle(cur)
			}
			if ok {
				e.setBussOnOff(m, b, v)
			}
		}
		return
	}

	switch sub {
	case funcnum.SourceModuleOn, funcnum.SourceModuleOff, funcnum.SourceModuleOnOff:
		for _, m := range e.st.ModulesOfSource(ms) {
			cur := e.st.Modules[m].On
			var v bool
			switch sub {
			case funcnum.SourceModuleOn:
				v, ok = in.set(cur, true)
			case funcnum.SourceModuleOff:
				v, ok = in.set(cur, false)
			default:
				v, ok = in.toggle(cur)
			}
			if ok {
				e.setModuleOn(m, v)
			}
		}
	case funcnum.SourceStart:
		if v, ok := in.set(s.Start, true); ok {
			e.setSourceStart(src, v)
		}
	case funcnum.SourceStop:
		if v, ok := in.set(s.Stop, true); ok {
			e.setSourceStop(src, v)
		}
	case funcnum.SourceStartStop:
		if v, ok := in.toggle(s.Start); ok {
			e.setSourceStart(src, v)
			e.setSourceStop(src, !v)
		}
	case funcnum.SourcePhantom:
		e.sourceFlag(src, sub, &s.Phantom, in)
	case funcnum.SourcePad:
		e.sourceFlag(src, sub, &s.Pad, in)
	case funcnum.SourceAlert:
		e.sourceFlag(src, sub, &s.Alert, in)
	case funcnum.SourceCough:
		if v, ok := in.toggle(s.Cough); ok && v != s.Cough {
			s.Cough = v
			for _, m := range e.st.ModulesOfSource(ms) {
				e.router.BussSends(m)
			}
			e.sourceChanged(src, sub)
		}
	case funcnum.SourceGain:
		v, ok := (numeric{kind: stepTenth, lo: mixer.MinSourceGain, hi: mixer.MaxSourceGain}).apply(s.Gain, in)
		if ok {
			e.setSourceGain(src, v)
		}
	case funcnum.SourceGainReset:
		if in.pressed() {
			e.setSourceGain(src, s.DefaultGain)
		}
	default:
		debug.Log("sensor", "source %d: %s is display only", src, funcnum.SubName(funcnum.Source, sub))
	}
}

func (e *Engine) sourceFlag(src, sub int, flag *bool, in input) {
	v, ok := in.toggle(*flag)
	if !ok || v == *flag {
		return
	}
	*flag = v
	e.sourceChanged(src, sub)
}

func (e *Engine) setSourceGain(src int, v float64) {
	s := &e.st.Sources[src]
	if v == s.Gain {
		return
	}
	s.Gain = v
	e.sourceChanged(src, funcnum.SourceGain)
}

func (e *Engine) setSourceStart(src int, v bool) {
	s := &e.st.Sources[src]
	if v == s.Start {
		return
	}
	s.Start = v
	e.sourceChanged(src, funcnum.SourceStart)
	e.sourceChanged(src, funcnum.SourceStartStop)
}

func (e *Engine) setSourceStop(src int, v bool) {
	s := &e.st.Sources[src]
	if v == s.Stop {
		return
	}
	s.Stop = v
	e.sourceChanged(src, funcnum.SourceStop)
	e.sourceChanged(src, funcnum.SourceStartStop)
}

// sourceChanged queues sub on the source and its mirror on every module
// carrying the source. The source function itself reaches the I/O card.
func (e *Engine) sourceChanged(src, sub int) {
	e.notifySource(src, sub)
	msub, ok := sourceMirror[sub]
	if !ok {
		return
	}
	for _, m := range e.st.ModulesOfSource(mixer.MatrixOfSource(src)) {
		e.moduleChanged(m, msub)
	}
}

// sourceActive reports whether any module carrying src feeds an enabled
// buss send: live modules through any send, others through pre-module sends.
func (e *Engine) sourceActive(src int) bool {
	for _, m := range e.st.ModulesOfSource(mixer.MatrixOfSource(src)) {
		mod := &e.st.Modules[m]
		for b := range mod.Buss {
			if mod.Buss[b].On && (mod.Active() || e.st.Busses[b].PreModuleOn) {
				return true
			}
		}
	}
	return false
}

// updateSourceActive recomputes the active flag of matrix source ms and
// everything that follows it: start/stop, redlights and monitor mutes.
func (e *Engine) updateSourceActive(ms int) {
	src := mixer.SourceOfMatrix(ms)
	if src < 0 {
		return
	}
	s := &e.st.Sources[src]
	active := e.sourceActive(src)
	if active == s.Active {
		return
	}
	s.Active = active
	e.notifySource(src, funcnum.SourceActive)
	for _, m := range e.st.ModulesOfSource(ms) {
		e.notifyModule(m, funcnum.ModuleActive)
	}

	if active && s.StartOnActive {
		e.setSourceStart(src, true)
		e.setSourceStop(src, false)
	}
	if !active && s.StopOnInactive {
		e.setSourceStart(src, false)
		e.setSourceStop(src, true)
	}
	for r, on := range s.Redlight {
		if on {
			e.notifyGlobal(funcnum.GlobalRedlightBase + r)
		}
	}
	e.updateAutoMute()
}

// updateAutoMute mutes every monitor that listens to an active source
// flagged for it.
func (e *Engine) updateAutoMute() {
	if !e.st.Global.AutoMonitorMute {
		return
	}
	for mon := range e.st.Monitors {
		mute := false
		for src := range e.st.Sources {
			if e.st.Sources[src].Active && e.st.Sources[src].MonitorMute[mon] {
				mute = true
				break
			}
		}
		if mute != e.st.Monitors[mon].AutoMute {
			e.st.Monitors[mon].AutoMute = mute
			e.router.MonitorBuss(mon)
			e.notifyMonitor(mon, funcnum.MonitorMute)
		}
	}
}

// redlightOn reports whether redlight r is on manually or through an
// active source.
func (e *Engine) redlightOn(r int) bool {
	if e.st.Global.Redlight[r] {
		return true
	}
	for src := range e.st.Sources {
		if e.st.Sources[src].Active && e.st.Sources[src].Redlight[r] {
			return true
		}
	}
	return false
}

func (e *Engine) destinationSensor(d, sub int, in input) {
	dst, ok := e.st.Destination(d)
	if !ok {
		return
	}
	switch {
	case sub >= funcnum.DestinationSelectBase && sub < funcnum.DestinationSelectBase+mixer.NumConsoles:
		if in.pressed() {
			e.toggleSelection(funcnum.Destination, sub-funcnum.DestinationSelectBase, d)
		}
		return
	case sub >= funcnum.DestinationTalkbackBase && sub < funcnum.DestinationTalkbackBase+mixer.NumTalkbacks:
		t := sub - funcnum.DestinationTalkbackBase
		if v, ok := in.toggle(dst.Talkback[t]); ok && v != dst.Talkback[t] {
			dst.Talkback[t] = v
			e.router.DestinationSource(d)
			e.notifyDestination(d, sub)
			e.notifyDestination(d, funcnum.DestinationSource)
		}
		return
	}

	switch sub {
	case funcnum.DestinationSource:
		next := dst.Source
		switch in.typ() {
		case fieldbus.SInt:
			next = e.st.MatrixSources.Step(dst.Source, in.delta(), -1, nil)
		case fieldbus.UInt:
			next = int(in.value.Int)
		}
		if next == dst.Source || (next != 0 && mixer.MatrixKind(next) == mixer.MatrixNone) {
			return
		}
		dst.Source = next
		e.router.DestinationSource(d)
		e.notifyDestination(d, sub)
	case funcnum.DestinationLevel:
		v, ok := (numeric{kind: stepLevel, lo: mixer.FaderOff, hi: mixer.MaxLevel}).apply(dst.Level, in)
		if ok && v != dst.Level {
			dst.Level = v
			e.router.Output(d)
			e.notifyDestination(d, sub)
		}
	case funcnum.DestinationMute:
		e.destinationFlag(d, sub, &dst.Mute, in)
	case funcnum.DestinationDim:
		e.destinationFlag(d, sub, &dst.Dim, in)
	case funcnum.DestinationMono:
		e.destinationFlag(d, sub, &dst.Mono, in)
	case funcnum.DestinationPhase:
		e.destinationFlag(d, sub, &dst.Phase, in)
	case funcnum.DestinationRouting:
		next := int(dst.Routing)
		switch in.typ() {
		case fieldbus.SInt:
			next = mixer.ClampInt(next+in.delta(), 0, int(mixer.NumRoutings)-1)
		case fieldbus.UInt:
			next = mixer.ClampInt(int(in.value.Int), 0, int(mixer.NumRoutings)-1)
		case fieldbus.State:
			if !in.press() {
				return
			}
			next = (next + 1) % int(mixer.NumRoutings)
		}
		if mixer.Routing(next) == dst.Routing {
			return
		}
		dst.Routing = mixer.Routing(next)
		e.router.DestinationSource(d)
		e.notifyDestination(d, sub)
	case funcnum.DestinationMixMinus:
		if v, ok := in.toggle(dst.MixMinusActive); ok && v != dst.MixMinusActive {
			dst.MixMinusActive = v
			e.router.DestinationSource(d)
			e.notifyDestination(d, sub)
			e.notifyDestination(d, funcnum.DestinationSource)
		}
	default:
		debug.Log("sensor", "destination %d: %s is display only", d, funcnum.SubName(funcnum.Destination, sub))
	}
}

func (e *Engine) destinationFlag(d, sub int, flag *bool, in input) {
	v, ok := in.toggle(*flag)
	if !ok || v == *flag {
		return
	}
	*flag = v
	e.router.Output(d)
	e.notifyDestination(d, sub)
}
