package engine

import (
	"fmt"

	"axum-engine/funcnum"
	"axum-engine/mixer"
)

func boolDisplay(on bool) display  { return display{kind: showBool, on: on, text: onText(on)} }
func textDisplay(s string) display { return display{kind: showText, text: s, on: s != ""} }

func onText(on bool) string {
	if on {
		return "  On  "
	}
	return "  Off "
}

func levelDisplay(db float64) display {
	return display{kind: showLevel, num: db, on: db > mixer.FaderOff, text: levelText(db)}
}

func masterDisplay(db float64) display {
	return display{kind: showMaster, num: db, on: db > mixer.FaderOff, text: levelText(db)}
}

func numberDisplay(v, lo, hi float64, text string) display {
	return display{kind: showNumber, num: v, lo: lo, hi: hi, on: v != 0, text: text}
}

func meterDisplay(db float64) display {
	return display{kind: showMeter, num: db, on: db > mixer.ActiveThreshold, suppress: true, text: levelText(db)}
}

// levelText formats a level such as "-12.3dB", or "  Off  " at fader off.
func levelText(db float64) string {
	if db <= mixer.FaderOff {
		return "  Off  "
	}
	return fmt.Sprintf("%5.1fdB", db)
}

// freqText formats " 440Hz" below 1 kHz and " 4.0kHz" above.
func freqText(f float64) string {
	if f < 1000 {
		return fmt.Sprintf("%4.0fHz", f)
	}
	return fmt.Sprintf("%4.1fkHz", f/1000)
}

// ratioText formats a dynamics amount as a compression ratio such as "1:2.5".
func ratioText(amount float64) string {
	return fmt.Sprintf("1:%.1f", 1+amount/20)
}

func panText(pos int) string {
	switch {
	case pos == mixer.PanCenter:
		return "  C  "
	case pos < mixer.PanCenter:
		return fmt.Sprintf("L%3d", (mixer.PanCenter-pos)*100/mixer.PanCenter)
	}
	return fmt.Sprintf("R%3d", (pos-mixer.PanCenter)*100/(mixer.PanMax-mixer.PanCenter))
}

func gainText(db float64) string { return fmt.Sprintf("%5.1fdB", db) }

func panDisplay(pos int) display {
	return numberDisplay(float64(pos), 0, mixer.PanMax, panText(pos))
}

// display returns the current value of a concrete function.
func (e *Engine) display(f funcnum.Func) (display, bool) {
	i := f.Instance.Index
	switch f.Domain {
	case funcnum.Module:
		return e.moduleDisplay(i, f.Sub)
	case funcnum.Buss:
		return e.bussDisplay(i, f.Sub)
	case funcnum.MonitorBuss:
		return e.monitorDisplay(i, f.Sub)
	case funcnum.Source:
		return e.sourceDisplay(i, f.Sub)
	case funcnum.Destination:
		return e.destinationDisplay(i, f.Sub)
	case funcnum.Console:
		return e.consoleDisplay(i, f.Sub)
	case funcnum.Global:
		return e.globalDisplay(f.Sub)
	}
	return display{}, false
}

func (e *Engine) moduleDisplay(m, sub int) (display, bool) {
	mod, ok := e.st.Module(m)
	if !ok {
		return display{}, false
	}
	if band, kind, ok := funcnum.SplitModuleEQ(sub); ok {
		eq := &mod.EQ[band]
		switch kind - kind%2 {
		case funcnum.EQLevel:
			return numberDisplay(eq.Level, -eq.Range, eq.Range, gainText(eq.Level)), true
		case funcnum.EQFrequency:
			return numberDisplay(eq.Frequency, mixer.MinFrequency, mixer.MaxFrequency, freqText(eq.Frequency)), true
		case funcnum.EQBandwidth:
			return numberDisplay(eq.Bandwidth, 0.1, 10, fmt.Sprintf("%4.1f Q", eq.Bandwidth)), true
		case funcnum.EQType:
			return numberDisplay(float64(eq.Type), 0, float64(mixer.NumEQTypes-1), eq.Type.String()), true
		}
	}
	if b, kind, ok := funcnum.SplitModuleBuss(sub); ok {
		send := &mod.Buss[b]
		switch kind {
		case funcnum.SendLevel, funcnum.SendLevelReset:
			return levelDisplay(send.Level), true
		case funcnum.SendOn, funcnum.SendOnOff:
			return boolDisplay(send.On), true
		case funcnum.SendOff:
			return boolDisplay(!send.On), true
		case funcnum.SendPre:
			return boolDisplay(send.Pre), true
		case funcnum.SendBalance, funcnum.SendBalanceReset:
			return panDisplay(send.Balance), true
		}
	}
	switch {
	case sub >= funcnum.ModulePresetBase && sub < funcnum.ModulePresetBase+funcnum.NumModulePresets:
		d := boolDisplay(e.modulePresetActive(m, sub-funcnum.ModulePresetBase))
		d.suppress = true
		return d, true
	case sub >= funcnum.ModuleControlBase && sub < funcnum.ModuleControlBase+mixer.NumConsoles:
		return e.controlDisplay(m, sub-funcnum.ModuleControlBase), true
	case sub >= funcnum.ModuleControlLabelBase && sub < funcnum.ModuleControlLabelBase+mixer.NumConsoles:
		return textDisplay(funcnum.ModeName(e.st.Consoles[sub-funcnum.ModuleControlLabelBase].ControlMode)), true
	case sub >= funcnum.ModuleControlResetBase && sub < funcnum.ModuleControlResetBase+mixer.NumConsoles:
		return boolDisplay(false), true
	case sub >= funcnum.ModuleSelectBase && sub < funcnum.ModuleSelectBase+mixer.NumConsoles:
		return boolDisplay(e.st.Consoles[sub-funcnum.ModuleSelectBase].Selected[mixer.SelectModule] == m), true
	}

	if ssub, ok := moduleSourceActions[sub]; ok {
		src := mixer.SourceOfMatrix(mod.SelectedSource)
		if src < 0 {
			return boolDisplay(false), true
		}
		return e.sourceDisplay(src, ssub)
	}

	switch sub {
	case funcnum.ModuleLabel:
		return textDisplay(mod.Label), true
	case funcnum.ModuleSource:
		ms := mod.SelectedSource
		if mod.WaitingSource >= 0 {
			ms = mod.WaitingSource
		}
		return numberDisplay(float64(ms), 0, mixer.NumMatrixSources-1, e.st.MatrixLabel(ms)), true
	case funcnum.ModuleProcessingPreset:
		p := mod.SelectedPreset
		if mod.WaitingPreset >= 0 {
			p = mod.WaitingPreset
		}
		return numberDisplay(float64(p), 0, float64(len(e.st.ProcessingPresets)), e.presetLabel(p)), true
	case funcnum.ModuleRoutingPreset:
		p := mod.RoutingPreset
		if mod.WaitingRoutingPreset >= 0 {
			p = mod.WaitingRoutingPreset
		}
		label := "None"
		if p > 0 {
			label = mod.RoutingPresets[p-1].Label
		}
		return numberDisplay(float64(p), 0, mixer.NumRoutingPresets, label), true
	case funcnum.ModuleInsertSource:
		return numberDisplay(float64(mod.InsertSource), 0, mixer.NumMatrixSources-1, e.st.MatrixLabel(mod.InsertSource)), true
	case funcnum.ModuleInsertOnOff:
		return boolDisplay(mod.InsertOn), true
	case funcnum.ModulePhase:
		return boolDisplay(mod.Phase), true
	case funcnum.ModuleMono:
		return boolDisplay(mod.Mono), true
	case funcnum.ModuleGain, funcnum.ModuleGainReset:
		return numberDisplay(mod.Gain, mixer.MinModuleGain, mixer.MaxModuleGain, gainText(mod.Gain)), true
	case funcnum.ModuleLowCutFrequency:
		return numberDisplay(mod.LowCutFrequency, mixer.MinFrequency, mixer.MaxFrequency, freqText(mod.LowCutFrequency)), true
	case funcnum.ModuleLowCutOnOff:
		return boolDisplay(mod.LowCutOn), true
	case funcnum.ModuleEQOnOff:
		return boolDisplay(mod.EQOn), true
	case funcnum.ModuleDynamicsAmount:
		return numberDisplay(mod.Dynamics.Amount, 0, 100, ratioText(mod.Dynamics.Amount)), true
	case funcnum.ModuleDynamicsThreshold:
		return numberDisplay(mod.Dynamics.Threshold, -30, 0, gainText(mod.Dynamics.Threshold)), true
	case funcnum.ModuleExpanderThreshold:
		return numberDisplay(mod.Dynamics.ExpanderThreshold, -80, 0, gainText(mod.Dynamics.ExpanderThreshold)), true
	case funcnum.ModuleDynamicsOnOff:
		return boolDisplay(mod.Dynamics.On), true
	case funcnum.ModulePan, funcnum.ModulePanReset:
		return panDisplay(mod.Pan), true
	case funcnum.ModuleLevel, funcnum.ModuleLevelReset:
		return levelDisplay(mod.FaderLevel), true
	case funcnum.ModuleOn, funcnum.ModuleOnOff:
		return boolDisplay(mod.On), true
	case funcnum.ModuleOff:
		return boolDisplay(!mod.On), true
	case funcnum.ModuleOverrule:
		return boolDisplay(mod.OverruleActive), true
	case funcnum.ModuleActive:
		d := boolDisplay(mod.Active())
		d.suppress = true
		return d, true
	case funcnum.ModuleMeterLeft:
		return meterDisplay(mod.Meter[0]), true
	case funcnum.ModuleMeterRight:
		return meterDisplay(mod.Meter[1]), true
	}
	return display{}, false
}

func (e *Engine) presetLabel(p int) string {
	if p == 0 {
		return "Default"
	}
	if preset, ok := e.st.ProcessingPreset(p); ok {
		return preset.Label
	}
	return "?"
}

// controlDisplay is the value the shared control of console c shows on
// module m.
func (e *Engine) controlDisplay(m, c int) display {
	mod := &e.st.Modules[m]
	switch mode := e.st.Consoles[c].ControlMode; mode {
	case funcnum.ModeNone:
		return textDisplay("")
	case funcnum.ModeSource:
		ms := mod.ScratchSource[c]
		if ms < 0 {
			ms = mod.SelectedSource
		}
		return numberDisplay(float64(ms), 0, mixer.NumMatrixSources-1, e.st.MatrixLabel(ms))
	case funcnum.ModeProcessingPreset:
		p := mod.ScratchPreset[c]
		if p < 0 {
			p = mod.SelectedPreset
		}
		return numberDisplay(float64(p), 0, float64(len(e.st.ProcessingPresets)), e.presetLabel(p))
	default:
		sub, _ := funcnum.ModeSub(mode)
		d, _ := e.moduleDisplay(m, sub)
		return d
	}
}

func (e *Engine) bussDisplay(b, sub int) (display, bool) {
	buss, ok := e.st.Buss(b)
	if !ok {
		return display{}, false
	}
	switch {
	case sub >= funcnum.BussSelectBase && sub < funcnum.BussSelectBase+mixer.NumConsoles:
		return boolDisplay(e.st.Consoles[sub-funcnum.BussSelectBase].Selected[mixer.SelectBuss] == b), true
	case sub >= funcnum.BussTalkbackBase && sub < funcnum.BussTalkbackBase+mixer.NumTalkbacks:
		return boolDisplay(buss.Talkback[sub-funcnum.BussTalkbackBase]), true
	}
	switch sub {
	case funcnum.BussLabel:
		return textDisplay(e.st.MatrixLabel(mixer.MatrixBussBase + b)), true
	case funcnum.BussMasterLevel, funcnum.BussMasterLevelReset:
		return masterDisplay(buss.MasterLevel), true
	case funcnum.BussMasterOn, funcnum.BussMasterOnOff:
		return boolDisplay(buss.MasterOn), true
	case funcnum.BussMasterOff:
		return boolDisplay(!buss.MasterOn), true
	case funcnum.BussMasterPre:
		return boolDisplay(buss.PreModuleLevel), true
	case funcnum.BussReset:
		return boolDisplay(false), true
	case funcnum.BussMeterLeft:
		return meterDisplay(buss.Meter[0]), true
	case funcnum.BussMeterRight:
		return meterDisplay(buss.Meter[1]), true
	case funcnum.BussDim:
		dim := false
		for t, on := range buss.Talkback {
			if on && e.st.Global.Talkback[t] {
				dim = true
				break
			}
		}
		d := boolDisplay(dim)
		d.suppress = true
		return d, true
	}
	return display{}, false
}

func (e *Engine) monitorDisplay(mon, sub int) (display, bool) {
	mb, ok := e.st.Monitor(mon)
	if !ok {
		return display{}, false
	}
	switch {
	case sub >= funcnum.MonitorSelectBase && sub < funcnum.MonitorSelectBase+mixer.NumConsoles:
		return boolDisplay(e.st.Consoles[sub-funcnum.MonitorSelectBase].Selected[mixer.SelectMonitor] == mon), true
	case sub >= funcnum.MonitorBussBase && sub < funcnum.MonitorBussBase+mixer.NumMonitorInputs:
		return boolDisplay(mb.Buss[sub-funcnum.MonitorBussBase]), true
	case sub >= funcnum.MonitorTalkbackBase && sub < funcnum.MonitorTalkbackBase+mixer.NumTalkbacks:
		return boolDisplay(mb.Talkback[sub-funcnum.MonitorTalkbackBase]), true
	}
	switch sub {
	case funcnum.MonitorLabel:
		return textDisplay(e.st.MatrixLabel(mixer.MatrixMonitorBase + mon)), true
	case funcnum.MonitorMute:
		return boolDisplay(mb.Mute || mb.AutoMute), true
	case funcnum.MonitorDim:
		return boolDisplay(mb.Dim), true
	case funcnum.MonitorMono:
		return boolDisplay(mb.Mono), true
	case funcnum.MonitorPhase:
		return boolDisplay(mb.Phase), true
	case funcnum.MonitorPhonesLevel:
		return masterDisplay(mb.PhonesLevel), true
	case funcnum.MonitorSpeakerLevel:
		return masterDisplay(mb.SpeakerLevel), true
	case funcnum.MonitorMeterLeft:
		return meterDisplay(mb.Meter[0]), true
	case funcnum.MonitorMeterRight:
		return meterDisplay(mb.Meter[1]), true
	}
	return display{}, false
}

func (e *Engine) sourceDisplay(src, sub int) (display, bool) {
	s, ok := e.st.Source(src)
	if !ok {
		return display{}, false
	}
	ms := mixer.MatrixOfSource(src)
	if sub >= funcnum.SourceSelectBase && sub < funcnum.SourceSelectBase+mixer.NumConsoles {
		return boolDisplay(e.st.Consoles[sub-funcnum.SourceSelectBase].Selected[mixer.SelectSource] == src), true
	}
	if b, kind, ok := funcnum.SplitSourceBuss(sub); ok {
		on := false
		for _, m := range e.st.ModulesOfSource(ms) {
			if e.st.Modules[m].Buss[b].On {
				on = true
				break
			}
		}
		if kind == funcnum.SourceBussOff {
			on = !on
		}
		return boolDisplay(on), true
	}
	switch sub {
	case funcnum.SourceLabel:
		return textDisplay(e.st.MatrixLabel(ms)), true
	case funcnum.SourceModuleOn, funcnum.SourceModuleOnOff, funcnum.SourceModuleOff:
		on := false
		for _, m := range e.st.ModulesOfSource(ms) {
			if e.st.Modules[m].On {
				on = true
				break
			}
		}
		if sub == funcnum.SourceModuleOff {
			on = !on
		}
		return boolDisplay(on), true
	case funcnum.SourceStart, funcnum.SourceStartStop:
		return boolDisplay(s.Start), true
	case funcnum.SourceStop:
		return boolDisplay(s.Stop), true
	case funcnum.SourcePhantom:
		return boolDisplay(s.Phantom), true
	case funcnum.SourcePad:
		return boolDisplay(s.Pad), true
	case funcnum.SourceGain, funcnum.SourceGainReset:
		return numberDisplay(s.Gain, mixer.MinSourceGain, mixer.MaxSourceGain, gainText(s.Gain)), true
	case funcnum.SourceAlert:
		return boolDisplay(s.Alert), true
	case funcnum.SourceCough:
		return boolDisplay(s.Cough), true
	case funcnum.SourceActive:
		d := boolDisplay(s.Active)
		d.suppress = true
		return d, true
	}
	return display{}, false
}

func (e *Engine) destinationDisplay(d, sub int) (display, bool) {
	dst, ok := e.st.Destination(d)
	if !ok {
		return display{}, false
	}
	switch {
	case sub >= funcnum.DestinationSelectBase && sub < funcnum.DestinationSelectBase+mixer.NumConsoles:
		return boolDisplay(e.st.Consoles[sub-funcnum.DestinationSelectBase].Selected[mixer.SelectDestination] == d), true
	case sub >= funcnum.DestinationTalkbackBase && sub < funcnum.DestinationTalkbackBase+mixer.NumTalkbacks:
		return boolDisplay(dst.Talkback[sub-funcnum.DestinationTalkbackBase]), true
	}
	switch sub {
	case funcnum.DestinationLabel:
		return textDisplay(dst.Label), true
	case funcnum.DestinationSource:
		feed := e.router.DestinationFeed(d)
		return numberDisplay(float64(feed), 0, mixer.NumMatrixSources-1, e.st.MatrixLabel(feed)), true
	case funcnum.DestinationLevel:
		return levelDisplay(dst.Level), true
	case funcnum.DestinationMute:
		return boolDisplay(dst.Mute), true
	case funcnum.DestinationDim:
		return boolDisplay(dst.Dim), true
	case funcnum.DestinationMono:
		return boolDisplay(dst.Mono), true
	case funcnum.DestinationPhase:
		return boolDisplay(dst.Phase), true
	case funcnum.DestinationRouting:
		return numberDisplay(float64(dst.Routing), 0, float64(mixer.NumRoutings-1), dst.Routing.String()), true
	case funcnum.DestinationMixMinus:
		return boolDisplay(dst.MixMinusActive), true
	case funcnum.DestinationMeterLeft:
		return meterDisplay(dst.Meter[0]), true
	case funcnum.DestinationMeterRight:
		return meterDisplay(dst.Meter[1]), true
	}
	return display{}, false
}

func (e *Engine) consoleDisplay(c, sub int) (display, bool) {
	con, ok := e.st.Console(c)
	if !ok {
		return display{}, false
	}
	switch {
	case sub >= funcnum.ConsoleControlModeBase && sub < funcnum.ConsoleControlModeBase+funcnum.NumControlModes:
		return boolDisplay(con.ControlMode == sub-funcnum.ConsoleControlModeBase), true
	case sub >= funcnum.ConsoleMasterControlModeBase && sub < funcnum.ConsoleMasterControlModeBase+funcnum.NumMasterControlModes:
		return boolDisplay(con.MasterControlMode == sub-funcnum.ConsoleMasterControlModeBase), true
	case sub >= funcnum.ConsolePresetBase && sub < funcnum.ConsolePresetBase+mixer.NumConsolePresets:
		return boolDisplay(con.LastPreset == sub-funcnum.ConsolePresetBase), true
	}
	switch sub {
	case funcnum.ConsoleMasterControl:
		d, i, tsub, ok := funcnum.MasterModeTarget(con.MasterControlMode)
		if !ok {
			return textDisplay(""), true
		}
		return e.display(funcnum.Func{Domain: d, Instance: funcnum.Concrete(i), Sub: tsub})
	case funcnum.ConsoleModuleSelect:
		return e.selectionDisplay(con, mixer.SelectModule, funcnum.NumModules), true
	case funcnum.ConsoleBussSelect:
		return e.selectionDisplay(con, mixer.SelectBuss, funcnum.NumBusses), true
	case funcnum.ConsoleMonitorSelect:
		return e.selectionDisplay(con, mixer.SelectMonitor, funcnum.NumMonitors), true
	case funcnum.ConsoleSourceSelect:
		return e.selectionDisplay(con, mixer.SelectSource, funcnum.NumSources), true
	case funcnum.ConsoleDestinationSelect:
		return e.selectionDisplay(con, mixer.SelectDestination, funcnum.NumDestinations), true
	case funcnum.ConsoleChipcardUser, funcnum.ConsoleUpdateUser:
		return textDisplay(con.Username), true
	case funcnum.ConsoleChipcardPass, funcnum.ConsoleUpdateUserPass:
		return textDisplay(con.Password), true
	case funcnum.ConsoleUserLevel:
		return numberDisplay(float64(con.UserLevel), 0, 7, fmt.Sprintf("%d", con.UserLevel)), true
	case funcnum.ConsoleLogout:
		return boolDisplay(con.Username == ""), true
	}
	return display{}, false
}

func (e *Engine) selectionDisplay(con *mixer.Console, kind, n int) display {
	sel := con.Selected[kind]
	if sel < 0 {
		return textDisplay("")
	}
	return numberDisplay(float64(sel), 0, float64(n-1), fmt.Sprintf("%d", sel+1))
}

func (e *Engine) globalDisplay(sub int) (display, bool) {
	g := &e.st.Global
	switch {
	case sub >= funcnum.GlobalRedlightBase && sub < funcnum.GlobalRedlightBase+mixer.NumRedlights:
		d := boolDisplay(e.redlightOn(sub - funcnum.GlobalRedlightBase))
		d.suppress = true
		return d, true
	case sub >= funcnum.GlobalTalkbackBase && sub < funcnum.GlobalTalkbackBase+mixer.NumTalkbacks:
		return boolDisplay(g.Talkback[sub-funcnum.GlobalTalkbackBase]), true
	case sub == funcnum.GlobalAutoMomentary:
		return boolDisplay(g.AutoMomentary), true
	}
	return display{}, false
}
