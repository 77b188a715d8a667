package engine

import (
	"errors"

	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/store"
)

func (e *Engine) consoleSensor(c, sub int, in input) {
	con, ok := e.st.Console(c)
	if !ok {
		return
	}
	switch {
	case sub >= funcnum.ConsoleControlModeBase && sub < funcnum.ConsoleControlModeBase+funcnum.NumControlModes:
		if in.pressed() {
			e.setControlMode(c, sub-funcnum.ConsoleControlModeBase)
		}
		return
	case sub >= funcnum.ConsoleMasterControlModeBase && sub < funcnum.ConsoleMasterControlModeBase+funcnum.NumMasterControlModes:
		if in.pressed() {
			e.setMasterControlMode(c, sub-funcnum.ConsoleMasterControlModeBase)
		}
		return
	case sub >= funcnum.ConsolePresetBase && sub < funcnum.ConsolePresetBase+mixer.NumConsolePresets:
		if in.typ() == fieldbus.State {
			e.consolePresetPressed(c, sub-funcnum.ConsolePresetBase, in.press())
		} else if in.pressed() {
			e.applyConsolePreset(sub-funcnum.ConsolePresetBase, false)
		}
		return
	}

	switch sub {
	case funcnum.ConsoleMasterControl:
		d, i, tsub, ok := funcnum.MasterModeTarget(con.MasterControlMode)
		if !ok {
			return
		}
		con.MasterControlModeTimer = 0
		switch d {
		case funcnum.Buss:
			e.bussSensor(i, tsub, in)
		case funcnum.MonitorBuss:
			e.monitorSensor(i, tsub, in)
		}
	case funcnum.ConsoleModuleSelect:
		e.stepSelection(funcnum.Module, c, in)
	case funcnum.ConsoleBussSelect:
		e.stepSelection(funcnum.Buss, c, in)
	case funcnum.ConsoleMonitorSelect:
		e.stepSelection(funcnum.MonitorBuss, c, in)
	case funcnum.ConsoleSourceSelect:
		e.stepSelection(funcnum.Source, c, in)
	case funcnum.ConsoleDestinationSelect:
		e.stepSelection(funcnum.Destination, c, in)
	case funcnum.ConsoleChipcardUser, funcnum.ConsoleUpdateUser:
		if in.typ() == fieldbus.Octets {
			con.ChipcardUser = in.value.String()
		}
	case funcnum.ConsoleChipcardPass, funcnum.ConsoleUpdateUserPass:
		if in.typ() == fieldbus.Octets {
			con.ChipcardPass = in.value.String()
			e.login(c)
		}
	case funcnum.ConsoleLogout:
		if in.pressed() {
			e.logout(c)
		}
	default:
		debug.Log("sensor", "console %d: %s is display only", c, funcnum.SubName(funcnum.Console, sub))
	}
}

// setControlMode switches the shared control of console c. Pressing the
// active mode again switches it off.
func (e *Engine) setControlMode(c, mode int) {
	con := &e.st.Consoles[c]
	old := con.ControlMode
	if mode == old {
		mode = funcnum.ModeNone
	}
	con.ControlMode = mode
	con.ControlModeTimer = 0

	for m := range e.st.Modules {
		mod := &e.st.Modules[m]
		switch mode {
		case funcnum.ModeSource:
			mod.ScratchSource[c] = mod.SelectedSource
		case funcnum.ModeProcessingPreset:
			mod.ScratchPreset[c] = mod.SelectedPreset
		}
	}
	e.controlModeChanged(c, old)
}

// controlModeChanged refreshes the per-module control displays of console c
// and its mode indicators.
func (e *Engine) controlModeChanged(c, old int) {
	for m := range e.st.Modules {
		e.notifyModule(m, funcnum.ModuleControlBase+c)
		e.notifyModule(m, funcnum.ModuleControlLabelBase+c)
	}
	if old != funcnum.ModeNone {
		e.notifyConsole(c, funcnum.ConsoleControlModeBase+old)
	}
	if mode := e.st.Consoles[c].ControlMode; mode != funcnum.ModeNone {
		e.notifyConsole(c, funcnum.ConsoleControlModeBase+mode)
	}
}

func (e *Engine) setMasterControlMode(c, mode int) {
	con := &e.st.Consoles[c]
	old := con.MasterControlMode
	if mode == old {
		mode = funcnum.ModeNone
	}
	con.MasterControlMode = mode
	con.MasterControlModeTimer = 0
	e.masterModeChanged(c, old)
}

func (e *Engine) masterModeChanged(c, old int) {
	if old >= 0 {
		e.notifyConsole(c, funcnum.ConsoleMasterControlModeBase+old)
	}
	if mode := e.st.Consoles[c].MasterControlMode; mode >= 0 {
		e.notifyConsole(c, funcnum.ConsoleMasterControlModeBase+mode)
	}
	e.notifyConsole(c, funcnum.ConsoleMasterControl)
}

// toggleSelection selects instance i of domain d on console c, or clears
// the selection if i is already selected.
func (e *Engine) toggleSelection(d funcnum.Domain, c, i int) {
	kind, ok := mixer.SelectKind(d)
	if !ok || c < 0 || c >= mixer.NumConsoles {
		return
	}
	next := i
	if e.st.Consoles[c].Selected[kind] == i {
		next = -1
	}
	e.setSelection(d, c, next)
}

// stepSelection moves console c's selection of domain d with an encoder or
// sets it absolutely.
func (e *Engine) stepSelection(d funcnum.Domain, c int, in input) {
	kind, _ := mixer.SelectKind(d)
	cur := e.st.Consoles[c].Selected[kind]
	n := funcnum.InstanceCount(d)
	next := cur
	switch in.typ() {
	case fieldbus.SInt:
		if cur < 0 {
			cur = 0
			if in.delta() < 0 {
				cur = n
			}
		}
		next = ((cur+in.delta())%n + n) % n
	case fieldbus.UInt:
		next = int(in.value.Int)
		if next >= n {
			next = -1
		}
	default:
		return
	}
	e.setSelection(d, c, next)
}

func (e *Engine) setSelection(d funcnum.Domain, c, next int) {
	kind, _ := mixer.SelectKind(d)
	con := &e.st.Consoles[c]
	old := con.Selected[kind]
	con.SelectTimer[kind] = 0
	if next == old {
		return
	}
	con.Selected[kind] = next
	e.notifySelectIndicator(d, c, old)
	e.notifySelectIndicator(d, c, next)
	e.refreshSelection(d, c)
}

var selectBases = map[funcnum.Domain]int{
	funcnum.Module:      funcnum.ModuleSelectBase,
	funcnum.Buss:        funcnum.BussSelectBase,
	funcnum.MonitorBuss: funcnum.MonitorSelectBase,
	funcnum.Source:      funcnum.SourceSelectBase,
	funcnum.Destination: funcnum.DestinationSelectBase,
}

var consoleSelectSubs = map[funcnum.Domain]int{
	funcnum.Module:      funcnum.ConsoleModuleSelect,
	funcnum.Buss:        funcnum.ConsoleBussSelect,
	funcnum.MonitorBuss: funcnum.ConsoleMonitorSelect,
	funcnum.Source:      funcnum.ConsoleSourceSelect,
	funcnum.Destination: funcnum.ConsoleDestinationSelect,
}

func (e *Engine) notifySelectIndicator(d funcnum.Domain, c, i int) {
	e.notifyConsole(c, consoleSelectSubs[d])
	if i < 0 {
		return
	}
	e.notify(funcnum.Make(d, i, selectBases[d]+c))
}

// refreshSelection queues every function bound to console c's selection of
// domain d.
func (e *Engine) refreshSelection(d funcnum.Domain, c int) {
	for _, fn := range e.reg.AttachedFunctions(d, funcnum.InstanceCount(d)+c) {
		e.notify(fn)
	}
}

// login checks the chip-card credentials of console c against the store.
func (e *Engine) login(c int) {
	con := &e.st.Consoles[c]
	if con.ChipcardPass == "" {
		e.logout(c)
		return
	}
	acct, err := e.store.LookupAccount(con.ChipcardUser, con.ChipcardPass)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.errs.HandleError(err)
		}
		debug.Log("sensor", "console %d: login %q refused", c, con.ChipcardUser)
		return
	}
	con.Username = acct.User
	con.Password = acct.Pass
	con.UserLevel = acct.Level
	e.notifyConsole(c, funcnum.ConsoleUpdateUserPass)
	e.notifyConsole(c, funcnum.ConsoleUserLevel)
	debug.Log("sensor", "console %d: %s logged in, level %d", c, acct.User, acct.Level)
}

func (e *Engine) logout(c int) {
	con := &e.st.Consoles[c]
	con.ChipcardUser = ""
	con.ChipcardPass = ""
	if con.Username == "" && con.UserLevel == 0 {
		return
	}
	con.Username = ""
	con.Password = ""
	con.UserLevel = 0
	e.notifyConsole(c, funcnum.ConsoleUpdateUser)
	e.notifyConsole(c, funcnum.ConsoleUpdateUserPass)
	e.notifyConsole(c, funcnum.ConsoleUserLevel)
}

func (e *Engine) globalSensor(sub int, in input) {
	g := &e.st.Global
	switch {
	case sub >= funcnum.GlobalRedlightBase && sub < funcnum.GlobalRedlightBase+mixer.NumRedlights:
		r := sub - funcnum.GlobalRedlightBase
		if v, ok := in.toggle(g.Redlight[r]); ok && v != g.Redlight[r] {
			g.Redlight[r] = v
			e.notifyGlobal(sub)
		}
	case sub >= funcnum.GlobalTalkbackBase && sub < funcnum.GlobalTalkbackBase+mixer.NumTalkbacks:
		t := sub - funcnum.GlobalTalkbackBase
		if v, ok := in.toggle(g.Talkback[t]); ok && v != g.Talkback[t] {
			g.Talkback[t] = v
			e.talkbackChanged(t)
			e.notifyGlobal(sub)
		}
	case sub == funcnum.GlobalAutoMomentary:
		if v, ok := in.toggle(g.AutoMomentary); ok && v != g.AutoMomentary {
			g.AutoMomentary = v
			e.notifyGlobal(sub)
		}
	}
}

// talkbackChanged re-routes everything listening to talkback t.
func (e *Engine) talkbackChanged(t int) {
	for d := range e.st.Destinations {
		if e.st.Destinations[d].Talkback[t] {
			e.router.DestinationSource(d)
			e.notifyDestination(d, funcnum.DestinationSource)
		}
	}
	for mon := range e.st.Monitors {
		if e.st.Monitors[mon].Talkback[t] {
			e.router.MonitorBuss(mon)
		}
	}
	for b := range e.st.Busses {
		if e.st.Busses[b].Talkback[t] {
			e.notifyBuss(b, funcnum.BussDim)
		}
	}
}
