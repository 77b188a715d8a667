package engine

import (
	"context"
	"time"

	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/registry"
)

// Run calls Tick every tick period until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick advances the 10 ms timer: meters, node re-probes, control mode and
// selection timeouts, console preset recall and periodic backups.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ticks++
	if e.ticks%e.meterDivider == 0 {
		e.readMeters()
	}
	if e.ticks%ReprobeDivider == 0 {
		e.reprobe()
	}
	e.consoleTimers()
	e.consolePresetTimers()
	e.flush()

	if e.backupTicks > 0 && e.ticks%int64(e.backupTicks) == 0 {
		if err := e.backup(); err != nil {
			e.errs.HandleError(err)
		}
	}
	debug.LogEvery(6000, "timer", "tick %d, %d values sent", e.ticks, e.sent)
}

func (e *Engine) readMeters() {
	m, ok := e.router.Meters()
	if !ok {
		return
	}
	for i := range e.st.Modules {
		e.st.Modules[i].Meter = m.Modules[i]
		e.notifyModule(i, funcnum.ModuleMeterLeft)
		e.notifyModule(i, funcnum.ModuleMeterRight)
	}
	for b := range e.st.Busses {
		e.st.Busses[b].Meter = m.Busses[b]
		e.notifyBuss(b, funcnum.BussMeterLeft)
		e.notifyBuss(b, funcnum.BussMeterRight)
	}
	for mon := range e.st.Monitors {
		e.st.Monitors[mon].Meter = m.Monitors[mon]
		e.notifyMonitor(mon, funcnum.MonitorMeterLeft)
		e.notifyMonitor(mon, funcnum.MonitorMeterRight)
	}
	for d, v := range m.Destinations {
		if dst, ok := e.st.Destination(d); ok {
			dst.Meter = v
			e.notifyDestination(d, funcnum.DestinationMeterLeft)
			e.notifyDestination(d, funcnum.DestinationMeterRight)
		}
	}
}

// reprobe asks nodes that are still waiting for a matching template for
// their object count again.
func (e *Engine) reprobe() {
	for _, n := range e.reg.Nodes() {
		if n.InitFinished || n.FirmwareMajor < 0 {
			continue
		}
		e.reg.Update(n.Address, func(node *registry.Node) { node.ProbeTicks++ })
		if err := e.out.RequestSensorValue(n.Address, fieldbus.ObjNumberOfObjects, true); err != nil {
			debug.Log("node", "%08x: reprobe: %v", n.Address, err)
		}
	}
}

// consoleTimers runs the idle timeouts of control modes and the
// auto-deselect of selections.
func (e *Engine) consoleTimers() {
	for c := range e.st.Consoles {
		con := &e.st.Consoles[c]
		if con.ControlMode != funcnum.ModeNone {
			con.ControlModeTimer++
			if con.ControlModeTimer >= ControlModeTicks {
				old := con.ControlMode
				con.ControlMode = funcnum.ModeNone
				con.ControlModeTimer = 0
				e.controlModeChanged(c, old)
			}
		}
		if con.MasterControlMode >= 0 {
			con.MasterControlModeTimer++
			if con.MasterControlModeTimer >= ControlModeTicks {
				old := con.MasterControlMode
				con.MasterControlMode = funcnum.ModeNone
				con.MasterControlModeTimer = 0
				e.masterModeChanged(c, old)
			}
		}
		if !con.AutoDeselect {
			continue
		}
		for kind := 0; kind < mixer.NumSelectKinds; kind++ {
			if con.Selected[kind] < 0 {
				continue
			}
			con.SelectTimer[kind]++
			if con.SelectTimer[kind] >= AutoDeselectTicks {
				e.setSelection(selectDomains[kind], c, -1)
			}
		}
	}
}

var selectDomains = [mixer.NumSelectKinds]funcnum.Domain{
	mixer.SelectModule:      funcnum.Module,
	mixer.SelectBuss:        funcnum.Buss,
	mixer.SelectMonitor:     funcnum.MonitorBuss,
	mixer.SelectSource:      funcnum.Source,
	mixer.SelectDestination: funcnum.Destination,
}
