package engine

import (
	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
)

// OnSensorChanged handles an unsolicited sensor change from a node.
func (e *Engine) OnSensorChanged(addr uint32, obj uint16, v fieldbus.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	b, ok := e.reg.Binding(addr, obj)
	if !ok {
		debug.Log("sensor", "%08x/%d: unknown node or object", addr, obj)
		return
	}
	if b.Function == funcnum.Unbound {
		debug.Log("sensor", "%08x/%d: not bound", addr, obj)
		return
	}
	if b.Sensor.Type != fieldbus.NoData && b.Sensor.Type != v.Type {
		debug.Log("sensor", "%08x/%d: got %s, object is %s", addr, obj, v.Type, b.Sensor.Type)
		return
	}

	held, _ := e.reg.Held(addr, obj, now)
	in := e.newInput(addr, obj, b, v, held)
	e.dispatch(b.Function, in)
	e.flush()

	// In auto-momentary mode only press edges start a hold measurement, so
	// latching bindings still see the press-to-release duration.
	snapshot := !e.st.Global.AutoMomentary || (v.Type == fieldbus.State && v.Bool())
	e.reg.Touch(addr, obj, now, snapshot)
}

// Apply drives function fn with v as if a latching sensor had sent it.
// It is the entry point for the local operator surface.
func (e *Engine) Apply(fn funcnum.Number, v fieldbus.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()

	in := input{value: v, threshold: -1}
	if v.Type == fieldbus.UInt {
		if lo, hi, _, ok := e.reg.ComputeRange(fn); ok && hi > lo {
			in.min, in.max = lo, hi
		}
	}
	e.dispatch(fn, in)
	e.flush()
}

// dispatch resolves fn and hands the input to its domain handler.
func (e *Engine) dispatch(fn funcnum.Number, in input) {
	f, ok := funcnum.Decode(fn)
	if !ok {
		debug.Log("sensor", "invalid function %08x", uint32(fn))
		return
	}
	f, ok = f.Resolve(e.st)
	if !ok {
		debug.Log("sensor", "%s: no selection", fn)
		return
	}
	i := f.Instance.Index

	switch f.Domain {
	case funcnum.Module:
		e.moduleSensor(i, f.Sub, in)
	case funcnum.Buss:
		e.bussSensor(i, f.Sub, in)
	case funcnum.MonitorBuss:
		e.monitorSensor(i, f.Sub, in)
	case funcnum.Source:
		e.sourceSensor(i, f.Sub, in)
	case funcnum.Destination:
		e.destinationSensor(i, f.Sub, in)
	case funcnum.Console:
		e.consoleSensor(i, f.Sub, in)
	case funcnum.Global:
		e.globalSensor(f.Sub, in)
	}
}
