package engine

import (
	"math"

	"axum-engine/fieldbus"
	"axum-engine/mixer"
	"axum-engine/registry"
)

// MomentaryToggle applies a switch edge to a boolean parameter. A press
// always toggles. A release toggles back only for momentary bindings
// (threshold >= 0) held at least threshold milliseconds. It returns the new
// value and whether it changed.
func MomentaryToggle(current, press bool, held int64, threshold int) (bool, bool) {
	if press {
		return !current, true
	}
	if threshold >= 0 && held >= int64(threshold) {
		return !current, true
	}
	return current, false
}

// input is one decoded sensor event.
type input struct {
	value     fieldbus.Value
	held      int64
	threshold int

	// Sensor range for absolute values.
	min, max float64
}

func (in input) typ() fieldbus.DataType { return in.value.Type }
func (in input) press() bool            { return in.value.Bool() }
func (in input) relative() bool         { return in.value.Type == fieldbus.SInt }
func (in input) delta() int             { return int(in.value.Int) }

// pressed reports a rising edge of a state sensor, or any absolute write of
// a non-state sensor that carries a non-zero value.
func (in input) pressed() bool {
	switch in.value.Type {
	case fieldbus.State, fieldbus.UInt, fieldbus.Bits:
		return in.value.Int != 0
	case fieldbus.Float:
		return in.value.Float != 0
	}
	return false
}

// toggle applies a toggle switch to cur.
func (in input) toggle(cur bool) (bool, bool) {
	if in.value.Type != fieldbus.State {
		if in.value.Type == fieldbus.SInt {
			return in.value.Int > 0, (in.value.Int > 0) != cur
		}
		return in.pressed(), in.pressed() != cur
	}
	return MomentaryToggle(cur, in.press(), in.held, in.threshold)
}

// set drives cur towards target on a press. A momentary binding held past
// its threshold drives it back on release.
func (in input) set(cur, target bool) (bool, bool) {
	if in.value.Type != fieldbus.State {
		if !in.pressed() {
			return cur, false
		}
		return target, target != cur
	}
	if in.press() {
		return target, target != cur
	}
	if in.threshold >= 0 && in.held >= int64(in.threshold) {
		return !target, !target != cur
	}
	return cur, false
}

// position scales an absolute UInt value onto a fader position.
func (in input) position() int {
	lo, hi := in.min, in.max
	if hi <= lo {
		lo, hi = 0, float64(mixer.NumPositions-1)
	}
	return mixer.ScaleToPosition(float64(in.value.Int), lo, hi)
}

// fraction scales an absolute UInt value onto [0,1].
func (in input) fraction() float64 {
	lo, hi := in.min, in.max
	if hi <= lo {
		lo, hi = 0, float64(mixer.NumPositions-1)
	}
	return mixer.Clamp((float64(in.value.Int)-lo)/(hi-lo), 0, 1)
}

// Step kinds of numeric parameters under a relative encoder.
type stepKind int

const (
	stepTenth  stepKind = iota // delta/10 per detent
	stepWhole                  // one unit per detent
	stepFreq                   // multiplicative frequency step
	stepLevel                  // whole dB, fader table for absolute input
	stepMaster                 // whole dB, master table for absolute input
)

// numeric describes a continuous parameter.
type numeric struct {
	kind   stepKind
	lo, hi float64
	// Float writes outside [vlo,vhi] are rejected before clamping to [lo,hi].
	vlo, vhi float64
	reserve  float64
}

// apply computes the new value of a numeric parameter. ok is false when the
// input is rejected or cannot drive the parameter.
func (n numeric) apply(cur float64, in input) (float64, bool) {
	var v float64
	switch in.typ() {
	case fieldbus.SInt:
		d := float64(in.delta())
		switch n.kind {
		case stepTenth:
			v = cur + d/10
		case stepFreq:
			v = freqStep(cur, in.delta())
		default:
			v = math.Round(cur) + d
		}
	case fieldbus.UInt:
		switch n.kind {
		case stepLevel:
			v = mixer.LevelFromPosition(in.position(), n.reserve)
		case stepMaster:
			v = mixer.MasterLevelFromPosition(in.position())
		default:
			v = n.lo + in.fraction()*(n.hi-n.lo)
		}
	case fieldbus.Float:
		v = in.value.Float
		if n.vhi > n.vlo && (v < n.vlo || v > n.vhi) {
			return cur, false
		}
	default:
		return cur, false
	}
	return mixer.Clamp(v, n.lo, n.hi), true
}

// freqStep moves a frequency by delta percent steps. A step that rounds to
// the same Hz is nudged by 1 Hz so slow turns still move.
func freqStep(cur float64, delta int) float64 {
	if delta == 0 {
		return cur
	}
	f := cur
	if delta > 0 {
		f = cur * (1 + float64(delta)/100)
	} else {
		f = cur / (1 - float64(delta)/100)
	}
	f = math.Round(f)
	if f == math.Round(cur) {
		if delta > 0 {
			f++
		} else {
			f--
		}
	}
	return f
}

// newInput decodes a sensor event against its binding.
func (e *Engine) newInput(addr uint32, obj uint16, b registry.Binding, v fieldbus.Value, held int64) input {
	in := input{value: v, held: held, threshold: b.TimeBeforeMomentary}
	if in.threshold < 0 && e.st.Global.AutoMomentary && v.Type == fieldbus.State {
		in.threshold = e.st.Global.AutoMomentaryTime
	}
	if v.Type == fieldbus.UInt {
		in.min, in.max, _ = e.reg.SensorRange(addr, obj)
	}
	return in
}
