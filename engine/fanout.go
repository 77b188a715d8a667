package engine

import (
	"math"
	"strings"

	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/registry"
)

type objectKey struct {
	addr uint32
	obj  uint16
}

// checkObjectsToSent sends the current value of fn to every attached
// object, and to the objects bound to a console selection that currently
// resolves to the same instance. target limits sending to one node unless
// it is Broadcast. force bypasses last-value suppression.
func (e *Engine) checkObjectsToSent(fn funcnum.Number, target uint32, force bool) {
	f, ok := funcnum.Decode(fn)
	if !ok {
		return
	}
	sent := make(map[objectKey]bool)

	if f.Instance.Selected {
		concrete, ok := f.Resolve(e.st)
		if !ok {
			e.sendBlank(fn, target, sent, force)
			return
		}
		d, ok := e.display(concrete)
		if ok {
			e.sendAll(fn, d, target, sent, force)
		}
		return
	}

	d, ok := e.display(f)
	if !ok {
		return
	}
	e.sendAll(fn, d, target, sent, force)

	if !funcnum.HasVirtual(f.Domain) {
		return
	}
	kind, _ := mixer.SelectKind(f.Domain)
	for c := range e.st.Consoles {
		if e.st.Consoles[c].Selected[kind] == f.Instance.Index {
			e.sendAll(funcnum.Virtual(f.Domain, c, f.Sub), d, target, sent, force)
		}
	}
}

func (e *Engine) sendAll(fn funcnum.Number, d display, target uint32, sent map[objectKey]bool, force bool) {
	for _, a := range e.reg.Attached(fn) {
		if target != fieldbus.Broadcast && a.Address != target {
			continue
		}
		k := objectKey{a.Address, a.ObjectID}
		if sent[k] {
			continue
		}
		sent[k] = true
		e.send(fn, a, d.value(a), d.reliable(), d.suppress && !force)
	}
}

// sendBlank clears objects bound to a console selection that is empty.
func (e *Engine) sendBlank(fn funcnum.Number, target uint32, sent map[objectKey]bool, force bool) {
	blank := display{kind: showText, text: "  --  "}
	e.sendAll(fn, blank, target, sent, force)
}

func (e *Engine) send(fn funcnum.Number, a registry.Attachment, v fieldbus.Value, reliable, suppress bool) {
	if changed := e.reg.Remember(fn, a.Address, a.ObjectID, v); suppress && !changed {
		return
	}
	if err := e.out.SendActuatorValue(a.Address, a.ObjectID, a.Type, a.Size, v, reliable); err != nil {
		debug.Log("fanout", "%08x/%d: %v", a.Address, a.ObjectID, err)
		return
	}
	e.sent++
}

// syncNode sends the value of every function bound on node addr.
func (e *Engine) syncNode(addr uint32) {
	for _, fn := range e.reg.BoundFunctions(addr) {
		e.checkObjectsToSent(fn, addr, true)
	}
}

type displayKind int

const (
	showBool displayKind = iota
	showLevel
	showMaster
	showNumber
	showText
	showMeter
)

// display is the value of one function in every form an actuator may ask
// for.
type display struct {
	kind     displayKind
	on       bool
	num      float64
	lo, hi   float64
	text     string
	suppress bool
}

func (d display) reliable() bool { return d.kind != showMeter }

// value renders d for the data type and range of attachment a.
func (d display) value(a registry.Attachment) fieldbus.Value {
	switch a.Type {
	case fieldbus.State:
		return fieldbus.StateValue(d.on)
	case fieldbus.Bits:
		if d.on {
			return fieldbus.BitsValue(1)
		}
		return fieldbus.BitsValue(0)
	case fieldbus.SInt:
		return fieldbus.SIntValue(0)
	case fieldbus.Float:
		if d.kind == showBool {
			if d.on {
				return fieldbus.FloatValue(1)
			}
			return fieldbus.FloatValue(0)
		}
		return fieldbus.FloatValue(d.num)
	case fieldbus.Octets:
		return fieldbus.OctetsValue(fitText(d.text, a.Size))
	case fieldbus.UInt:
		return fieldbus.UIntValue(d.raw(a.Min, a.Max))
	}
	return fieldbus.Value{}
}

// raw scales d onto an actuator range.
func (d display) raw(min, max float64) uint32 {
	var t float64
	switch d.kind {
	case showBool, showText:
		if d.on {
			return uint32(max)
		}
		return uint32(min)
	case showLevel, showMeter:
		t = float64(mixer.DBToPosition(d.num)) / float64(mixer.NumPositions-1)
	case showMaster:
		t = float64(mixer.MasterLevelToPosition(d.num)) / float64(mixer.NumPositions-1)
	case showNumber:
		if d.hi > d.lo {
			t = (d.num - d.lo) / (d.hi - d.lo)
		}
	}
	t = mixer.Clamp(t, 0, 1)
	return uint32(math.Round(min + t*(max-min)))
}

// fitText pads or truncates s to size bytes. Size 0 sends s as is.
func fitText(s string, size int) string {
	if size <= 0 {
		return s
	}
	if len(s) > size {
		return s[:size]
	}
	return s + strings.Repeat(" ", size-len(s))
}
