package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"axum-engine/config"
	"axum-engine/fieldbus"
	"axum-engine/store"
)

// Manufacturer is the manufacturer id surfaces report, the MIDI
// non-commercial id.
const Manufacturer uint16 = 0x7D

// Firmware is the firmware revision surfaces report.
const Firmware = 1

type inputKey struct {
	typ     uint8 // NoteOn for notes, CC for controllers
	channel uint8
	number  uint8
}

// Layout maps a surface's controls to node objects. Control i is object
// fieldbus.CustomObjectBase+i.
type Layout struct {
	cfg    config.SurfaceConfig
	inputs map[inputKey]int
}

// NewLayout indexes the input controls of cfg. When two controls share a
// MIDI input the first one wins.
func NewLayout(cfg config.SurfaceConfig) *Layout {
	l := &Layout{cfg: cfg, inputs: make(map[inputKey]int)}
	for i, ctl := range cfg.Controls {
		var key inputKey
		switch ctl.Kind {
		case config.KindFader, config.KindEncoder, config.KindEncoder2C:
			key = inputKey{CC, ctl.Channel, ctl.Controller}
		case config.KindButton:
			key = inputKey{NoteOn, ctl.Channel, ctl.Note}
		default:
			continue
		}
		if _, ok := l.inputs[key]; !ok {
			l.inputs[key] = i
		}
	}
	return l
}

// Config returns the surface configuration.
func (l *Layout) Config() config.SurfaceConfig { return l.cfg }

// Entry returns the address table entry of the surface.
func (l *Layout) Entry() fieldbus.AddressEntry {
	return fieldbus.AddressEntry{
		Address:        l.cfg.Address,
		ManufacturerID: Manufacturer,
		ProductID:      l.cfg.ProductID,
		UniqueID:       l.cfg.UniqueID,
	}
}

// Control returns the control behind obj.
func (l *Layout) Control(obj uint16) (config.ControlConfig, bool) {
	if obj < fieldbus.CustomObjectBase {
		return config.ControlConfig{}, false
	}
	i := int(obj - fieldbus.CustomObjectBase)
	if i >= len(l.cfg.Controls) {
		return config.ControlConfig{}, false
	}
	return l.cfg.Controls[i], true
}

// Sensor turns a channel message into a sensor value of the control it
// belongs to.
func (l *Layout) Sensor(ev Event) (uint16, fieldbus.Value, bool) {
	typ := ev.Type
	if typ == NoteOff {
		typ = NoteOn
	}
	i, ok := l.inputs[inputKey{typ, ev.Channel, ev.Number}]
	if !ok {
		return 0, fieldbus.Value{}, false
	}
	obj := fieldbus.CustomObjectBase + uint16(i)

	switch ctl := l.cfg.Controls[i]; ctl.Kind {
	case config.KindFader:
		lo, hi := faderRange(ctl)
		v := int(ev.Value)
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		return obj, fieldbus.UIntValue(uint32(v)), true
	case config.KindEncoder:
		return obj, fieldbus.SIntValue(int32(ev.Value) - 64), true
	case config.KindEncoder2C:
		d := int32(ev.Value)
		if d >= 64 {
			d -= 128
		}
		return obj, fieldbus.SIntValue(d), true
	case config.KindButton:
		return obj, fieldbus.StateValue(ev.Type == NoteOn), true
	}
	return 0, fieldbus.Value{}, false
}

// Message renders an actuator value for the control behind obj.
func (l *Layout) Message(obj uint16, v fieldbus.Value) (gomidi.Message, bool) {
	ctl, ok := l.Control(obj)
	if !ok {
		return nil, false
	}

	switch ctl.Kind {
	case config.KindFader, config.KindEncoder, config.KindEncoder2C:
		if v.Type != fieldbus.UInt && v.Type != fieldbus.SInt {
			return nil, false
		}
		_, hi := faderRange(ctl)
		n := v.Int
		if n < 0 {
			n = 0
		}
		if n > int64(hi) {
			n = int64(hi)
		}
		return gomidi.ControlChange(ctl.Channel, ctl.Controller, uint8(n)), true
	case config.KindButton, config.KindLED:
		if v.Type != fieldbus.State {
			return nil, false
		}
		var vel uint8
		if v.Bool() {
			vel = 127
		}
		return gomidi.NoteOn(ctl.Channel, ctl.Note, vel), true
	case config.KindDisplay:
		if v.Type != fieldbus.Octets {
			return nil, false
		}
		return gomidi.SysEx(l.displayPayload(ctl, v.Octets)), true
	}
	return nil, false
}

// displayPayload is header, display index, then the text padded to the
// display size with bytes above 0x7E replaced by '?'.
func (l *Layout) displayPayload(ctl config.ControlConfig, text []byte) []byte {
	size := displaySize(ctl)
	out := make([]byte, 0, len(l.cfg.SysExHeader)+1+size)
	if len(l.cfg.SysExHeader) == 0 {
		out = append(out, byte(Manufacturer))
	}
	for _, b := range l.cfg.SysExHeader {
		out = append(out, byte(b))
	}
	out = append(out, ctl.Controller&0x7F)
	for i := 0; i < size; i++ {
		c := byte(' ')
		if i < len(text) {
			c = text[i]
		}
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		out = append(out, c)
	}
	return out
}

// Template is the object table the engine loads for this surface.
func (l *Layout) Template() store.NodeTemplate {
	t := store.NodeTemplate{
		ManufacturerID: Manufacturer,
		ProductID:      l.cfg.ProductID,
		FirmwareMajor:  -1,
	}
	for _, ctl := range l.cfg.Controls {
		o := store.ObjectTemplate{Description: ctl.Function}
		switch ctl.Kind {
		case config.KindFader:
			lo, hi := faderRange(ctl)
			spec := fieldbus.DataSpec{Type: fieldbus.UInt, Size: 1, Min: float64(lo), Max: float64(hi)}
			o.Sensor, o.Actuator = spec, spec
		case config.KindEncoder, config.KindEncoder2C:
			_, hi := faderRange(ctl)
			o.Sensor = fieldbus.DataSpec{Type: fieldbus.SInt, Size: 1, Min: -64, Max: 63}
			o.Actuator = fieldbus.DataSpec{Type: fieldbus.UInt, Size: 1, Max: float64(hi)}
		case config.KindButton:
			spec := fieldbus.DataSpec{Type: fieldbus.State, Size: 1, Max: 1}
			o.Sensor, o.Actuator = spec, spec
		case config.KindLED:
			o.Actuator = fieldbus.DataSpec{Type: fieldbus.State, Size: 1, Max: 1}
		case config.KindDisplay:
			o.Actuator = fieldbus.DataSpec{Type: fieldbus.Octets, Size: displaySize(ctl)}
		}
		t.Objects = append(t.Objects, o)
	}
	return t
}

// NodeConfig binds every control that names a function.
func (l *Layout) NodeConfig() store.NodeConfig {
	nc := store.NodeConfig{
		Address:        l.cfg.Address,
		ManufacturerID: Manufacturer,
		ProductID:      l.cfg.ProductID,
		UniqueID:       l.cfg.UniqueID,
	}
	for i, ctl := range l.cfg.Controls {
		if ctl.Function == "" {
			continue
		}
		nc.Bindings = append(nc.Bindings, store.ObjectBinding{
			Object:    fieldbus.CustomObjectBase + uint16(i),
			Function:  ctl.Function,
			Momentary: ctl.Momentary,
		})
	}
	return nc
}

func faderRange(ctl config.ControlConfig) (int, int) {
	if ctl.Max == 0 {
		return ctl.Min, 127
	}
	return ctl.Min, ctl.Max
}

func displaySize(ctl config.ControlConfig) int {
	if ctl.Size <= 0 {
		return config.DefaultDisplaySize
	}
	return ctl.Size
}
