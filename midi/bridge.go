package midi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"axum-engine/config"
	"axum-engine/debug"
	"axum-engine/fieldbus"
	"axum-engine/store"
)

// Handler receives field-bus events. The engine implements it.
type Handler interface {
	OnAddressTableChange(old, cur fieldbus.AddressEntry)
	OnSensorChanged(addr uint32, obj uint16, v fieldbus.Value)
	OnSensorDataResponse(addr uint32, obj uint16, v fieldbus.Value)
}

// flushFPS is the output refresh rate.
const flushFPS = 30

type node struct {
	layout *Layout
	ctl    Controller
	want   map[uint16]fieldbus.Value // latest actuator values
	sent   map[uint16]fieldbus.Value // last written to the surface
	sensed map[uint16]fieldbus.Value // last sensor values, answers requests
}

// Bridge presents MIDI surfaces to the engine as field-bus nodes. It is the
// engine's fieldbus.Sender and a store.NodeCatalog for surface products.
// Everything the engine hears from it is delivered on the Run goroutine,
// never from inside a Sender call.
type Bridge struct {
	layouts []*Layout // every configured surface, connected or not

	mu      sync.Mutex
	nodes   map[uint32]*node
	handler Handler
	pending []func(Handler)
	dirty   bool

	wake chan struct{}
}

// NewBridge returns a bridge for the configured surfaces.
func NewBridge(surfaces []config.SurfaceConfig) *Bridge {
	b := &Bridge{
		nodes: make(map[uint32]*node),
		wake:  make(chan struct{}, 1),
	}
	for _, s := range surfaces {
		b.layouts = append(b.layouts, NewLayout(s))
	}
	return b
}

// SetHandler sets the receiver of field-bus events. Deliveries queued
// before it is set wait for it.
func (b *Bridge) SetHandler(h Handler) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
	b.signal()
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// enqueue adds a delivery. Callers hold b.mu.
func (b *Bridge) enqueue(fn func(Handler)) {
	b.pending = append(b.pending, fn)
	b.signal()
}

func (b *Bridge) layout(addr uint32) *Layout {
	for _, l := range b.layouts {
		if l.cfg.Address == addr {
			return l
		}
	}
	return nil
}

// Attach brings a connected surface online at its configured address and
// starts reading its input.
func (b *Bridge) Attach(ctl Controller, surface config.SurfaceConfig) error {
	l := b.layout(surface.Address)
	if l == nil {
		l = NewLayout(surface)
	}

	b.mu.Lock()
	if _, ok := b.nodes[surface.Address]; ok {
		b.mu.Unlock()
		return fmt.Errorf("surface %q: address 0x%x already online", surface.Name, surface.Address)
	}
	n := &node{
		layout: l,
		ctl:    ctl,
		want:   make(map[uint16]fieldbus.Value),
		sent:   make(map[uint16]fieldbus.Value),
		sensed: make(map[uint16]fieldbus.Value),
	}
	b.nodes[surface.Address] = n
	entry := l.Entry()
	b.enqueue(func(h Handler) { h.OnAddressTableChange(fieldbus.AddressEntry{}, entry) })
	b.mu.Unlock()

	debug.Log("midi", "surface %q online at 0x%x with %d controls", surface.Name, surface.Address, len(surface.Controls))
	go b.read(n)
	return nil
}

// Detach takes the surface at addr offline.
func (b *Bridge) Detach(addr uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[addr]
	if !ok {
		return
	}
	delete(b.nodes, addr)
	entry := n.layout.Entry()
	b.enqueue(func(h Handler) { h.OnAddressTableChange(entry, fieldbus.AddressEntry{}) })
	debug.Log("midi", "surface 0x%x offline", addr)
}

// read turns surface input into sensor events until the controller closes.
func (b *Bridge) read(n *node) {
	addr := n.layout.cfg.Address
	for ev := range n.ctl.Events() {
		b.input(n, addr, ev)
	}
}

func (b *Bridge) input(n *node, addr uint32, ev Event) {
	obj, v, ok := n.layout.Sensor(ev)
	if !ok {
		debug.Log("midi", "0x%x: unmapped %+v", addr, ev)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nodes[addr] != n {
		return
	}
	n.sensed[obj] = v
	b.enqueue(func(h Handler) { h.OnSensorChanged(addr, obj, v) })
}

// SendActuatorValue records the value; the flush loop writes it.
func (b *Bridge) SendActuatorValue(addr uint32, obj uint16, typ fieldbus.DataType, size int, v fieldbus.Value, reliable bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[addr]
	if !ok {
		return fmt.Errorf("no surface at 0x%x", addr)
	}
	if _, ok := n.layout.Control(obj); !ok {
		return fmt.Errorf("surface 0x%x: no object %d", addr, obj)
	}
	n.want[obj] = v
	b.dirty = true
	return nil
}

// RequestSensorValue queues the answer to a sensor request. Identity and
// object count are answered from the layout; custom objects answer with
// their last sensed value, if any.
func (b *Bridge) RequestSensorValue(addr uint32, obj uint16, force bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[addr]
	if !ok {
		return fmt.Errorf("no surface at 0x%x", addr)
	}

	var v fieldbus.Value
	switch obj {
	case fieldbus.ObjFirmwareMajorRevision:
		v = fieldbus.UIntValue(Firmware)
	case fieldbus.ObjNumberOfObjects:
		v = fieldbus.UIntValue(uint32(len(n.layout.cfg.Controls)))
	case fieldbus.ObjManufacturerID:
		v = fieldbus.UIntValue(uint32(Manufacturer))
	case fieldbus.ObjProductID:
		v = fieldbus.UIntValue(uint32(n.layout.cfg.ProductID))
	case fieldbus.ObjUniqueID:
		v = fieldbus.UIntValue(uint32(n.layout.cfg.UniqueID))
	case fieldbus.ObjName:
		v = fieldbus.OctetsValue(n.layout.cfg.Name)
	default:
		sensed, ok := n.sensed[obj]
		if !ok {
			debug.Log("midi", "0x%x: no value for object %d", addr, obj)
			return nil
		}
		v = sensed
	}
	b.enqueue(func(h Handler) { h.OnSensorDataResponse(addr, obj, v) })
	return nil
}

// LoadNodeTemplate returns the layout of the first surface with the
// product id. Surfaces sharing a product id must share a layout.
func (b *Bridge) LoadNodeTemplate(manufacturer, product uint16, firmware int) (store.NodeTemplate, error) {
	if manufacturer != Manufacturer {
		return store.NodeTemplate{}, store.ErrNotFound
	}
	for _, l := range b.layouts {
		if l.cfg.ProductID == product {
			return l.Template(), nil
		}
	}
	return store.NodeTemplate{}, store.ErrNotFound
}

// LoadNodeConfig returns the control bindings of the surface at e.Address.
func (b *Bridge) LoadNodeConfig(e fieldbus.AddressEntry) (store.NodeConfig, error) {
	if e.ManufacturerID != Manufacturer {
		return store.NodeConfig{}, store.ErrNotFound
	}
	l := b.layout(e.Address)
	if l == nil {
		return store.NodeConfig{}, store.ErrNotFound
	}
	return l.NodeConfig(), nil
}

// Run delivers queued events to the handler and flushes output at a fixed
// rate until ctx is done.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / flushFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
			b.deliver()
		case <-ticker.C:
			b.flush()
		}
	}
}

// deliver runs queued deliveries in order, without holding b.mu so the
// handler may call back into the bridge.
func (b *Bridge) deliver() {
	for {
		b.mu.Lock()
		h := b.handler
		if h == nil || len(b.pending) == 0 {
			b.mu.Unlock()
			return
		}
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()

		for _, fn := range batch {
			fn(h)
		}
	}
}

type write struct {
	ctl    Controller
	layout *Layout
	obj    uint16
	v      fieldbus.Value
}

// flush writes every actuator value that differs from what the surface
// last received.
func (b *Bridge) flush() {
	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return
	}
	b.dirty = false
	var writes []write
	for _, n := range b.nodes {
		for obj, v := range n.want {
			if prev, ok := n.sent[obj]; ok && prev.Equal(v) {
				continue
			}
			n.sent[obj] = v
			writes = append(writes, write{n.ctl, n.layout, obj, v})
		}
	}
	b.mu.Unlock()

	for _, w := range writes {
		msg, ok := w.layout.Message(w.obj, w.v)
		if !ok {
			debug.Log("midi", "0x%x: cannot render %v for object %d", w.layout.cfg.Address, w.v.Type, w.obj)
			continue
		}
		if err := w.ctl.Send(msg); err != nil {
			debug.Log("midi", "0x%x: send: %v", w.layout.cfg.Address, err)
		}
	}
	if len(writes) > 0 {
		debug.LogEvery(100, "midi", "flush: batch=%d", len(writes))
	}
}
