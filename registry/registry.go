// Package registry tracks the online field-bus nodes, their per-object
// function bindings and the attachment lists derived from them.
//
// Two locks are involved. The node table is guarded by the registry's own
// mutex, taken inside every node method. The attachment lists are guarded by
// the caller's state lock: Rebuild, Attached and the other attachment methods
// must only be called while the engine holds it. Callers that need both take
// the state lock first.
package registry

import (
	"sort"
	"sync"

	"axum-engine/fieldbus"
	"axum-engine/funcnum"

	"github.com/google/uuid"
)

// Momentary threshold of a latching binding.
const Latching = -1

// Object is one custom object of a node.
type Object struct {
	Description string
	Sensor      fieldbus.DataSpec
	Actuator    fieldbus.DataSpec

	Function            funcnum.Number
	TimeBeforeMomentary int

	LastChangedTime         int64
	PreviousLastChangedTime int64
}

// Node is one online field-bus device.
type Node struct {
	ID             uuid.UUID
	Address        uint32
	ManufacturerID uint16
	ProductID      uint16
	UniqueID       uint16

	// FirmwareMajor and NumberOfObjects are -1 until the node answered.
	FirmwareMajor   int
	NumberOfObjects int
	TemplateObjects int

	Objects      []Object
	SlotObject   uint16
	SlotNumber   int
	InitFinished bool
	ProbeTicks   int
}

// Binding is what the state machine needs to know about one object.
type Binding struct {
	Function            funcnum.Number
	TimeBeforeMomentary int
	Sensor              fieldbus.DataSpec
	Actuator            fieldbus.DataSpec
}

// Attachment is one actuator object bound to a function.
type Attachment struct {
	Address  uint32
	ObjectID uint16
	Type     fieldbus.DataType
	Size     int
	Min      float64
	Max      float64
	Default  float64

	LastValue fieldbus.Value
	HasLast   bool
}

// Registry holds the online nodes and the function attachment lists.
type Registry struct {
	mu    sync.Mutex
	nodes map[uint32]*Node

	attached map[funcnum.Number][]Attachment
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		nodes:    make(map[uint32]*Node),
		attached: make(map[funcnum.Number][]Attachment),
	}
}

// AddNode registers a node found in the address table. It returns false if
// a node already lives at that address.
func (r *Registry) AddNode(e fieldbus.AddressEntry) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.nodes[e.Address]; ok {
		return n.ID, false
	}
	n := &Node{
		ID:              uuid.New(),
		Address:         e.Address,
		ManufacturerID:  e.ManufacturerID,
		ProductID:       e.ProductID,
		UniqueID:        e.UniqueID,
		FirmwareMajor:   -1,
		NumberOfObjects: -1,
		TemplateObjects: -1,
		SlotNumber:      -1,
	}
	r.nodes[e.Address] = n
	return n.ID, true
}

// RemoveNode drops the node at addr and returns every function one of its
// objects was bound to, each once, so the caller can rebuild them in a
// single batch.
func (r *Registry) RemoveNode(addr uint32) ([]funcnum.Number, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return nil, false
	}
	delete(r.nodes, addr)
	return boundFunctions(n), true
}

func boundFunctions(n *Node) []funcnum.Number {
	seen := make(map[funcnum.Number]bool)
	var fns []funcnum.Number
	for _, o := range n.Objects {
		if o.Function == funcnum.Unbound || seen[o.Function] {
			continue
		}
		seen[o.Function] = true
		fns = append(fns, o.Function)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i] < fns[j] })
	return fns
}

// Node returns a copy of the node at addr.
func (r *Registry) Node(addr uint32) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Objects = append([]Object(nil), n.Objects...)
	return cp, true
}

// Nodes returns copies of every node ordered by address.
func (r *Registry) Nodes() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		cp := *n
		cp.Objects = append([]Object(nil), n.Objects...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Update runs fn on the node at addr under the node lock.
func (r *Registry) Update(addr uint32, fn func(n *Node)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return false
	}
	fn(n)
	return true
}

// SetObjects installs the custom object table of a node. Every object
// starts unbound and latching.
func (r *Registry) SetObjects(addr uint32, objs []Object) bool {
	return r.Update(addr, func(n *Node) {
		n.Objects = make([]Object, len(objs))
		copy(n.Objects, objs)
		for i := range n.Objects {
			n.Objects[i].Function = funcnum.Unbound
			n.Objects[i].TimeBeforeMomentary = Latching
		}
	})
}

func objectIndex(n *Node, obj uint16) (int, bool) {
	if obj < fieldbus.CustomObjectBase {
		return 0, false
	}
	i := int(obj - fieldbus.CustomObjectBase)
	if i >= len(n.Objects) {
		return 0, false
	}
	return i, true
}

// Binding returns the binding of a custom object. Reserved object ids and
// objects beyond the node's table are rejected.
func (r *Registry) Binding(addr uint32, obj uint16) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return Binding{}, false
	}
	i, ok := objectIndex(n, obj)
	if !ok {
		return Binding{}, false
	}
	o := &n.Objects[i]
	return Binding{
		Function:            o.Function,
		TimeBeforeMomentary: o.TimeBeforeMomentary,
		Sensor:              o.Sensor,
		Actuator:            o.Actuator,
	}, true
}

// Bind attaches a custom object to fn and returns the function it was bound
// to before. The caller rebuilds both.
func (r *Registry) Bind(addr uint32, obj uint16, fn funcnum.Number, momentary int) (funcnum.Number, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return funcnum.Unbound, false
	}
	i, ok := objectIndex(n, obj)
	if !ok {
		return funcnum.Unbound, false
	}
	old := n.Objects[i].Function
	n.Objects[i].Function = fn
	n.Objects[i].TimeBeforeMomentary = momentary
	return old, true
}

// Held returns how long ago, in milliseconds of the caller's clock, the
// previous change snapshot of the object was taken.
func (r *Registry) Held(addr uint32, obj uint16, now int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return 0, false
	}
	i, ok := objectIndex(n, obj)
	if !ok {
		return 0, false
	}
	return now - n.Objects[i].PreviousLastChangedTime, true
}

// Touch records a change of the object at now. With snapshot set the
// previous-change time follows as well.
func (r *Registry) Touch(addr uint32, obj uint16, now int64, snapshot bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return
	}
	i, ok := objectIndex(n, obj)
	if !ok {
		return
	}
	n.Objects[i].LastChangedTime = now
	if snapshot {
		n.Objects[i].PreviousLastChangedTime = now
	}
}

// BoundFunctions returns the functions bound on the node at addr.
func (r *Registry) BoundFunctions(addr uint32) []funcnum.Number {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[addr]
	if !ok {
		return nil
	}
	return boundFunctions(n)
}

// Rebuild recomputes the attachment list of fn from the node table. Cached
// last values survive for objects that stay attached.
func (r *Registry) Rebuild(fn funcnum.Number) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuild(fn)
}

// RebuildAll rebuilds each distinct function of fns once.
func (r *Registry) RebuildAll(fns []funcnum.Number) {
	r.mu.Lock()
	defer r.mu.Unlock()

	done := make(map[funcnum.Number]bool, len(fns))
	for _, fn := range fns {
		if done[fn] {
			continue
		}
		done[fn] = true
		r.rebuild(fn)
	}
}

func (r *Registry) rebuild(fn funcnum.Number) {
	if fn == funcnum.Unbound {
		return
	}
	type key struct {
		addr uint32
		obj  uint16
	}
	last := make(map[key]Attachment)
	for _, a := range r.attached[fn] {
		last[key{a.Address, a.ObjectID}] = a
	}

	addrs := make([]uint32, 0, len(r.nodes))
	for addr := range r.nodes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var list []Attachment
	for _, addr := range addrs {
		n := r.nodes[addr]
		for i, o := range n.Objects {
			if o.Function != fn || o.Actuator.Type == fieldbus.NoData {
				continue
			}
			obj := fieldbus.CustomObjectBase + uint16(i)
			a := Attachment{
				Address:  addr,
				ObjectID: obj,
				Type:     o.Actuator.Type,
				Size:     o.Actuator.Size,
				Min:      o.Actuator.Min,
				Max:      o.Actuator.Max,
				Default:  o.Actuator.Default,
			}
			if prev, ok := last[key{addr, obj}]; ok && prev.Type == a.Type {
				a.LastValue, a.HasLast = prev.LastValue, prev.HasLast
			}
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		delete(r.attached, fn)
		return
	}
	r.attached[fn] = list
}

// Attached returns the attachment list of fn. The slice is shared; callers
// must not keep it past their state lock.
func (r *Registry) Attached(fn funcnum.Number) []Attachment {
	return r.attached[fn]
}

// AttachedCount returns the number of objects attached to fn.
func (r *Registry) AttachedCount(fn funcnum.Number) int {
	return len(r.attached[fn])
}

// Remember stores v as the last value sent to an attachment of fn and
// reports whether it differs from what was cached.
func (r *Registry) Remember(fn funcnum.Number, addr uint32, obj uint16, v fieldbus.Value) bool {
	list := r.attached[fn]
	for i := range list {
		a := &list[i]
		if a.Address != addr || a.ObjectID != obj {
			continue
		}
		if a.HasLast && a.LastValue.Equal(v) {
			return false
		}
		a.LastValue = v
		a.HasLast = true
		return true
	}
	return true
}

// ComputeRange returns the union range of every object attached to fn.
func (r *Registry) ComputeRange(fn funcnum.Number) (min, max, def float64, ok bool) {
	list := r.attached[fn]
	if len(list) == 0 {
		return 0, 0, 0, false
	}
	min, max, def = list[0].Min, list[0].Max, list[0].Default
	for _, a := range list[1:] {
		if a.Min < min {
			min = a.Min
		}
		if a.Max > max {
			max = a.Max
		}
	}
	return min, max, def, true
}

// SensorRange returns the sensor range of the object at addr/obj. Absolute
// values are scaled with the range of the object that sent them, falling
// back to the attached range of its function.
func (r *Registry) SensorRange(addr uint32, obj uint16) (min, max float64, ok bool) {
	b, ok := r.Binding(addr, obj)
	if !ok {
		return 0, 0, false
	}
	if b.Sensor.Max > b.Sensor.Min {
		return b.Sensor.Min, b.Sensor.Max, true
	}
	min, max, _, ok = r.ComputeRange(b.Function)
	return min, max, ok && max > min
}

// AttachedFunctions returns every function of a concrete instance that has
// at least one attachment, in ascending order.
func (r *Registry) AttachedFunctions(d funcnum.Domain, instance int) []funcnum.Number {
	var fns []funcnum.Number
	for fn, list := range r.attached {
		if len(list) == 0 || fn.Domain() != d || fn.Instance() != instance {
			continue
		}
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i] < fns[j] })
	return fns
}
