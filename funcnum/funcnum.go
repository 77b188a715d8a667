// Package funcnum encodes and decodes the 32-bit function numbers that
// address every controllable or displayable mixer parameter.
//
// Wire layout: (domain << 24) | (instance << 12) | sub.
package funcnum

import "fmt"

// Domain is the top byte of a function number.
type Domain uint8

const (
	Module Domain = iota
	Buss
	MonitorBuss
	Console
	Global
	Source
	Destination

	numDomains
)

// Instance counts per domain.
const (
	NumModules      = 128
	NumBusses       = 16
	NumMonitors     = 16
	NumConsoles     = 4
	NumSources      = 1280
	NumDestinations = 1280
)

// Number is an encoded function number.
type Number uint32

// Unbound marks an object that is not attached to any function.
const Unbound Number = 0xFFFFFFFF

const (
	instanceMask = 0xFFF
	subMask      = 0xFFF
)

// Make encodes a function number. Values are masked to their field width.
func Make(d Domain, instance, sub int) Number {
	return Number(uint32(d)<<24 | uint32(instance&instanceMask)<<12 | uint32(sub&subMask))
}

func (n Number) Domain() Domain { return Domain(n >> 24) }
func (n Number) Instance() int  { return int(n>>12) & instanceMask }
func (n Number) Sub() int       { return int(n) & subMask }

func (d Domain) String() string {
	switch d {
	case Module:
		return "module"
	case Buss:
		return "buss"
	case MonitorBuss:
		return "monitor"
	case Console:
		return "console"
	case Global:
		return "global"
	case Source:
		return "source"
	case Destination:
		return "destination"
	}
	return fmt.Sprintf("domain(%d)", uint8(d))
}

// InstanceCount returns the number of concrete instances of a domain.
func InstanceCount(d Domain) int {
	switch d {
	case Module:
		return NumModules
	case Buss:
		return NumBusses
	case MonitorBuss:
		return NumMonitors
	case Console:
		return NumConsoles
	case Global:
		return 1
	case Source:
		return NumSources
	case Destination:
		return NumDestinations
	}
	return 0
}

// HasVirtual reports whether the domain reserves the console-selected
// instance range [N, N+4).
func HasVirtual(d Domain) bool {
	switch d {
	case Module, Buss, MonitorBuss, Source, Destination:
		return true
	}
	return false
}

// SubCount returns the number of sub-functions defined for a domain.
func SubCount(d Domain) int {
	switch d {
	case Module:
		return moduleSubCount
	case Buss:
		return bussSubCount
	case MonitorBuss:
		return monitorSubCount
	case Console:
		return consoleSubCount
	case Global:
		return globalSubCount
	case Source:
		return sourceSubCount
	case Destination:
		return destinationSubCount
	}
	return 0
}

// InstanceRef is either a concrete instance index or "whatever console
// Console currently has selected".
type InstanceRef struct {
	Index    int
	Console  int
	Selected bool
}

// Concrete returns a reference to instance i.
func Concrete(i int) InstanceRef { return InstanceRef{Index: i, Console: -1} }

// ConsoleSelected returns a reference to console c's selection.
func ConsoleSelected(c int) InstanceRef { return InstanceRef{Index: -1, Console: c, Selected: true} }

// Func is a decoded function number.
type Func struct {
	Domain   Domain
	Instance InstanceRef
	Sub      int
}

// Decode validates and decodes n. Function numbers with an unknown domain,
// an instance outside both the concrete and virtual ranges, or an undefined
// sub-function are rejected.
func Decode(n Number) (Func, bool) {
	if n == Unbound {
		return Func{}, false
	}
	d := n.Domain()
	if d >= numDomains {
		return Func{}, false
	}
	inst := n.Instance()
	limit := InstanceCount(d)

	var ref InstanceRef
	switch {
	case inst < limit:
		ref = Concrete(inst)
	case HasVirtual(d) && inst < limit+NumConsoles:
		ref = ConsoleSelected(inst - limit)
	default:
		return Func{}, false
	}

	sub := n.Sub()
	if sub >= SubCount(d) {
		return Func{}, false
	}
	return Func{Domain: d, Instance: ref, Sub: sub}, true
}

// Number encodes f back to its wire form.
func (f Func) Number() Number {
	if f.Instance.Selected {
		return Make(f.Domain, InstanceCount(f.Domain)+f.Instance.Console, f.Sub)
	}
	return Make(f.Domain, f.Instance.Index, f.Sub)
}

// Index returns the concrete instance index, or -1 for a virtual reference.
func (f Func) Index() int {
	if f.Instance.Selected {
		return -1
	}
	return f.Instance.Index
}

// Selection answers which instance a console currently has selected.
// A negative result means nothing is selected.
type Selection interface {
	SelectedInstance(d Domain, console int) int
}

// Resolve turns a console-selected reference into a concrete one.
// It fails if the console has no selection or the selection is stale.
func (f Func) Resolve(sel Selection) (Func, bool) {
	if !f.Instance.Selected {
		return f, f.Instance.Index >= 0 && f.Instance.Index < InstanceCount(f.Domain)
	}
	c := f.Instance.Console
	if c < 0 || c >= NumConsoles {
		return f, false
	}
	idx := sel.SelectedInstance(f.Domain, c)
	if idx < 0 || idx >= InstanceCount(f.Domain) {
		return f, false
	}
	f.Instance = Concrete(idx)
	return f, true
}

// Virtual returns the function number bound to console c's selection.
func Virtual(d Domain, console, sub int) Number {
	return Make(d, InstanceCount(d)+console, sub)
}

// With returns f with a different sub-function.
func (f Func) With(sub int) Func {
	f.Sub = sub
	return f
}
