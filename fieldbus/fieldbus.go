// Package fieldbus defines the data the engine exchanges with control
// surface nodes: typed values, object data specs, reserved object ids and
// the outbound primitives.
package fieldbus

import (
	"bytes"
	"fmt"
)

// DataType is the type of a sensor or actuator object.
type DataType uint8

const (
	NoData DataType = iota
	UInt
	SInt
	State
	Octets
	Float
	Bits
)

func (t DataType) String() string {
	switch t {
	case NoData:
		return "none"
	case UInt:
		return "uint"
	case SInt:
		return "sint"
	case State:
		return "state"
	case Octets:
		return "octets"
	case Float:
		return "float"
	case Bits:
		return "bits"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Value is a typed object value.
type Value struct {
	Type   DataType
	Int    int64
	Float  float64
	Octets []byte
}

func UIntValue(v uint32) Value   { return Value{Type: UInt, Int: int64(v)} }
func SIntValue(v int32) Value    { return Value{Type: SInt, Int: int64(v)} }
func FloatValue(v float64) Value { return Value{Type: Float, Float: v} }
func OctetsValue(s string) Value { return Value{Type: Octets, Octets: []byte(s)} }
func BitsValue(v uint64) Value   { return Value{Type: Bits, Int: int64(v)} }

// StateValue returns a State value, 1 for true.
func StateValue(b bool) Value {
	v := Value{Type: State}
	if b {
		v.Int = 1
	}
	return v
}

// Bool returns the value as a state.
func (v Value) Bool() bool {
	if v.Type == Float {
		return v.Float != 0
	}
	return v.Int != 0
}

// String returns octets as text.
func (v Value) String() string {
	switch v.Type {
	case Octets:
		return string(v.Octets)
	case Float:
		return fmt.Sprintf("%g", v.Float)
	}
	return fmt.Sprintf("%d", v.Int)
}

// Equal compares type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case Octets:
		return bytes.Equal(v.Octets, o.Octets)
	case Float:
		return v.Float == o.Float
	}
	return v.Int == o.Int
}

// DataSpec describes a sensor or actuator object.
type DataSpec struct {
	Type    DataType `json:"type"`
	Size    int      `json:"size"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Default float64  `json:"default,omitempty"`
}

// Reserved object ids. Custom objects start at CustomObjectBase.
const (
	ObjDescription           uint16 = 0
	ObjName                  uint16 = 1
	ObjManufacturerID        uint16 = 2
	ObjProductID             uint16 = 3
	ObjUniqueID              uint16 = 4
	ObjHardwareMajorRevision uint16 = 5
	ObjHardwareMinorRevision uint16 = 6
	ObjFirmwareMajorRevision uint16 = 7
	ObjFirmwareMinorRevision uint16 = 8
	ObjProtocolMajorRevision uint16 = 9
	ObjProtocolMinorRevision uint16 = 10
	ObjNumberOfObjects       uint16 = 11
	ObjDefaultEngineAddress  uint16 = 12
	ObjHardwareParentID      uint16 = 13
	ObjServiceRequest        uint16 = 14

	CustomObjectBase uint16 = 1024
)

// Broadcast as a fan-out target means every attached node.
const Broadcast uint32 = 0

// AddressEntry is one row of the field-bus address table.
type AddressEntry struct {
	Address        uint32
	ManufacturerID uint16
	ProductID      uint16
	UniqueID       uint16
}

// Valid reports whether the entry names a node.
func (a AddressEntry) Valid() bool { return a.Address != 0 }

// Sender is the outbound side of the field-bus layer. Implementations must
// not call back into the engine from inside these methods.
type Sender interface {
	SendActuatorValue(addr uint32, obj uint16, typ DataType, size int, v Value, reliable bool) error
	RequestSensorValue(addr uint32, obj uint16, force bool) error
}

// Discard is a Sender that drops everything.
type Discard struct{}

func (Discard) SendActuatorValue(uint32, uint16, DataType, int, Value, bool) error { return nil }
func (Discard) RequestSensorValue(uint32, uint16, bool) error                      { return nil }
