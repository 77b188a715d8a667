package registry

import (
	"testing"

	"axum-engine/fieldbus"
	"axum-engine/funcnum"
)

func fader(min, max float64) Object {
	spec := fieldbus.DataSpec{Type: fieldbus.UInt, Size: 2, Min: min, Max: max}
	return Object{Sensor: spec, Actuator: spec}
}

func newNodeWithObjects(t *testing.T, r *Registry, addr uint32, objs ...Object) {
	t.Helper()
	if _, added := r.AddNode(fieldbus.AddressEntry{Address: addr, ManufacturerID: 1, ProductID: 2}); !added {
		t.Fatalf("node %08x already present", addr)
	}
	if !r.SetObjects(addr, objs) {
		t.Fatalf("node %08x vanished", addr)
	}
}

func TestBindAndRebuild(t *testing.T) {
	r := New()
	level := funcnum.Make(funcnum.Module, 3, funcnum.ModuleLevel)

	newNodeWithObjects(t, r, 0x10, fader(0, 1023), fader(0, 255))
	newNodeWithObjects(t, r, 0x20, fader(0, 100))

	r.Bind(0x10, 1024, level, Latching)
	r.Bind(0x10, 1025, level, Latching)
	r.Bind(0x20, 1024, level, Latching)
	r.Rebuild(level)

	if got := r.AttachedCount(level); got != 3 {
		t.Fatalf("want 3 attachments, got %d", got)
	}
	min, max, _, ok := r.ComputeRange(level)
	if !ok || min != 0 || max != 1023 {
		t.Fatalf("want range 0..1023, got %v..%v ok=%v", min, max, ok)
	}

	t.Run("rebinding moves the object", func(t *testing.T) {
		pan := funcnum.Make(funcnum.Module, 3, funcnum.ModulePan)
		old, ok := r.Bind(0x10, 1025, pan, Latching)
		if !ok || old != level {
			t.Fatalf("want old binding %v, got %v", level, old)
		}
		r.RebuildAll([]funcnum.Number{old, pan, pan})
		if got := r.AttachedCount(level); got != 2 {
			t.Fatalf("want 2 level attachments, got %d", got)
		}
		if got := r.AttachedCount(pan); got != 1 {
			t.Fatalf("want 1 pan attachment, got %d", got)
		}
	})

	t.Run("objects without actuator are skipped", func(t *testing.T) {
		r2 := New()
		sensorOnly := Object{Sensor: fieldbus.DataSpec{Type: fieldbus.State, Size: 1, Max: 1}}
		newNodeWithObjects(t, r2, 0x30, sensorOnly)
		r2.Bind(0x30, 1024, level, 0)
		r2.Rebuild(level)
		if got := r2.AttachedCount(level); got != 0 {
			t.Fatalf("want 0 attachments, got %d", got)
		}
	})
}

func TestBindingRejectsReservedAndOutOfRange(t *testing.T) {
	r := New()
	newNodeWithObjects(t, r, 0x10, fader(0, 1023))

	if _, ok := r.Binding(0x10, fieldbus.ObjNumberOfObjects); ok {
		t.Fatal("reserved object must not resolve")
	}
	if _, ok := r.Binding(0x10, 1025); ok {
		t.Fatal("object beyond the table must not resolve")
	}
	if _, ok := r.Binding(0x99, 1024); ok {
		t.Fatal("unknown node must not resolve")
	}
	b, ok := r.Binding(0x10, 1024)
	if !ok || b.Function != funcnum.Unbound || b.TimeBeforeMomentary != Latching {
		t.Fatalf("want unbound latching object, got %+v ok=%v", b, ok)
	}
}

func TestRemoveNodeReturnsBoundFunctionsOnce(t *testing.T) {
	r := New()
	on := funcnum.Make(funcnum.Module, 0, funcnum.ModuleOnOff)
	label := funcnum.Make(funcnum.Module, 0, funcnum.ModuleLabel)

	newNodeWithObjects(t, r, 0x10, fader(0, 1), fader(0, 1), fader(0, 1))
	r.Bind(0x10, 1024, on, Latching)
	r.Bind(0x10, 1025, on, 500)
	r.Bind(0x10, 1026, label, Latching)
	r.RebuildAll([]funcnum.Number{on, label})

	fns, ok := r.RemoveNode(0x10)
	if !ok {
		t.Fatal("want node removed")
	}
	if len(fns) != 2 {
		t.Fatalf("want 2 distinct functions, got %v", fns)
	}

	r.RebuildAll(fns)
	if r.AttachedCount(on) != 0 || r.AttachedCount(label) != 0 {
		t.Fatal("want no attachments after removal")
	}
	if _, ok := r.RemoveNode(0x10); ok {
		t.Fatal("second removal must report false")
	}
}

func TestRememberSuppressesRepeats(t *testing.T) {
	r := New()
	meter := funcnum.Make(funcnum.Module, 1, funcnum.ModuleMeterLeft)
	newNodeWithObjects(t, r, 0x10, fader(0, 1023))
	r.Bind(0x10, 1024, meter, Latching)
	r.Rebuild(meter)

	v := fieldbus.UIntValue(512)
	if !r.Remember(meter, 0x10, 1024, v) {
		t.Fatal("first value must be sent")
	}
	if r.Remember(meter, 0x10, 1024, v) {
		t.Fatal("repeated value must be suppressed")
	}

	r.Rebuild(meter)
	if r.Remember(meter, 0x10, 1024, v) {
		t.Fatal("cached value must survive a rebuild")
	}
}

func TestHeldAndTouch(t *testing.T) {
	r := New()
	newNodeWithObjects(t, r, 0x10, fader(0, 1))

	r.Touch(0x10, 1024, 1000, true)
	if held, _ := r.Held(0x10, 1024, 1250); held != 250 {
		t.Fatalf("want 250, got %d", held)
	}

	r.Touch(0x10, 1024, 1300, false)
	if held, _ := r.Held(0x10, 1024, 1400); held != 400 {
		t.Fatalf("want snapshot kept at 1000, got held %d", held)
	}
}

func TestAttachedFunctions(t *testing.T) {
	r := New()
	newNodeWithObjects(t, r, 0x10, fader(0, 1), fader(0, 1), fader(0, 1))
	a := funcnum.Make(funcnum.Module, 4, funcnum.ModulePan)
	b := funcnum.Make(funcnum.Module, 4, funcnum.ModuleLevel)
	c := funcnum.Make(funcnum.Module, 5, funcnum.ModuleLevel)
	r.Bind(0x10, 1024, b, Latching)
	r.Bind(0x10, 1025, a, Latching)
	r.Bind(0x10, 1026, c, Latching)
	r.RebuildAll([]funcnum.Number{a, b, c})

	got := r.AttachedFunctions(funcnum.Module, 4)
	if len(got) != 2 || got[0] != b && got[0] != a {
		t.Fatalf("want functions of module 4, got %v", got)
	}
	if got[0] > got[1] {
		t.Fatalf("want ascending order, got %v", got)
	}
}
