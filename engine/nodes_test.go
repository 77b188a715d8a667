package engine

import (
	"testing"

	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/routing"
	"axum-engine/store"
)

const ioCard uint32 = 0x30

func ioCardDocument() store.Document {
	doc := store.DefaultDocument()
	doc.Templates = []store.NodeTemplate{{
		ManufacturerID: 1,
		ProductID:      0x10,
		FirmwareMajor:  -1,
		SlotObject:     fieldbus.CustomObjectBase + 1,
		InputChannels:  8,
		OutputChannels: 8,
		Objects: []store.ObjectTemplate{
			{Description: "Key", Sensor: switchSpec, Actuator: switchSpec},
			{Description: "Slot", Sensor: fieldbus.DataSpec{Type: fieldbus.UInt, Size: 1, Max: 41}},
		},
	}}
	doc.NodeConfigs = []store.NodeConfig{{
		ManufacturerID: 1,
		ProductID:      0x10,
		UniqueID:       7,
		Bindings: []store.ObjectBinding{
			{Object: fieldbus.CustomObjectBase, Function: funcnum.Make(funcnum.Module, 4, funcnum.ModuleOnOff).String(), Momentary: new(int)},
		},
	}}
	return doc
}

func TestNodeLifecycle(t *testing.T) {
	mem := store.NewMemory(ioCardDocument())
	out := &fakeSender{}
	bp := &countingBackplane{}
	e := New(Options{Sender: out, Backplane: bp, Store: mem})
	e.View(func(st *mixer.State) {
		st.Sources[0].Label = "Mic 1"
		st.Sources[0].Inputs[0] = mixer.IOBinding{Address: ioCard, Channel: 1}
		st.Sources[0].Inputs[1] = mixer.IOBinding{Address: ioCard, Channel: 2}
		st.Modules[4].SelectedSource = mixer.MatrixOfSource(0)
		st.DSPCards[1].ExternSources[2] = mixer.MatrixOfSource(0)

		// unrelated to the card
		st.Sources[1].Inputs[0] = mixer.IOBinding{Address: 0x31, Channel: 0}
		st.Modules[5].SelectedSource = mixer.MatrixOfSource(1)
		st.DSPCards[2].ExternSources[0] = mixer.MatrixOfSource(1)
	})
	// module 4's input pair plus the eight extern pairs of DSP card 1
	const reroutes = 2 + 2*mixer.NumExternSources
	related := func(to int) bool {
		first := routing.ModuleChannel(4, routing.CardModuleInput)
		if to == first || to == first+1 {
			return true
		}
		lo := routing.CardChannel(1, routing.CardExternInput, 0)
		return to >= lo && to < lo+2*mixer.NumExternSources
	}
	checkReroutes := func(t *testing.T, tos []int) {
		t.Helper()
		if len(tos) != reroutes {
			t.Fatalf("want %d connects, got %d", reroutes, len(tos))
		}
		for _, to := range tos {
			if !related(to) {
				t.Fatalf("want only module 4 and card 1 externs re-routed, got channel %d", to)
			}
		}
	}
	entry := fieldbus.AddressEntry{Address: ioCard, ManufacturerID: 1, ProductID: 0x10, UniqueID: 7}
	onOff := funcnum.Make(funcnum.Module, 4, funcnum.ModuleOnOff)

	e.OnAddressTableChange(fieldbus.AddressEntry{}, entry)
	if out.requested(ioCard, fieldbus.ObjFirmwareMajorRevision) != 1 || out.requested(ioCard, fieldbus.ObjNumberOfObjects) != 1 {
		t.Fatalf("want firmware and object count requested, got %v", out.requests)
	}

	t.Run("template loads once both answers arrive", func(t *testing.T) {
		e.OnSensorDataResponse(ioCard, fieldbus.ObjFirmwareMajorRevision, fieldbus.UIntValue(2))
		if n, _ := e.Registry().Node(ioCard); n.InitFinished {
			t.Fatal("want node waiting for its object count")
		}
		e.OnSensorDataResponse(ioCard, fieldbus.ObjNumberOfObjects, fieldbus.UIntValue(2))
		n, _ := e.Registry().Node(ioCard)
		if !n.InitFinished {
			t.Fatal("want node initialized")
		}
		if got := e.Registry().AttachedCount(onOff); got != 1 {
			t.Fatalf("want 1 attachment, got %d", got)
		}
		if nodes := e.Snapshot().Nodes; len(nodes) != 1 || nodes[0].ID != n.ID {
			t.Fatalf("want node %s in status, got %+v", n.ID, nodes)
		}
		if b, _ := e.Registry().Binding(ioCard, fieldbus.CustomObjectBase); b.TimeBeforeMomentary != 0 {
			t.Fatalf("want zero hold time kept momentary, got %d", b.TimeBeforeMomentary)
		}
		if len(out.to(ioCard, fieldbus.CustomObjectBase)) != 1 {
			t.Fatal("want initial value sent to the bound key")
		}
		if out.requested(ioCard, fieldbus.CustomObjectBase+1) != 1 {
			t.Fatal("want slot object requested")
		}
	})

	t.Run("slot response registers the card", func(t *testing.T) {
		before := bp.connects
		e.OnSensorDataResponse(ioCard, fieldbus.CustomObjectBase+1, fieldbus.UIntValue(3))
		e.View(func(st *mixer.State) {
			if st.RackSlots[3].Address != ioCard || st.RackSlots[3].InputChannels != 8 {
				t.Fatalf("want card in slot 3, got %+v", st.RackSlots[3])
			}
		})
		if slots := mem.Document().Slots; len(slots) != 1 || slots[0].Index != 3 {
			t.Fatalf("want slot 3 stored, got %+v", slots)
		}
		checkReroutes(t, bp.tos[before:])
	})

	t.Run("sensor events dispatch", func(t *testing.T) {
		e.OnSensorChanged(ioCard, fieldbus.CustomObjectBase, fieldbus.StateValue(true))
		e.View(func(st *mixer.State) {
			if !st.Modules[4].On {
				t.Fatal("want module 4 on")
			}
		})
	})

	t.Run("removal cascades", func(t *testing.T) {
		before := bp.connects
		e.OnAddressTableChange(entry, fieldbus.AddressEntry{})
		if _, ok := e.Registry().Node(ioCard); ok {
			t.Fatal("want node gone")
		}
		if got := e.Registry().AttachedCount(onOff); got != 0 {
			t.Fatalf("want 0 attachments, got %d", got)
		}
		e.View(func(st *mixer.State) {
			if st.RackSlots[3] != (mixer.RackSlot{}) {
				t.Fatalf("want slot 3 cleared, got %+v", st.RackSlots[3])
			}
		})
		if slots := mem.Document().Slots; len(slots) != 0 {
			t.Fatalf("want no stored slots, got %+v", slots)
		}
		checkReroutes(t, bp.tos[before:])
	})
}

func TestTemplateMismatchReprobes(t *testing.T) {
	out := &fakeSender{}
	e := New(Options{Sender: out, Store: store.NewMemory(ioCardDocument())})
	e.OnAddressTableChange(fieldbus.AddressEntry{}, fieldbus.AddressEntry{Address: ioCard, ManufacturerID: 1, ProductID: 0x10, UniqueID: 7})
	e.OnSensorDataResponse(ioCard, fieldbus.ObjFirmwareMajorRevision, fieldbus.UIntValue(2))
	e.OnSensorDataResponse(ioCard, fieldbus.ObjNumberOfObjects, fieldbus.UIntValue(5))

	if n, _ := e.Registry().Node(ioCard); n.InitFinished {
		t.Fatal("want node held back on object count mismatch")
	}
	for i := 0; i < ReprobeDivider; i++ {
		e.Tick()
	}
	if got := out.requested(ioCard, fieldbus.ObjNumberOfObjects); got != 2 {
		t.Fatalf("want object count requested again, got %d requests", got)
	}
	if n, _ := e.Registry().Node(ioCard); n.ProbeTicks != 1 {
		t.Fatalf("want 1 probe, got %d", n.ProbeTicks)
	}
}

func TestUnknownNodeIsIgnored(t *testing.T) {
	out := &fakeSender{}
	e := New(Options{Sender: out})
	e.OnSensorChanged(0x99, fieldbus.CustomObjectBase, fieldbus.StateValue(true))
	e.OnSensorDataResponse(0x99, fieldbus.ObjNumberOfObjects, fieldbus.UIntValue(1))
	if len(out.sent) != 0 || len(out.requests) != 0 {
		t.Fatalf("want nothing sent, got %d values and %d requests", len(out.sent), len(out.requests))
	}
}
