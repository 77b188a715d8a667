package engine

import (
	"testing"

	"axum-engine/fieldbus"
	"axum-engine/funcnum"
	"axum-engine/mixer"
	"axum-engine/registry"
	"axum-engine/store"
)

const testNode uint32 = 0x10

var (
	switchSpec  = fieldbus.DataSpec{Type: fieldbus.State, Size: 1, Max: 1}
	faderSpec   = fieldbus.DataSpec{Type: fieldbus.UInt, Size: 2, Max: 1023}
	encoderSpec = fieldbus.DataSpec{Type: fieldbus.SInt, Size: 1, Min: -128, Max: 127}
	textSpec    = fieldbus.DataSpec{Type: fieldbus.Octets, Size: 8}
	levelSpec   = fieldbus.DataSpec{Type: fieldbus.UInt, Size: 1, Max: 7}
	noSpec      = fieldbus.DataSpec{}
)

type sentValue struct {
	addr uint32
	obj  uint16
	v    fieldbus.Value
}

type fakeSender struct {
	sent     []sentValue
	requests []objectKey
}

func (f *fakeSender) SendActuatorValue(addr uint32, obj uint16, _ fieldbus.DataType, _ int, v fieldbus.Value, _ bool) error {
	f.sent = append(f.sent, sentValue{addr, obj, v})
	return nil
}

func (f *fakeSender) RequestSensorValue(addr uint32, obj uint16, _ bool) error {
	f.requests = append(f.requests, objectKey{addr, obj})
	return nil
}

// to returns every value sent to one object, oldest first.
func (f *fakeSender) to(addr uint32, obj uint16) []fieldbus.Value {
	var vs []fieldbus.Value
	for _, s := range f.sent {
		if s.addr == addr && s.obj == obj {
			vs = append(vs, s.v)
		}
	}
	return vs
}

func (f *fakeSender) requested(addr uint32, obj uint16) int {
	n := 0
	for _, r := range f.requests {
		if r == (objectKey{addr, obj}) {
			n++
		}
	}
	return n
}

type countingBackplane struct {
	connects int
	tos      []int
}

func (b *countingBackplane) Connect(from, to int) error {
	b.connects++
	b.tos = append(b.tos, to)
	return nil
}

// binding is one object of the test node. Object ids are assigned from
// CustomObjectBase in order.
type binding struct {
	fn        funcnum.Number
	sensor    fieldbus.DataSpec
	actuator  fieldbus.DataSpec
	momentary int
}

func obj(i int) uint16 { return fieldbus.CustomObjectBase + uint16(i) }

type harness struct {
	e     *Engine
	out   *fakeSender
	bp    *countingBackplane
	clock int64
}

func newHarness(t *testing.T, st store.Store, bindings ...binding) *harness {
	t.Helper()
	reg := registry.New()
	if _, ok := reg.AddNode(fieldbus.AddressEntry{Address: testNode, ManufacturerID: 1, ProductID: 1}); !ok {
		t.Fatal("test node not added")
	}
	objs := make([]registry.Object, len(bindings))
	for i, b := range bindings {
		objs[i] = registry.Object{Sensor: b.sensor, Actuator: b.actuator}
	}
	reg.SetObjects(testNode, objs)
	var fns []funcnum.Number
	for i, b := range bindings {
		if _, ok := reg.Bind(testNode, obj(i), b.fn, b.momentary); !ok {
			t.Fatalf("bind object %d failed", obj(i))
		}
		fns = append(fns, b.fn)
	}
	reg.RebuildAll(fns)

	h := &harness{out: &fakeSender{}, bp: &countingBackplane{}}
	h.e = New(Options{
		Registry:  reg,
		Sender:    h.out,
		Backplane: h.bp,
		Store:     st,
		Now:       func() int64 { return h.clock },
	})
	return h
}

func (h *harness) sense(i int, v fieldbus.Value) {
	h.e.OnSensorChanged(testNode, obj(i), v)
}

func TestMomentaryToggle(t *testing.T) {
	tests := []struct {
		name      string
		current   bool
		press     bool
		held      int64
		threshold int
		want      bool
		changed   bool
	}{
		{"press toggles on", false, true, 0, 500, true, true},
		{"press toggles off", true, true, 0, 500, false, true},
		{"release at threshold toggles back", true, false, 500, 500, false, true},
		{"release before threshold keeps", true, false, 499, 500, true, false},
		{"latching release keeps", true, false, 10000, registry.Latching, true, false},
		{"zero threshold always momentary", true, false, 0, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := MomentaryToggle(tt.current, tt.press, tt.held, tt.threshold)
			if got != tt.want || changed != tt.changed {
				t.Fatalf("want %v/%v, got %v/%v", tt.want, tt.changed, got, changed)
			}
		})
	}
}

func TestModuleOnOffMomentary(t *testing.T) {
	onOff := funcnum.Make(funcnum.Module, 0, funcnum.ModuleOnOff)
	h := newHarness(t, nil,
		binding{fn: onOff, sensor: switchSpec, actuator: switchSpec, momentary: 500},
		binding{fn: funcnum.Make(funcnum.Module, 1, funcnum.ModuleOnOff), sensor: switchSpec, actuator: switchSpec, momentary: registry.Latching},
	)
	on := func(m int) bool {
		var v bool
		h.e.View(func(st *mixer.State) { v = st.Modules[m].On })
		return v
	}

	t.Run("held for the threshold acts momentary", func(t *testing.T) {
		h.clock = 1000
		h.sense(0, fieldbus.StateValue(true))
		if !on(0) {
			t.Fatal("want module on after press")
		}
		h.clock = 1500
		h.sense(0, fieldbus.StateValue(false))
		if on(0) {
			t.Fatal("want module off after release held 500 ms")
		}
	})

	t.Run("short press latches", func(t *testing.T) {
		h.clock = 2000
		h.sense(0, fieldbus.StateValue(true))
		h.clock = 2499
		h.sense(0, fieldbus.StateValue(false))
		if !on(0) {
			t.Fatal("want module on after release held 499 ms")
		}
	})

	t.Run("latching binding ignores release", func(t *testing.T) {
		h.clock = 3000
		h.sense(1, fieldbus.StateValue(true))
		h.clock = 9000
		h.sense(1, fieldbus.StateValue(false))
		if !on(1) {
			t.Fatal("want latching module on")
		}
	})

	t.Run("actuator follows", func(t *testing.T) {
		vs := h.out.to(testNode, obj(0))
		if len(vs) != 3 {
			t.Fatalf("want 3 sends, got %d", len(vs))
		}
		if !vs[len(vs)-1].Bool() {
			t.Fatal("want last sent state on")
		}
	})

	t.Run("wrong data type is ignored", func(t *testing.T) {
		before := len(h.out.sent)
		h.sense(0, fieldbus.UIntValue(1))
		if len(h.out.sent) != before || !on(0) {
			t.Fatal("want UInt on a state object ignored")
		}
	})
}

func TestEQLevelClamp(t *testing.T) {
	eqLevel := funcnum.Make(funcnum.Module, 0, funcnum.ModuleEQ(0, funcnum.EQLevel))
	control := funcnum.Make(funcnum.Module, 0, funcnum.ModuleControlBase)
	h := newHarness(t, nil,
		binding{fn: eqLevel, sensor: encoderSpec, actuator: textSpec, momentary: registry.Latching},
		binding{fn: control, sensor: encoderSpec, actuator: textSpec, momentary: registry.Latching},
	)
	h.e.View(func(st *mixer.State) {
		st.Modules[0].EQ[0].Level = 17.5
		st.Consoles[0].ControlMode = funcnum.SubMode(funcnum.ModuleEQ(0, funcnum.EQLevel))
	})

	h.sense(0, fieldbus.SIntValue(50))

	var level float64
	h.e.View(func(st *mixer.State) { level = st.Modules[0].EQ[0].Level })
	if level != 18 {
		t.Fatalf("want level clamped to 18, got %v", level)
	}
	for i := 0; i < 2; i++ {
		vs := h.out.to(testNode, obj(i))
		if len(vs) != 1 {
			t.Fatalf("object %d: want 1 send, got %d", obj(i), len(vs))
		}
		if got := vs[0].String(); got != " 18.0dB " {
			t.Fatalf("object %d: want %q, got %q", obj(i), " 18.0dB ", got)
		}
	}

	t.Run("no change sends nothing", func(t *testing.T) {
		before := len(h.out.sent)
		h.sense(0, fieldbus.SIntValue(50))
		if len(h.out.sent) != before {
			t.Fatalf("want no sends, got %d", len(h.out.sent)-before)
		}
	})

	t.Run("control encoder drives the mode parameter", func(t *testing.T) {
		h.sense(1, fieldbus.SIntValue(-20))
		h.e.View(func(st *mixer.State) { level = st.Modules[0].EQ[0].Level })
		if level != 16 {
			t.Fatalf("want 16, got %v", level)
		}
	})

	t.Run("float outside the range is rejected", func(t *testing.T) {
		h.e.Apply(eqLevel, fieldbus.FloatValue(40))
		h.e.View(func(st *mixer.State) { level = st.Modules[0].EQ[0].Level })
		if level != 16 {
			t.Fatalf("want 16, got %v", level)
		}
	})
}

func TestAbsoluteWritesAreIdempotent(t *testing.T) {
	tests := []struct {
		name string
		fn   funcnum.Number
		v    uint32
	}{
		{"module level", funcnum.Make(funcnum.Module, 2, funcnum.ModuleLevel), 700},
		{"buss master", funcnum.Make(funcnum.Buss, 1, funcnum.BussMasterLevel), 600},
		{"monitor phones", funcnum.Make(funcnum.MonitorBuss, 0, funcnum.MonitorPhonesLevel), 800},
		{"source gain", funcnum.Make(funcnum.Source, 4, funcnum.SourceGain), 900},
		{"destination level", funcnum.Make(funcnum.Destination, 3, funcnum.DestinationLevel), 300},
		{"console module select", funcnum.Make(funcnum.Console, 0, funcnum.ConsoleModuleSelect), 3},
		{"global redlight", funcnum.Make(funcnum.Global, 0, funcnum.GlobalRedlightBase+1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, binding{fn: tt.fn, sensor: faderSpec, actuator: textSpec, momentary: registry.Latching})

			h.sense(0, fieldbus.UIntValue(tt.v))
			if got := len(h.out.to(testNode, obj(0))); got != 1 {
				t.Fatalf("first write: want 1 send, got %d", got)
			}
			h.sense(0, fieldbus.UIntValue(tt.v))
			if got := len(h.out.to(testNode, obj(0))); got != 1 {
				t.Fatalf("repeated write: want no further send, got %d", got-1)
			}
		})
	}
}

func TestFreqStepZeroDelta(t *testing.T) {
	if got := freqStep(800, 0); got != 800 {
		t.Fatalf("want 800, got %v", got)
	}
	if got := freqStep(800, 1); got != 808 {
		t.Fatalf("want 808, got %v", got)
	}
	if got := freqStep(20, -1); got != 19 {
		t.Fatalf("want nudge to 19, got %v", got)
	}
}

func TestBussMasterAbsolute(t *testing.T) {
	master := funcnum.Make(funcnum.Buss, 0, funcnum.BussMasterLevel)
	h := newHarness(t, nil, binding{fn: master, sensor: faderSpec, actuator: faderSpec, momentary: registry.Latching})
	h.e.View(func(st *mixer.State) { st.Busses[0].MasterLevel = -20 })

	h.sense(0, fieldbus.UIntValue(1023))

	var level float64
	h.e.View(func(st *mixer.State) { level = st.Busses[0].MasterLevel })
	if level != 0 {
		t.Fatalf("want 0 dB, got %v", level)
	}
	vs := h.out.to(testNode, obj(0))
	if len(vs) != 1 || vs[0].Int != 1023 {
		t.Fatalf("want one send of 1023, got %v", vs)
	}
}

func sendOn(m, b int) funcnum.Number {
	return funcnum.Make(funcnum.Module, m, funcnum.ModuleBuss(b, funcnum.SendOn))
}

func sendOff(m, b int) funcnum.Number {
	return funcnum.Make(funcnum.Module, m, funcnum.ModuleBuss(b, funcnum.SendOff))
}

func TestBussClasses(t *testing.T) {
	press := fieldbus.StateValue(true)

	t.Run("interlock", func(t *testing.T) {
		h := newHarness(t, nil)
		h.e.View(func(st *mixer.State) { st.Busses[2].Interlock = true })
		h.e.Apply(sendOn(0, 2), press)
		h.e.Apply(sendOn(1, 2), press)
		h.e.View(func(st *mixer.State) {
			if st.Modules[0].Buss[2].On {
				t.Fatal("want module 0 switched off by interlock")
			}
			if !st.Modules[1].Buss[2].On {
				t.Fatal("want module 1 on")
			}
		})
	})

	t.Run("exclusive dump restores sends", func(t *testing.T) {
		h := newHarness(t, nil)
		h.e.View(func(st *mixer.State) {
			st.Busses[3].Exclusive = mixer.ExclusiveDump
			st.Modules[0].Buss[0].On = true
		})
		h.e.Apply(sendOn(0, 3), press)
		h.e.View(func(st *mixer.State) {
			if st.Modules[0].Buss[0].On || st.Modules[0].ExclusiveBuss != 3 {
				t.Fatalf("want other sends suppressed, got on=%v exclusive=%d", st.Modules[0].Buss[0].On, st.Modules[0].ExclusiveBuss)
			}
		})
		h.e.Apply(sendOff(0, 3), press)
		h.e.View(func(st *mixer.State) {
			if !st.Modules[0].Buss[0].On || st.Modules[0].ExclusiveBuss != -1 {
				t.Fatal("want buss 0 send restored")
			}
		})
	})

	t.Run("monitor auto switch", func(t *testing.T) {
		h := newHarness(t, nil)
		h.e.View(func(st *mixer.State) {
			st.Monitors[0].AutoSwitch[4] = true
			st.Monitors[0].DefaultSelection = 0
			st.Monitors[0].Buss[0] = true
			st.Monitors[0].Interlock = true
		})
		h.e.Apply(sendOn(0, 4), press)
		h.e.View(func(st *mixer.State) {
			if !st.Monitors[0].Buss[4] || st.Monitors[0].Buss[0] {
				t.Fatal("want monitor switched to buss 4 only")
			}
		})
		h.e.Apply(sendOff(0, 4), press)
		h.e.View(func(st *mixer.State) {
			if st.Monitors[0].Buss[4] || !st.Monitors[0].Buss[0] {
				t.Fatal("want monitor back on its default input")
			}
		})
	})

	routingPreset := func(m int) funcnum.Number {
		return funcnum.Make(funcnum.Module, m, funcnum.ModuleRoutingPreset)
	}

	t.Run("routing preset respects interlock", func(t *testing.T) {
		h := newHarness(t, nil)
		h.e.View(func(st *mixer.State) {
			st.Busses[2].Interlock = true
			st.Modules[1].RoutingPresets[0].Buss[2] = mixer.RoutingBuss{Use: true, On: true, Balance: 512}
		})
		h.e.Apply(sendOn(0, 2), press)
		h.e.Apply(routingPreset(1), fieldbus.UIntValue(1))
		h.e.View(func(st *mixer.State) {
			if st.Modules[0].Buss[2].On {
				t.Fatal("want module 0 switched off by interlock")
			}
			if !st.Modules[1].Buss[2].On || st.Modules[1].RoutingPreset != 1 {
				t.Fatalf("want module 1 on through preset 1, got on=%v preset=%d", st.Modules[1].Buss[2].On, st.Modules[1].RoutingPreset)
			}
		})
	})

	t.Run("routing preset drives comm buss", func(t *testing.T) {
		h := newHarness(t, nil)
		h.e.View(func(st *mixer.State) {
			st.Busses[5].Exclusive = mixer.ExclusiveComm
			st.Sources[0].RelatedDestination = 3
			st.Modules[0].SelectedSource = mixer.MatrixOfSource(0)
			st.Modules[0].RoutingPresets[0].Buss[5] = mixer.RoutingBuss{Use: true, On: true, Balance: 512}
		})
		h.e.Apply(routingPreset(0), fieldbus.UIntValue(1))
		h.e.View(func(st *mixer.State) {
			if !st.Modules[0].Buss[5].On {
				t.Fatal("want comm send on")
			}
			if !st.Sources[0].Comm {
				t.Fatal("want source talking on comm")
			}
			if d := st.Destinations[3]; !d.CommActive || d.CommBuss != 5 {
				t.Fatalf("want destination 3 on comm buss 5, got active=%v buss=%d", d.CommActive, d.CommBuss)
			}
		})
	})

	t.Run("routing preset releases its dump buss", func(t *testing.T) {
		h := newHarness(t, nil)
		h.e.View(func(st *mixer.State) {
			st.Busses[3].Exclusive = mixer.ExclusiveDump
			st.Modules[0].Buss[0].On = true
			st.Modules[0].RoutingPresets[0].Buss[3] = mixer.RoutingBuss{Use: true, On: true, Balance: 512}
			st.Modules[0].RoutingPresets[1].Buss[3] = mixer.RoutingBuss{Use: true, Balance: 512}
		})
		h.e.Apply(routingPreset(0), fieldbus.UIntValue(1))
		h.e.View(func(st *mixer.State) {
			if st.Modules[0].ExclusiveBuss != 3 || !st.Modules[0].Buss[0].PreviousOn {
				t.Fatalf("want dump snapshot on buss 3, got exclusive=%d", st.Modules[0].ExclusiveBuss)
			}
		})
		h.e.Apply(routingPreset(0), fieldbus.UIntValue(2))
		h.e.View(func(st *mixer.State) {
			if st.Modules[0].Buss[3].On || st.Modules[0].ExclusiveBuss != -1 {
				t.Fatalf("want dump buss released, got on=%v exclusive=%d", st.Modules[0].Buss[3].On, st.Modules[0].ExclusiveBuss)
			}
		})
	})
}

func TestSourceDeferredWhileActive(t *testing.T) {
	h := newHarness(t, nil)
	src := mixer.MatrixOfSource(1)
	h.e.View(func(st *mixer.State) {
		st.Modules[0].On = true
		st.Modules[0].FaderLevel = 0
	})

	h.e.Apply(funcnum.Make(funcnum.Module, 0, funcnum.ModuleSource), fieldbus.UIntValue(uint32(src)))
	h.e.View(func(st *mixer.State) {
		if st.Modules[0].SelectedSource != 0 || st.Modules[0].WaitingSource != src {
			t.Fatalf("want source %d waiting, got selected %d waiting %d", src, st.Modules[0].SelectedSource, st.Modules[0].WaitingSource)
		}
	})
	if h.bp.connects != 0 {
		t.Fatalf("want no routing while waiting, got %d connects", h.bp.connects)
	}

	h.e.Apply(funcnum.Make(funcnum.Module, 0, funcnum.ModuleOff), fieldbus.StateValue(true))
	h.e.View(func(st *mixer.State) {
		if st.Modules[0].SelectedSource != src || st.Modules[0].WaitingSource != -1 {
			t.Fatalf("want source %d applied, got selected %d waiting %d", src, st.Modules[0].SelectedSource, st.Modules[0].WaitingSource)
		}
	})
	if h.bp.connects == 0 {
		t.Fatal("want module source routed")
	}
}

func TestSourcePoolStepping(t *testing.T) {
	h := newHarness(t, nil)
	h.e.View(func(st *mixer.State) {
		for s, label := range []string{"Mic 1", "Mic 2", "CD"} {
			st.Sources[s].Label = label
		}
		st.Sources[1].Pool = 1 << 1
		st.RebuildMatrixPositions()
		st.Modules[0].SelectedSource = mixer.MatrixOfSource(0)
		st.Consoles[0].SourcePool = 0
	})
	step := func(d int32) int {
		h.e.Apply(funcnum.Make(funcnum.Module, 0, funcnum.ModuleSource), fieldbus.SIntValue(d))
		var ms int
		h.e.View(func(st *mixer.State) { ms = st.Modules[0].SelectedSource })
		return ms
	}

	if got, want := step(1), mixer.MatrixOfSource(2); got != want {
		t.Fatalf("pool 0: want %d, got %d", want, got)
	}
	h.e.View(func(st *mixer.State) { st.Consoles[0].SourcePool = 1 })
	if got, want := step(-1), mixer.MatrixOfSource(1); got != want {
		t.Fatalf("pool 1: want %d, got %d", want, got)
	}
}

func TestPresetIndicatorRefresh(t *testing.T) {
	indicator := funcnum.Make(funcnum.Module, 0, funcnum.ModulePresetBase)
	h := newHarness(t, nil, binding{fn: indicator, sensor: switchSpec, actuator: switchSpec, momentary: registry.Latching})
	h.e.View(func(st *mixer.State) {
		st.ProcessingPresets = []mixer.Preset{{Label: "Voice", Data: mixer.ProcessingData{UseGain: true, Gain: 6}}}
		st.RebuildPresetPositions()
		st.Modules[0].Presets[0] = mixer.ModulePreset{Source: -1, ProcessingPreset: 1}
	})
	gain := funcnum.Make(funcnum.Module, 0, funcnum.ModuleGain)

	h.e.Apply(gain, fieldbus.FloatValue(6))
	h.e.Apply(gain, fieldbus.FloatValue(3))
	h.e.Apply(gain, fieldbus.FloatValue(2))

	vs := h.out.to(testNode, obj(0))
	if len(vs) != 2 {
		t.Fatalf("want 2 indicator sends, got %d", len(vs))
	}
	if !vs[0].Bool() || vs[1].Bool() {
		t.Fatalf("want on then off, got %v", vs)
	}

	t.Run("pressing the slot recalls it", func(t *testing.T) {
		h.sense(0, fieldbus.StateValue(true))
		h.e.View(func(st *mixer.State) {
			if st.Modules[0].Gain != 6 {
				t.Fatalf("want gain 6, got %v", st.Modules[0].Gain)
			}
		})
		vs := h.out.to(testNode, obj(0))
		if !vs[len(vs)-1].Bool() {
			t.Fatal("want indicator on")
		}
	})
}

func TestChipcardLogin(t *testing.T) {
	doc := store.DefaultDocument()
	doc.Accounts = []store.Account{{User: "anna", Pass: "secret", Level: 3}}
	octets := fieldbus.DataSpec{Type: fieldbus.Octets, Size: 16}
	h := newHarness(t, store.NewMemory(doc),
		binding{fn: funcnum.Make(funcnum.Console, 0, funcnum.ConsoleChipcardUser), sensor: octets, actuator: noSpec, momentary: registry.Latching},
		binding{fn: funcnum.Make(funcnum.Console, 0, funcnum.ConsoleChipcardPass), sensor: octets, actuator: noSpec, momentary: registry.Latching},
		binding{fn: funcnum.Make(funcnum.Console, 0, funcnum.ConsoleUpdateUserPass), sensor: noSpec, actuator: textSpec, momentary: registry.Latching},
		binding{fn: funcnum.Make(funcnum.Console, 0, funcnum.ConsoleUserLevel), sensor: noSpec, actuator: levelSpec, momentary: registry.Latching},
	)

	h.sense(0, fieldbus.OctetsValue("anna"))
	h.sense(1, fieldbus.OctetsValue("secret"))

	if n := len(h.out.to(testNode, obj(2))); n != 1 {
		t.Fatalf("want 1 user/pass update, got %d", n)
	}
	lv := h.out.to(testNode, obj(3))
	if len(lv) != 1 || lv[0].Int != 3 {
		t.Fatalf("want one user level 3, got %v", lv)
	}

	t.Run("wrong password changes nothing", func(t *testing.T) {
		before := len(h.out.sent)
		h.sense(1, fieldbus.OctetsValue("nope"))
		if len(h.out.sent) != before {
			t.Fatalf("want no sends, got %d", len(h.out.sent)-before)
		}
		h.e.View(func(st *mixer.State) {
			if st.Consoles[0].Username != "anna" {
				t.Fatalf("want anna still logged in, got %q", st.Consoles[0].Username)
			}
		})
	})

	t.Run("logout", func(t *testing.T) {
		h.e.Apply(funcnum.Make(funcnum.Console, 0, funcnum.ConsoleLogout), fieldbus.StateValue(true))
		lv := h.out.to(testNode, obj(3))
		if lv[len(lv)-1].Int != 0 {
			t.Fatalf("want level 0 after logout, got %d", lv[len(lv)-1].Int)
		}
	})
}

func TestSelectionFanOut(t *testing.T) {
	selected := funcnum.Virtual(funcnum.Module, 0, funcnum.ModuleLevel)
	h := newHarness(t, nil,
		binding{fn: selected, sensor: faderSpec, actuator: textSpec, momentary: registry.Latching},
	)

	h.e.Apply(funcnum.Make(funcnum.Module, 5, funcnum.ModuleSelectBase), fieldbus.StateValue(true))
	h.e.Apply(funcnum.Make(funcnum.Module, 5, funcnum.ModuleLevel), fieldbus.FloatValue(-6))

	vs := h.out.to(testNode, obj(0))
	if len(vs) == 0 || vs[len(vs)-1].String() != " -6.0dB " {
		t.Fatalf("want selected module level shown, got %v", vs)
	}

	t.Run("deselect blanks the display", func(t *testing.T) {
		h.e.Apply(funcnum.Make(funcnum.Module, 5, funcnum.ModuleSelectBase), fieldbus.StateValue(true))
		vs := h.out.to(testNode, obj(0))
		if got := vs[len(vs)-1].String(); got != "  --    " {
			t.Fatalf("want blank, got %q", got)
		}
	})
}

func TestTimeouts(t *testing.T) {
	h := newHarness(t, nil)
	h.e.View(func(st *mixer.State) {
		st.Consoles[0].ControlMode = funcnum.ModeGain
		st.Consoles[1].AutoDeselect = true
		st.Consoles[1].Selected[mixer.SelectBuss] = 2
	})
	for i := 0; i < ControlModeTicks; i++ {
		h.e.Tick()
	}
	h.e.View(func(st *mixer.State) {
		if st.Consoles[0].ControlMode != funcnum.ModeNone {
			t.Fatalf("want control mode reverted, got %d", st.Consoles[0].ControlMode)
		}
		if st.Consoles[1].Selected[mixer.SelectBuss] != -1 {
			t.Fatalf("want buss deselected, got %d", st.Consoles[1].Selected[mixer.SelectBuss])
		}
	})
}
