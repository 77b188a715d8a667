package funcnum

import "testing"

type fakeSelection map[Domain][NumConsoles]int

func (f fakeSelection) SelectedInstance(d Domain, console int) int {
	sel, ok := f[d]
	if !ok {
		return -1
	}
	return sel[console]
}

func TestMakeAndDecode(t *testing.T) {
	n := Make(Module, 5, ModuleLevel)
	if n.Domain() != Module || n.Instance() != 5 || n.Sub() != ModuleLevel {
		t.Fatalf("want module/5/level, got %v/%d/%d", n.Domain(), n.Instance(), n.Sub())
	}

	f, ok := Decode(n)
	if !ok {
		t.Fatal("decode failed")
	}
	if f.Instance.Selected || f.Index() != 5 {
		t.Fatalf("want concrete 5, got %+v", f.Instance)
	}
	if f.Number() != n {
		t.Fatalf("want %08x, got %08x", n, f.Number())
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		n    Number
	}{
		{"unbound", Unbound},
		{"unknown domain", Make(Domain(9), 0, 0)},
		{"instance past virtual range", Make(Module, NumModules+NumConsoles, ModuleLevel)},
		{"console has no virtual range", Make(Console, NumConsoles, 0)},
		{"global instance", Make(Global, 1, 0)},
		{"sub out of range", Make(Buss, 0, bussSubCount)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, ok := Decode(c.n); ok {
				t.Fatalf("want %08x rejected", uint32(c.n))
			}
		})
	}
}

func TestResolveVirtual(t *testing.T) {
	sel := fakeSelection{Module: {3, -1, NumModules + 7, 0}}

	f, ok := Decode(Virtual(Module, 0, ModulePan))
	if !ok || !f.Instance.Selected || f.Instance.Console != 0 {
		t.Fatalf("want console 0 selection, got %+v ok=%v", f.Instance, ok)
	}

	r, ok := f.Resolve(sel)
	if !ok || r.Index() != 3 || r.Sub != ModulePan {
		t.Fatalf("want module 3 pan, got %+v ok=%v", r, ok)
	}

	t.Run("nothing selected", func(t *testing.T) {
		f, _ := Decode(Virtual(Module, 1, ModulePan))
		if _, ok := f.Resolve(sel); ok {
			t.Fatal("want unresolved")
		}
	})

	t.Run("stale selection", func(t *testing.T) {
		f, _ := Decode(Virtual(Module, 2, ModulePan))
		if _, ok := f.Resolve(sel); ok {
			t.Fatal("want unresolved for out-of-range selection")
		}
	})
}

func TestSplitHelpers(t *testing.T) {
	band, kind, ok := SplitModuleEQ(ModuleEQ(2, EQFrequency))
	if !ok || band != 2 || kind != EQFrequency {
		t.Fatalf("want band 2 frequency, got %d %d %v", band, kind, ok)
	}
	buss, kind, ok := SplitModuleBuss(ModuleBuss(15, SendBalanceReset))
	if !ok || buss != 15 || kind != SendBalanceReset {
		t.Fatalf("want buss 15 balance reset, got %d %d %v", buss, kind, ok)
	}
	if _, _, ok := SplitModuleBuss(ModuleLevel); ok {
		t.Fatal("module level is not a buss send")
	}
	buss, kind, ok = SplitSourceBuss(SourceBuss(4, SourceBussOff))
	if !ok || buss != 4 || kind != SourceBussOff {
		t.Fatalf("want buss 4 off, got %d %d %v", buss, kind, ok)
	}
}

func TestModeMapping(t *testing.T) {
	for mode := 0; mode < NumControlModes; mode++ {
		sub, ok := ModeSub(mode)
		if !ok {
			t.Fatalf("mode %d has no sub-function", mode)
		}
		if back := SubMode(sub); back != mode {
			t.Fatalf("mode %d: want round trip, got %d", mode, back)
		}
	}
	if SubMode(ModuleOnOff) != ModeNone {
		t.Fatal("on/off is not a control mode")
	}
	if sub, _ := ModeSub(ModeEQBase + 2*4 + 0); sub != ModuleEQ(2, EQLevel) {
		t.Fatalf("want eq3 level, got %d", sub)
	}
}

func TestParseAndString(t *testing.T) {
	cases := []string{
		"module/3/level",
		"module/sel1/eq2-frequency",
		"buss/15/master-level",
		"monitor/0/ext2-on-off",
		"console/2/chipcard-pass",
		"console/0/mode-buss4-balance",
		"global/0/redlight-3",
		"source/1279/buss16-on-off",
		"destination/sel3/talkback-16",
	}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			n, err := Parse(s)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := n.String(); got != s {
				t.Fatalf("want %q, got %q", s, got)
			}
		})
	}

	bad := []string{"module/3", "mixer/0/level", "module/128/level", "console/sel0/logout", "module/0/nope"}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Fatalf("want error for %q", s)
		}
	}
}
