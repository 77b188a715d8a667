package mixer

import (
	"math"
	"testing"
)

func TestDefaults(t *testing.T) {
	s := NewState()

	m := &s.Modules[0]
	if m.FaderLevel != FaderOff || m.On {
		t.Fatalf("want fader off, got %v on=%v", m.FaderLevel, m.On)
	}
	wantTypes := [NumEQBands]EQType{EQPeaking, EQPeaking, EQPeaking, EQLowShelf, EQHPF, EQLPF}
	for i, b := range m.EQ {
		if b.Type != wantTypes[i] {
			t.Fatalf("band %d: want %v, got %v", i, wantTypes[i], b.Type)
		}
		if b.Range != DefaultEQRange {
			t.Fatalf("band %d: want range %v, got %v", i, DefaultEQRange, b.Range)
		}
	}
	if m.Pan != PanCenter || m.WaitingSource != -1 || m.ExclusiveBuss != -1 {
		t.Fatalf("unexpected module defaults %+v", m)
	}

	src := &s.Sources[0]
	if src.Gain != 30 || src.Phantom || src.Pad {
		t.Fatalf("want gain 30 phantom/pad off, got %+v", src)
	}
	if s.Consoles[2].ControlMode != -1 || s.Consoles[2].Selected[SelectModule] != -1 {
		t.Fatalf("want no control mode and no selection, got %+v", s.Consoles[2])
	}
	if s.Modules[127].Console != 3 {
		t.Fatalf("want module 127 on console 3, got %d", s.Modules[127].Console)
	}
}

func TestModuleActive(t *testing.T) {
	cases := []struct {
		on    bool
		level float64
		want  bool
	}{
		{true, 0, true},
		{true, -79.9, true},
		{true, -80, false},
		{false, 0, false},
	}
	for _, c := range cases {
		m := Module{On: c.on, FaderLevel: c.level}
		if got := m.Active(); got != c.want {
			t.Fatalf("on=%v level=%v: want %v, got %v", c.on, c.level, c.want, got)
		}
	}
}

func TestPositionTableShape(t *testing.T) {
	if Position2dB[0] != FaderOff {
		t.Fatalf("want %v at 0, got %v", FaderOff, Position2dB[0])
	}
	if Position2dB[NumPositions-1] != MaxLevel {
		t.Fatalf("want %v at max, got %v", MaxLevel, Position2dB[NumPositions-1])
	}
	for p := 1; p < NumPositions; p++ {
		if Position2dB[p] <= Position2dB[p-1] {
			t.Fatalf("table not increasing at %d", p)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	t.Run("module fader", func(t *testing.T) {
		for p := 0; p < NumPositions; p++ {
			back := DBToPosition(Position2dB[p])
			if d := back - p; d < -1 || d > 1 {
				t.Fatalf("position %d: round trip gave %d", p, back)
			}
		}
	})

	t.Run("dB grid", func(t *testing.T) {
		for i := 0; i <= 1500; i++ {
			db := FaderOff + float64(i)*0.1
			p := DBToPosition(db)
			back := DBToPosition(Position2dB[p])
			if d := back - p; d < -1 || d > 1 {
				t.Fatalf("%.1f dB: position %d came back as %d", db, p, back)
			}
		}
	})

	t.Run("master headroom", func(t *testing.T) {
		for p := 0; p < NumPositions; p++ {
			if Position2dB[p]-MasterHeadroom < FaderOff {
				continue
			}
			back := MasterLevelToPosition(MasterLevelFromPosition(p))
			if d := back - p; d < -1 || d > 1 {
				t.Fatalf("position %d: master round trip gave %d", p, back)
			}
		}
	})
}

func TestMasterLevelFromPosition(t *testing.T) {
	if got := MasterLevelFromPosition(NumPositions - 1); got != 0 {
		t.Fatalf("want 0 dB at full scale, got %v", got)
	}
	if got := MasterLevelFromPosition(0); got != FaderOff {
		t.Fatalf("want %v at zero, got %v", FaderOff, got)
	}
	if got := ScaleToPosition(1023, 0, 1023); got != 1023 {
		t.Fatalf("want 1023, got %d", got)
	}
	if got := ScaleToPosition(50, 0, 100); got != 512 {
		t.Fatalf("want 512, got %d", got)
	}
}

func TestPositionTableStep(t *testing.T) {
	tab := NewPositionTable()
	// inserted out of order on purpose
	for _, k := range []int{9, -2, 5, -1} {
		tab.Set(k, k, true, 1)
	}

	t.Run("wrap forward", func(t *testing.T) {
		if got := tab.Step(9, 1, 0, nil); got != -2 {
			t.Fatalf("want -2, got %d", got)
		}
	})
	t.Run("wrap backward", func(t *testing.T) {
		if got := tab.Step(-2, -1, 0, nil); got != 9 {
			t.Fatalf("want 9, got %d", got)
		}
	})
	t.Run("multi step", func(t *testing.T) {
		if got := tab.Step(-2, 2, 0, nil); got != 5 {
			t.Fatalf("want 5, got %d", got)
		}
	})
	t.Run("skips inactive", func(t *testing.T) {
		tab.SetActive(-1, false)
		defer tab.SetActive(-1, true)
		if got := tab.Step(-2, 1, 0, nil); got != 5 {
			t.Fatalf("want 5, got %d", got)
		}
	})
	t.Run("skips other pool", func(t *testing.T) {
		if got := tab.Step(-2, 1, 3, nil); got != -2 {
			t.Fatalf("want unchanged -2, got %d", got)
		}
	})
	t.Run("accept filter", func(t *testing.T) {
		got := tab.Step(5, 1, 0, func(n int) bool { return n != 9 })
		if got != -2 {
			t.Fatalf("want -2, got %d", got)
		}
	})
	t.Run("exhausted", func(t *testing.T) {
		got := tab.Step(5, 1, 0, func(int) bool { return false })
		if got != 5 {
			t.Fatalf("want original 5, got %d", got)
		}
	})
}

func TestMatrixNumbering(t *testing.T) {
	cases := []struct {
		ms   int
		kind MatrixKindOf
		idx  int
	}{
		{0, MatrixNone, -1},
		{1, MatrixBuss, 0},
		{16, MatrixBuss, 15},
		{17, MatrixInsert, 0},
		{145, MatrixMonitor, 0},
		{161, MatrixMixMinus, 0},
		{289, MatrixSource, 0},
		{1568, MatrixSource, 1279},
		{1569, MatrixNone, -1},
	}
	for _, c := range cases {
		k, i := MatrixIndex(c.ms)
		if k != c.kind || i != c.idx {
			t.Fatalf("matrix %d: want %v/%d, got %v/%d", c.ms, c.kind, c.idx, k, i)
		}
	}
}

func TestMixMinusInUse(t *testing.T) {
	s := NewState()
	ms := MatrixOfSource(7)
	s.Destinations[3].MixMinusSource = ms
	s.Modules[2].SelectedSource = ms

	if !s.MixMinusInUse(ms, 5) {
		t.Fatal("want in use for another module")
	}
	if s.MixMinusInUse(ms, 2) {
		t.Fatal("the carrying module itself may keep it")
	}
	if s.MixMinusInUse(MatrixOfSource(8), 5) {
		t.Fatal("source without mix-minus is free")
	}
}

func TestDBToGain(t *testing.T) {
	if DBToGain(FaderOff) != 0 {
		t.Fatal("want silence at fader off")
	}
	if g := DBToGain(-6); math.Abs(g-0.501) > 0.001 {
		t.Fatalf("want ~0.501, got %v", g)
	}
}
