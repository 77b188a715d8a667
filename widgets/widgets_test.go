package widgets

import (
	"strings"
	"testing"

	"axum-engine/mixer"
)

func TestMeterSegments(t *testing.T) {
	tests := []struct {
		db    float64
		width int
		want  int
	}{
		{-100, 20, 0},
		{MeterFloor, 20, 0},
		{-27, 20, 10},
		{0, 22, 20},
		{MeterCeil, 20, 20},
		{40, 20, 20},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := meterSegments(tt.db, tt.width); got != tt.want {
			t.Errorf("meterSegments(%v, %d): want %d, got %d", tt.db, tt.width, tt.want, got)
		}
	}
}

func TestFormatDB(t *testing.T) {
	if got := FormatDB(-6); got != " -6.0" {
		t.Fatalf("want \" -6.0\", got %q", got)
	}
	if got := FormatDB(-140); got != " -inf" {
		t.Fatalf("want \" -inf\", got %q", got)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Pages", Keys: []KeyBinding{{"tab", "next page"}}}})
	if !strings.Contains(out, "Pages") || !strings.Contains(out, "tab") {
		t.Fatalf("unexpected help %q", out)
	}
}

func TestEQCurve(t *testing.T) {
	flat := eqCurve(nil, 48000, 16)
	for i, n := range flat {
		if n != 4 {
			t.Fatalf("want flat curve at level 4, got %d at %d", n, i)
		}
	}

	boost := []mixer.EQBand{{Type: mixer.EQPeaking, Frequency: 1000, Level: 18, Bandwidth: 1, Range: 18}}
	curve := eqCurve(boost, 48000, 31)
	peak := 0
	for i, n := range curve {
		if n > curve[peak] {
			peak = i
		}
	}
	if curve[peak] <= 4 || curve[0] != 4 {
		t.Fatalf("want a boost in the middle and flat lows, got %v", curve)
	}
}
