package eqmath

import (
	"math"
	"testing"

	"axum-engine/mixer"
)

const fs = 48000

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestPeakingGainAtCentre(t *testing.T) {
	for _, gain := range []float64{-12, -3, 0, 6, 18} {
		q := Design(mixer.EQPeaking, 1000, gain, 1, fs)
		if got := q.MagnitudeDB(1000, fs); !near(got, gain, 0.01) {
			t.Fatalf("gain %v: want %v dB at centre, got %v", gain, gain, got)
		}
	}
}

func TestShelves(t *testing.T) {
	low := Design(mixer.EQLowShelf, 120, 6, 1, fs)
	if got := low.MagnitudeDB(20, fs); !near(got, 6, 0.5) {
		t.Fatalf("low shelf: want ~6 dB at 20 Hz, got %v", got)
	}
	if got := low.MagnitudeDB(15000, fs); !near(got, 0, 0.1) {
		t.Fatalf("low shelf: want ~0 dB at 15 kHz, got %v", got)
	}

	high := Design(mixer.EQHighShelf, 8000, -6, 1, fs)
	if got := high.MagnitudeDB(20000, fs); !near(got, -6, 1) {
		t.Fatalf("high shelf: want ~-6 dB at 20 kHz, got %v", got)
	}
}

func TestPassFilters(t *testing.T) {
	hpf := Design(mixer.EQHPF, 80, 0, 1, fs)
	if got := hpf.MagnitudeDB(80, fs); !near(got, -3, 0.1) {
		t.Fatalf("hpf: want -3 dB at cutoff, got %v", got)
	}
	if got := hpf.MagnitudeDB(10, fs); got > -30 {
		t.Fatalf("hpf: want strong attenuation at 10 Hz, got %v", got)
	}

	lpf := Design(mixer.EQLPF, 12000, 0, 1, fs)
	if got := lpf.MagnitudeDB(100, fs); !near(got, 0, 0.01) {
		t.Fatalf("lpf: want flat passband, got %v", got)
	}

	notch := Design(mixer.EQNotch, 1000, 0, 1, fs)
	if got := notch.Magnitude(1000, fs); got > 1e-6 {
		t.Fatalf("notch: want zero at centre, got %v", got)
	}
}

func TestOffIsUnity(t *testing.T) {
	q := Design(mixer.EQOff, 1000, 12, 1, fs)
	if q != Unity {
		t.Fatalf("want unity, got %+v", q)
	}
	eq := mixer.DefaultEQ()
	if got := Response(eq[:3], 500, fs); !near(got, 0, 1e-9) {
		t.Fatalf("want flat response for zero-level peaking bands, got %v", got)
	}
}
