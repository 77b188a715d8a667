// Package eqmath computes biquad filter coefficients for the parametric EQ
// band types. The DSP cards take the band parameters directly; these
// coefficients only serve response plots and sanity checks.
package eqmath

import (
	"math"
	"math/cmplx"

	"axum-engine/mixer"
)

// Biquad holds normalized coefficients (a0 == 1).
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Unity passes the signal through unchanged.
var Unity = Biquad{B0: 1}

// Design returns the coefficients of one band. bandwidth is in octaves for
// peaking, band-pass and notch filters and acts as the shelf slope for
// shelving filters. Off returns Unity.
func Design(typ mixer.EQType, freq, gainDB, bandwidth float64, sampleRate int) Biquad {
	fs := float64(sampleRate)
	if fs <= 0 || typ == mixer.EQOff {
		return Unity
	}
	freq = mixer.Clamp(freq, 1, fs/2*0.99)
	if bandwidth <= 0 {
		bandwidth = mixer.DefaultBandwidth
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / fs
	sinW, cosW := math.Sin(w0), math.Cos(w0)
	alpha := sinW * math.Sinh(math.Ln2/2*bandwidth*w0/sinW)

	var b0, b1, b2, a0, a1, a2 float64
	switch typ {
	case mixer.EQHPF:
		alpha = sinW / math.Sqrt2
		b0 = (1 + cosW) / 2
		b1 = -(1 + cosW)
		b2 = (1 + cosW) / 2
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case mixer.EQLPF:
		alpha = sinW / math.Sqrt2
		b0 = (1 - cosW) / 2
		b1 = 1 - cosW
		b2 = (1 - cosW) / 2
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case mixer.EQBPF:
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case mixer.EQNotch:
		b0, b1, b2 = 1, -2*cosW, 1
		a0, a1, a2 = 1+alpha, -2*cosW, 1-alpha
	case mixer.EQPeaking:
		b0 = 1 + alpha*a
		b1 = -2 * cosW
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW
		a2 = 1 - alpha/a
	case mixer.EQLowShelf, mixer.EQHighShelf:
		slope := math.Min(bandwidth, 1)
		alpha = sinW / 2 * math.Sqrt((a+1/a)*(1/slope-1)+2)
		sq := 2 * math.Sqrt(a) * alpha
		if typ == mixer.EQLowShelf {
			b0 = a * ((a + 1) - (a-1)*cosW + sq)
			b1 = 2 * a * ((a - 1) - (a+1)*cosW)
			b2 = a * ((a + 1) - (a-1)*cosW - sq)
			a0 = (a + 1) + (a-1)*cosW + sq
			a1 = -2 * ((a - 1) + (a+1)*cosW)
			a2 = (a + 1) + (a-1)*cosW - sq
		} else {
			b0 = a * ((a + 1) + (a-1)*cosW + sq)
			b1 = -2 * a * ((a - 1) + (a+1)*cosW)
			b2 = a * ((a + 1) + (a-1)*cosW - sq)
			a0 = (a + 1) - (a-1)*cosW + sq
			a1 = 2 * ((a - 1) - (a+1)*cosW)
			a2 = (a + 1) - (a-1)*cosW - sq
		}
	default:
		return Unity
	}

	return Biquad{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// Magnitude returns the linear gain of the filter at freq.
func (q Biquad) Magnitude(freq float64, sampleRate int) float64 {
	w := 2 * math.Pi * freq / float64(sampleRate)
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	num := complex(q.B0, 0) + complex(q.B1, 0)*z1 + complex(q.B2, 0)*z2
	den := 1 + complex(q.A1, 0)*z1 + complex(q.A2, 0)*z2
	return cmplx.Abs(num / den)
}

// MagnitudeDB returns the gain at freq in dB.
func (q Biquad) MagnitudeDB(freq float64, sampleRate int) float64 {
	m := q.Magnitude(freq, sampleRate)
	if m <= 0 {
		return mixer.FaderOff
	}
	return 20 * math.Log10(m)
}

// Response returns the summed dB response of a band set at freq.
func Response(bands []mixer.EQBand, freq float64, sampleRate int) float64 {
	total := 0.0
	for _, b := range bands {
		q := Design(b.Type, b.Frequency, b.Level, b.Bandwidth, sampleRate)
		total += q.MagnitudeDB(freq, sampleRate)
	}
	return total
}
