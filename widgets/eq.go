package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"axum-engine/eqmath"
	"axum-engine/mixer"
	"axum-engine/theme"
)

// EQ curve scale in dB, centred on 0.
const eqRange = 18.0

var curveRunes = []rune("▁▂▃▄▅▆▇█")

// eqCurve samples the summed response at width log-spaced frequencies from
// 20 Hz to 20 kHz and quantizes each to a curve rune index.
func eqCurve(bands []mixer.EQBand, sampleRate, width int) []int {
	if width <= 0 {
		return nil
	}
	if sampleRate <= 0 {
		sampleRate = mixer.DefaultSamplerate
	}
	levels := make([]int, width)
	top := len(curveRunes) - 1
	for i := range levels {
		t := 0.0
		if width > 1 {
			t = float64(i) / float64(width-1)
		}
		freq := 20 * math.Pow(1000, t)
		db := eqmath.Response(bands, freq, sampleRate)
		n := int(math.Round((db + eqRange) / (2 * eqRange) * float64(top)))
		if n < 0 {
			n = 0
		}
		if n > top {
			n = top
		}
		levels[i] = n
	}
	return levels
}

// RenderEQCurve renders a one-line frequency response. A switched off EQ
// renders flat and muted.
func RenderEQCurve(th *theme.Theme, on bool, bands []mixer.EQBand, sampleRate, width int) string {
	if !on {
		bands = nil
	}
	color := th.Accent()
	if !on {
		color = th.Muted()
	}
	var out strings.Builder
	for _, n := range eqCurve(bands, sampleRate, width) {
		out.WriteRune(curveRunes[n])
	}
	return lipgloss.NewStyle().Foreground(color).Render(out.String())
}
