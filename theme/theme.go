package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// State pads
	On  rune // ■ switched on
	Off rune // □ switched off

	// Meter bars
	MeterFull  rune // █ lit segment
	MeterEmpty rune // · unlit segment
	MeterPeak  rune // ▌ over the reserve

	Selected rune // ▶ selected by a console
	Online   rune // ● node initialized
	Probing  rune // ○ node waiting for its template
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			On:  '■',
			Off: '□',

			MeterFull:  '█',
			MeterEmpty: '·',
			MeterPeak:  '▌',

			Selected: '▶',
			Online:   '●',
			Probing:  '○',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.55
	RoleSuccess = 0.65
	RoleWarning = 0.85
	RoleAlarm   = 1.0
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Alarm() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAlarm))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// MeterColor colors a meter segment at normalized height norm: green up
// to the nominal level, then warning, then alarm.
func (t *Theme) MeterColor(norm float64) lipgloss.Color {
	switch {
	case norm >= 0.95:
		return t.Alarm()
	case norm >= 0.8:
		return t.Warning()
	}
	return t.Success()
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
