// Package widgets renders small pieces of the status monitor.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"axum-engine/theme"
)

// Meter scale in dB.
const (
	MeterFloor = -60.0
	MeterCeil  = 6.0
)

// meterSegments returns how many of width segments a level lights.
func meterSegments(db float64, width int) int {
	if width <= 0 || db <= MeterFloor {
		return 0
	}
	if db >= MeterCeil {
		return width
	}
	n := int((db - MeterFloor) / (MeterCeil - MeterFloor) * float64(width))
	if n > width {
		n = width
	}
	return n
}

// RenderMeter renders a horizontal level bar width cells wide.
func RenderMeter(th *theme.Theme, db float64, width int) string {
	lit := meterSegments(db, width)
	var out strings.Builder
	for i := 0; i < width; i++ {
		if i >= lit {
			out.WriteString(lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.MeterEmpty)))
			continue
		}
		norm := float64(i+1) / float64(width)
		sym := th.Symbols.MeterFull
		if db >= MeterCeil && i == width-1 {
			sym = th.Symbols.MeterPeak
		}
		out.WriteString(lipgloss.NewStyle().Foreground(th.MeterColor(norm)).Render(string(sym)))
	}
	return out.String()
}

// RenderStereoMeter renders left and right bars on two lines.
func RenderStereoMeter(th *theme.Theme, m [2]float64, width int) string {
	return RenderMeter(th, m[0], width) + "\n" + RenderMeter(th, m[1], width)
}

// RenderPad renders a single state pad
func RenderPad(th *theme.Theme, on bool) string {
	if on {
		return lipgloss.NewStyle().Foreground(th.Success()).Render(string(th.Symbols.On))
	}
	return lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.Off))
}

// RenderPadRow renders a row of state pads with spacing
func RenderPadRow(th *theme.Theme, states []bool) string {
	var out strings.Builder
	for i, on := range states {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(th, on))
	}
	return out.String()
}

// FormatDB renders a level the way console displays do, "-inf" below the
// meter floor.
func FormatDB(db float64) string {
	if db <= MeterFloor {
		return " -inf"
	}
	return fmt.Sprintf("%+5.1f", db)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
