package theme

import (
	"path/filepath"
	"strings"
	"testing"
)

const plasma = `GIMP Palette
Name: plasma
Columns: 0
#
 13   8 135	#0d0887
126   3 168
240 249  33	yellow
bad line
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(plasma))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Name != "plasma" || len(p.Colors) != 3 {
		t.Fatalf("want plasma with 3 colors, got %q with %d", p.Name, len(p.Colors))
	}
	if p.Colors[2] != (RGB{240, 249, 33}) {
		t.Fatalf("want last color 240 249 33, got %v", p.Colors[2])
	}

	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n1 2 3\n")); err == nil {
		t.Fatal("want a single color rejected")
	}
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	tests := []struct {
		norm float64
		want RGB
	}{
		{-1, RGB{0, 0, 0}},
		{0.5, RGB{100, 50, 25}},
		{2, RGB{200, 100, 50}},
	}
	for _, tt := range tests {
		if got := p.Lookup(tt.norm); got != tt.want {
			t.Errorf("Lookup(%v): want %v, got %v", tt.norm, tt.want, got)
		}
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil || p.Name != "axum" {
		t.Fatalf("want built-in palette, got %q, %v", p.Name, err)
	}
	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	if err == nil {
		t.Fatal("want the load error reported")
	}
	if p == nil || len(p.Colors) == 0 {
		t.Fatal("want the built-in palette as fallback")
	}
}
