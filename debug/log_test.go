package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogCategories(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("sensor", "node %08x object %d", 0x10, 1024)
	out := buf.String()
	if !strings.Contains(out, "cat=sensor") || !strings.Contains(out, "node 00000010 object 1024") {
		t.Fatalf("want category and message, got %q", out)
	}
}

func TestDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	Disable()

	Log("sensor", "dropped")
	if Enabled() {
		t.Fatal("want disabled")
	}
	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("want nothing after Disable, got %q", buf.String())
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "timer", "tick")
	}
	if got := strings.Count(buf.String(), "cat=timer"); got != 2 {
		t.Fatalf("want 2 lines, got %d", got)
	}
}
