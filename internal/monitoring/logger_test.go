package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("dropped link %s", "w1")
	if captured != "dropped link w1" {
		t.Errorf("captured = %q, want %q", captured, "dropped link w1")
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("ignored %d", 42)
	SetLogger(Logf)
}
