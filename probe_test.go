package jsruntime

import "testing"

func TestProbe(t *testing.T) {
	if got := Probe(); got != 42 {
		t.Fatalf("Probe() = %d, want 42", got)
	}
}
