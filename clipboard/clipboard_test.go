package clipboard

import "testing"

func TestVerifyRoundTrip(t *testing.T) {
	if Unsupported() {
		t.Skip("no clipboard utility installed")
	}
	prev, err := Read()
	if err != nil {
		t.Skipf("clipboard not readable here: %v", err)
	}
	if err := Verify("whisperwave-clipboard-check"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if prev != "" {
		if got, _ := Read(); got != prev {
			t.Errorf("clipboard not restored: got %q, want %q", got, prev)
		}
	}
}
