package clipboard

import (
	"fmt"

	cb "github.com/atotto/clipboard"
)

// Unsupported reports whether no clipboard backend (xclip, xsel,
// wl-clipboard, pbcopy or the Windows API) is available.
func Unsupported() bool { return cb.Unsupported }

func Copy(text string) error {
	return cb.WriteAll(text)
}

func Read() (string, error) {
	return cb.ReadAll()
}

// Verify writes sample, reads it back and restores the previous contents.
func Verify(sample string) error {
	if Unsupported() {
		return fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	prev, _ := Read()
	if err := Copy(sample); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	got, err := Read()
	if prev != "" {
		defer Copy(prev)
	}
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if got != sample {
		return fmt.Errorf("read back %q, want %q", got, sample)
	}
	return nil
}
