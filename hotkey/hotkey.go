package hotkey

// Hotkey delivers presses and releases of the global record combination
// (Ctrl+Shift+Space).
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// OnPress calls fn for every press of hk until stop is closed. Releases are
// drained so a slow consumer never blocks the key reader.
func OnPress(hk Hotkey, stop <-chan struct{}, fn func()) {
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-hk.Keydown():
				fn()
			case <-hk.Keyup():
			}
		}
	}()
}
