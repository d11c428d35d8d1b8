package hotkey

// evdev key codes and values from linux/input-event-codes.h
const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keySpace   = 57
)

type edge int

const (
	edgeNone edge = iota
	edgeDown
	edgeUp
)

// combo tracks modifier state and reports the press and release edges of
// Ctrl+Shift+Space. Auto-repeat never produces a second press.
type combo struct {
	ctrl, shift, space bool
}

func (c *combo) feed(code uint16, value int32) edge {
	if value == keyRepeat {
		return edgeNone
	}
	pressed := value == keyPress
	switch code {
	case keyLCtrl, keyRCtrl:
		c.ctrl = pressed
	case keyLShift, keyRShift:
		c.shift = pressed
	case keySpace:
		switch {
		case pressed && !c.space && c.ctrl && c.shift:
			c.space = true
			return edgeDown
		case !pressed && c.space:
			c.space = false
			return edgeUp
		}
	}
	return edgeNone
}

// signal delivers a non-blocking edge; a pending one is enough.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
