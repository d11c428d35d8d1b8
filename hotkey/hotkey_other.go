//go:build !linux

package hotkey

import (
	"golang.design/x/hotkey"
)

type xHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
}

func New() Hotkey {
	return &xHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-h.hk.Keydown():
				signal(h.keydown)
			case <-h.hk.Keyup():
				signal(h.keyup)
			}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	select {
	case <-h.stop:
		return
	default:
		close(h.stop)
	}
	h.hk.Unregister()
}

func (h *xHotkey) Keydown() <-chan struct{} { return h.keydown }

func (h *xHotkey) Keyup() <-chan struct{} { return h.keyup }

func Diagnose() (string, error) {
	return "global hotkey available (Ctrl+Shift+Space)", nil
}
