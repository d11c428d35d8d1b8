package hotkey

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestComboEdges(t *testing.T) {
	type ev struct {
		code  uint16
		value int32
		want  edge
	}
	tests := []struct {
		name   string
		events []ev
	}{
		{"full combo", []ev{
			{keyLCtrl, keyPress, edgeNone},
			{keyLShift, keyPress, edgeNone},
			{keySpace, keyPress, edgeDown},
			{keySpace, keyRepeat, edgeNone},
			{keySpace, keyRelease, edgeUp},
		}},
		{"right modifiers", []ev{
			{keyRShift, keyPress, edgeNone},
			{keyRCtrl, keyPress, edgeNone},
			{keySpace, keyPress, edgeDown},
		}},
		{"space without shift", []ev{
			{keyLCtrl, keyPress, edgeNone},
			{keySpace, keyPress, edgeNone},
			{keySpace, keyRelease, edgeNone},
		}},
		{"modifier released first still ends", []ev{
			{keyLCtrl, keyPress, edgeNone},
			{keyLShift, keyPress, edgeNone},
			{keySpace, keyPress, edgeDown},
			{keyLCtrl, keyRelease, edgeNone},
			{keySpace, keyRelease, edgeUp},
		}},
		{"no second press while held", []ev{
			{keyLCtrl, keyPress, edgeNone},
			{keyLShift, keyPress, edgeNone},
			{keySpace, keyPress, edgeDown},
			{keySpace, keyPress, edgeNone},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c combo
			for i, e := range tt.events {
				if got := c.feed(e.code, e.value); got != e.want {
					t.Fatalf("event %d (%d=%d): got %v, want %v", i, e.code, e.value, got, e.want)
				}
			}
		})
	}
}

func TestOnPress(t *testing.T) {
	hk := NewFake()
	stop := make(chan struct{})
	defer close(stop)

	var presses atomic.Int32
	got := make(chan struct{}, 4)
	OnPress(hk, stop, func() {
		presses.Add(1)
		got <- struct{}{}
	})

	for range 3 {
		hk.SimPress()
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("press not delivered")
		}
	}
	if n := presses.Load(); n != 3 {
		t.Fatalf("presses = %d, want 3", n)
	}
}

func TestSignalDoesNotBlock(t *testing.T) {
	ch := make(chan struct{}, 1)
	signal(ch)
	signal(ch)
	if len(ch) != 1 {
		t.Fatalf("len = %d, want 1", len(ch))
	}
}
