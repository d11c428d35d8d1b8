package doctor

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"whisperwave/shutdown"
)

// terminal remembers the state of stdin so steps that switch it to raw mode
// (device picker, keyboard grabs) can be undone.
type terminal struct {
	fd    int
	state *term.State
}

func saveTerminal() *terminal {
	fd := int(os.Stdin.Fd())
	t := &terminal{fd: fd}
	if term.IsTerminal(fd) {
		t.state, _ = term.GetState(fd)
	}
	return t
}

func (t *terminal) restore() {
	if t.state != nil {
		term.Restore(t.fd, t.state)
	}
}

func (t *terminal) exitOnInterrupt() {
	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	go func() {
		<-sig
		t.restore()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}
