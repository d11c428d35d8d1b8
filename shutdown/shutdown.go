// Package shutdown relays the signals that should end the program.
package shutdown

import (
	"os"
	"os/signal"
)

// Notify relays the platform's termination signals to ch.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, signals...)
}

// Stop undoes Notify for ch.
func Stop(ch chan<- os.Signal) {
	signal.Stop(ch)
}
