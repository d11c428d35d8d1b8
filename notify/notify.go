// Package notify delivers short user-facing messages. Delivery is
// fire-and-forget: a Notifier never blocks its caller for long and never
// reports failure.
package notify

import (
	"sync"

	"whisperwave/beep"
	"whisperwave/log"
)

type Level int

const (
	Success Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "success"
}

// Messages shown to the user.
const (
	MsgMicrophone    = "Could not access microphone. Please check permissions and try again."
	MsgTranscription = "Failed to transcribe audio. Please try again."
	MsgModelLoad     = "Failed to load speech recognition model. Please refresh and try again."
	MsgRecording     = "An error occurred while processing your recording."
	MsgCopied        = "Copied to clipboard"
)

type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a plain function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Multi fans a notification out to every non-nil notifier in order.
func Multi(ns ...Notifier) Notifier {
	var out multi
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multi []Notifier

func (m multi) Notify(level Level, message string) {
	for _, n := range m {
		n.Notify(level, message)
	}
}

// Log writes notifications to the diagnostics log.
type Log struct{}

func (Log) Notify(level Level, message string) {
	if level == Error {
		log.Error("notify: " + message)
		return
	}
	log.Info("notify: " + message)
}

// Beep plays the error cue for error notifications.
type Beep struct{}

func (Beep) Notify(level Level, _ string) {
	if level == Error {
		beep.PlayError()
	}
}

type Notification struct {
	Level   Level
	Message string
}

// Recorder keeps every notification; tests use it to count deliveries.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.list = append(r.list, Notification{level, message})
	r.mu.Unlock()
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.list...)
}

// Count returns how many notifications of level were delivered.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.list {
		if x.Level == level {
			n++
		}
	}
	return n
}
