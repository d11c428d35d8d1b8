package transcriber

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeTranscriber returns canned text after an optional delay. Calls can be
// held on a gate channel to control completion order in tests.
type FakeTranscriber struct {
	text  string
	err   error
	delay time.Duration

	mu      sync.Mutex
	lang    string
	loadErr error
	loads   int
	calls   int
	gate    chan struct{}
	inputs  [][]byte
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

// WithDelay makes every Transcribe call sleep for d first.
func (f *FakeTranscriber) WithDelay(d time.Duration) *FakeTranscriber {
	f.delay = d
	return f
}

// FailLoad makes LoadModel fail with err wrapped in ErrModelLoad.
func (f *FakeTranscriber) FailLoad(err error) {
	f.mu.Lock()
	f.loadErr = err
	f.mu.Unlock()
}

// Hold blocks Transcribe calls until Release.
func (f *FakeTranscriber) Hold() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
}

func (f *FakeTranscriber) Release() {
	f.mu.Lock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
	f.mu.Unlock()
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) SetLanguage(lang string) {
	f.mu.Lock()
	f.lang = lang
	f.mu.Unlock()
}

func (f *FakeTranscriber) GetLanguage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lang
}

func (f *FakeTranscriber) LoadModel(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, f.loadErr)
	}
	return nil
}

func (f *FakeTranscriber) Transcribe(ctx context.Context, audio []byte, _ string) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.inputs = append(f.inputs, audio)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrInference, ctx.Err())
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, fmt.Errorf("%w: fake: %v", ErrInference, f.err)
	}
	return &Result{Text: f.text}, nil
}

func (f *FakeTranscriber) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Inputs returns the audio passed to each Transcribe call, in call order.
func (f *FakeTranscriber) Inputs() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.inputs...)
}
