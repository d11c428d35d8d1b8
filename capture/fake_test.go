package capture

import (
	"errors"
	"sync"
)

// fakeEncoder records fed PCM and emits scripted fragments: onFeed after
// each Feed call, onFinalize from a goroutine when finalized.
type fakeEncoder struct {
	emit       func([]byte)
	onFeed     [][]byte
	onFinalize [][]byte
	finalErr   error
	block      chan struct{} // when non-nil, Finalize waits for it

	mu  sync.Mutex
	fed []byte
}

func (f *fakeEncoder) Feed(pcm []byte) {
	f.mu.Lock()
	f.fed = append(f.fed, pcm...)
	var next []byte
	if len(f.onFeed) > 0 {
		next, f.onFeed = f.onFeed[0], f.onFeed[1:]
	}
	f.mu.Unlock()
	if next != nil {
		f.emit(next)
	}
}

func (f *fakeEncoder) Finalize() <-chan error {
	ack := make(chan error, 1)
	go func() {
		if f.block != nil {
			<-f.block
		}
		for _, b := range f.onFinalize {
			f.emit(b)
		}
		ack <- f.finalErr
	}()
	return ack
}

func (f *fakeEncoder) MediaType() string { return "audio/test" }

func (f *fakeEncoder) Fed() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.fed...)
}

// encoderFactory hands out tmpl copies and remembers the last one built.
type encoderFactory struct {
	tmpl fakeEncoder
	err  error

	mu   sync.Mutex
	last *fakeEncoder
}

func (f *encoderFactory) New(onFragment func([]byte)) (Encoder, error) {
	if f.err != nil {
		return nil, f.err
	}
	e := &fakeEncoder{
		emit:       onFragment,
		onFeed:     append([][]byte(nil), f.tmpl.onFeed...),
		onFinalize: f.tmpl.onFinalize,
		finalErr:   f.tmpl.finalErr,
		block:      f.tmpl.block,
	}
	f.mu.Lock()
	f.last = e
	f.mu.Unlock()
	return e, nil
}

func (f *encoderFactory) Last() *fakeEncoder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

var errBoom = errors.New("boom")
