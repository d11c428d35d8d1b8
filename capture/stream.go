package capture

import (
	"fmt"
	"sync"

	"whisperwave/audio"
	"whisperwave/encoder"
)

// Stream is one acquired microphone capture. Any number of taps receive its
// PCM; the device is released exactly once.
type Stream struct {
	dev audio.CaptureDevice

	mu       sync.Mutex
	taps     map[int]func([]byte)
	nextTap  int
	released bool
	once     sync.Once
}

// Open acquires a capture handle on device (nil for the system default).
// Delivery begins with Start, so taps attached in between miss nothing.
func Open(ctx audio.Context, device *audio.DeviceInfo) (*Stream, error) {
	dev, err := ctx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return nil, fmt.Errorf("acquire microphone: %w", err)
	}
	s := &Stream{dev: dev, taps: make(map[int]func([]byte))}
	dev.SetCallback(s.dispatch)
	return s, nil
}

func (s *Stream) Start() error {
	if s.Released() {
		return fmt.Errorf("start capture: %w", ErrDeviceUnavailable)
	}
	if err := s.dev.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

func (s *Stream) DeviceName() string { return s.dev.DeviceName() }

// Tap registers fn for every PCM buffer. The buffer is only valid during
// the call. The returned func detaches fn and is safe to call twice.
func (s *Stream) Tap(fn func([]byte)) (remove func()) {
	s.mu.Lock()
	id := s.nextTap
	s.nextTap++
	s.taps[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.taps, id)
		s.mu.Unlock()
	}
}

func (s *Stream) dispatch(data []byte, _ uint32) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	fns := make([]func([]byte), 0, len(s.taps))
	for _, fn := range s.taps {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(data)
	}
}

func (s *Stream) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Release stops the device and closes the handle. Idempotent.
func (s *Stream) Release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		clear(s.taps)
		s.mu.Unlock()
		s.dev.Stop()
		s.dev.ClearCallback()
		s.dev.Close()
	})
}
