package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"whisperwave/audio"
	"whisperwave/encoder"
)

type State int

const (
	Idle State = iota
	Starting
	Active
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Options struct {
	Device        *audio.DeviceInfo // nil selects the system default
	FFTSize       int
	FrameInterval time.Duration
	Encoder       EncoderFactory
}

// Session composes a Sampler and a Recorder over a single microphone stream.
type Session struct {
	ctx  audio.Context
	opts Options

	mu       sync.Mutex
	state    State
	stream   *Stream
	sampler  *Sampler
	recorder *Recorder
	closed   bool
}

func NewSession(ctx audio.Context, opts Options) *Session {
	if opts.FFTSize == 0 {
		opts.FFTSize = audio.DefaultFFTSize
	}
	if opts.Encoder == nil {
		opts.Encoder = StreamEncoder(encoder.FormatFLAC)
	}
	return &Session{
		ctx:      ctx,
		opts:     opts,
		sampler:  NewSampler(opts.FFTSize, opts.FrameInterval),
		recorder: NewRecorder(opts.Encoder),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BinCount is the frame length passed to StartRecording's observer.
func (s *Session) BinCount() int { return s.sampler.BinCount() }

// DeviceName names the active stream's device, or "" when idle.
func (s *Session) DeviceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ""
	}
	return s.stream.DeviceName()
}

// StartRecording acquires the microphone, opens the sampler with onFrame as
// observer and starts the recorder. On any failure everything acquired by
// this call is released and the session returns to Idle. The lock is not held
// while the device is acquired, so State stays responsive.
func (s *Session) StartRecording(onFrame func([]byte)) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return fmt.Errorf("session closed: %w", ErrDeviceUnavailable)
	case s.state == Starting, s.state == Active:
		s.mu.Unlock()
		return ErrAlreadyRecording
	case s.state == Stopping:
		s.mu.Unlock()
		return ErrStopInProgress
	}
	s.state = Starting
	s.mu.Unlock()

	stream, err := s.acquire(onFrame)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && s.closed {
		s.teardown(stream)
		err = fmt.Errorf("session closed: %w", ErrDeviceUnavailable)
	}
	if err != nil {
		s.state = Idle
		return err
	}
	s.stream = stream
	s.state = Active
	return nil
}

func (s *Session) acquire(onFrame func([]byte)) (*Stream, error) {
	stream, err := Open(s.ctx, s.opts.Device)
	if err != nil {
		return nil, err
	}
	if err := s.sampler.Open(stream, onFrame); err != nil {
		stream.Release()
		return nil, err
	}
	if err := s.recorder.Start(stream); err != nil {
		s.sampler.Close()
		stream.Release()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		s.teardown(stream)
		return nil, err
	}
	return stream, nil
}

func (s *Session) teardown(stream *Stream) {
	s.sampler.Close()
	s.recorder.Stop(context.Background())
	stream.Release()
}

// StopRecording closes the sampler before returning anything, then stops the
// recorder and hands back its artifact. No hardware is held afterwards.
func (s *Session) StopRecording(ctx context.Context) (Artifact, error) {
	s.mu.Lock()
	switch s.state {
	case Idle, Starting:
		s.mu.Unlock()
		return Artifact{}, ErrNoActiveRecording
	case Stopping:
		s.mu.Unlock()
		return Artifact{}, ErrStopInProgress
	}
	s.state = Stopping
	stream := s.stream
	s.mu.Unlock()

	s.sampler.Close()
	art, err := s.recorder.Stop(ctx)
	stream.Release()

	s.mu.Lock()
	s.stream = nil
	s.state = Idle
	s.mu.Unlock()
	return art, err
}

// Close discards an active recording, if any. A start still acquiring the
// device is rolled back, and later starts fail.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.StopRecording(context.Background())
}
