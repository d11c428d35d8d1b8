package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"whisperwave/audio"
)

const DefaultFrameInterval = 16 * time.Millisecond

// Sampler runs the spectrum analysis loop over an open Stream. The observer
// receives the same fixed-size buffer on every tick, overwritten in place;
// it must copy anything it keeps.
type Sampler struct {
	analyser *audio.Analyser
	interval time.Duration

	mu    sync.Mutex
	untap func()
	stop  chan struct{}
	done  chan struct{}
}

func NewSampler(fftSize int, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Sampler{
		analyser: audio.NewAnalyser(fftSize),
		interval: interval,
	}
}

// BinCount is the length of each frame passed to the observer.
func (s *Sampler) BinCount() int { return s.analyser.BinCount() }

func (s *Sampler) Open(stream *Stream, observer func([]byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return errors.New("sampler already open")
	}
	if stream.Released() {
		return fmt.Errorf("open sampler: %w", ErrDeviceUnavailable)
	}

	s.analyser.Reset()
	s.untap = stream.Tap(s.analyser.Write)
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	frame := make([]byte, s.analyser.BinCount())
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			// Close may have raced the tick
			select {
			case <-stop:
				return
			default:
			}
			s.analyser.ByteFrequencyData(frame)
			if observer != nil {
				observer(frame)
			}
		}
	}()
	return nil
}

// Close stops the loop and detaches from the stream. No observer call is in
// progress or made once Close returns. Idempotent.
func (s *Sampler) Close() {
	s.mu.Lock()
	stop, done, untap := s.stop, s.done, s.untap
	s.stop, s.done, s.untap = nil, nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	untap()
}
