package capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"whisperwave/encoder"
)

// Artifact is one finalized recording.
type Artifact struct {
	Data      []byte
	MediaType string
	Duration  time.Duration
	Fragments int

	// Encoder statistics, zero when the encoder does not report them.
	EncodedSamples uint64
	EncodeTime     time.Duration
}

// Encoder consumes PCM and reports encoded fragments through the callback
// given to its factory. Finalize must deliver exactly one value once the last
// fragment has been reported.
type Encoder interface {
	Feed(pcm []byte)
	Finalize() <-chan error
	MediaType() string
}

// encodeStats is implemented by encoders that track their own work, such as
// encoder.Stream. The values are read after Finalize acknowledges.
type encodeStats interface {
	TotalFrames() uint64
	EncodeTime() time.Duration
}

type EncoderFactory func(onFragment func([]byte)) (Encoder, error)

// StreamEncoder builds encoder.Stream instances for format.
func StreamEncoder(format string) EncoderFactory {
	return func(onFragment func([]byte)) (Encoder, error) {
		s, err := encoder.NewStream(format, onFragment)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

type recording struct {
	stream  *Stream
	enc     Encoder
	untap   func()
	samples atomic.Uint64

	mu        sync.Mutex
	fragments [][]byte
	sealed    bool
}

func (r *recording) feed(pcm []byte) {
	r.enc.Feed(pcm)
	r.samples.Add(uint64(len(pcm) / 2))
}

func (r *recording) addFragment(b []byte) {
	if len(b) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.fragments = append(r.fragments, b)
}

// seal freezes the fragment list; late fragments from an abandoned encoder
// are dropped.
func (r *recording) seal() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	frags := r.fragments
	r.fragments = nil
	return frags
}

// Recorder encodes a Stream into one Artifact.
type Recorder struct {
	newEncoder EncoderFactory

	mu       sync.Mutex
	cur      *recording
	stopping bool
}

func NewRecorder(newEncoder EncoderFactory) *Recorder {
	return &Recorder{newEncoder: newEncoder}
}

func (r *Recorder) Start(stream *Stream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		return ErrAlreadyRecording
	}
	if stream.Released() {
		return fmt.Errorf("start recorder: %w", ErrDeviceUnavailable)
	}

	rec := &recording{stream: stream}
	enc, err := r.newEncoder(rec.addFragment)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderUnavailable, err)
	}
	rec.enc = enc
	rec.untap = stream.Tap(rec.feed)
	r.cur = rec
	return nil
}

// Recording reports whether Start succeeded and Stop has not completed.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur != nil
}

// Stop finalizes the encoder, waits for its acknowledgment and returns the
// fragments concatenated in arrival order. The stream is released whether or
// not finalization succeeds.
func (r *Recorder) Stop(ctx context.Context) (Artifact, error) {
	r.mu.Lock()
	rec := r.cur
	switch {
	case rec == nil:
		r.mu.Unlock()
		return Artifact{}, ErrNoActiveRecording
	case r.stopping:
		r.mu.Unlock()
		return Artifact{}, ErrStopInProgress
	}
	r.stopping = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.cur = nil
		r.stopping = false
		r.mu.Unlock()
	}()

	rec.untap()
	var err error
	select {
	case err = <-rec.enc.Finalize():
	case <-ctx.Done():
		err = ctx.Err()
	}
	rec.stream.Release()
	frags := rec.seal()
	if err != nil {
		return Artifact{}, fmt.Errorf("finalize recording: %w", err)
	}

	art := Artifact{
		Data:      bytes.Join(frags, nil),
		MediaType: rec.enc.MediaType(),
		Duration:  time.Duration(rec.samples.Load()) * time.Second / encoder.SampleRate,
		Fragments: len(frags),
	}
	if st, ok := rec.enc.(encodeStats); ok {
		art.EncodedSamples = st.TotalFrames()
		art.EncodeTime = st.EncodeTime()
	}
	return art, nil
}
