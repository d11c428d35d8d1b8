package encoder

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavEncoder buffers a RIFF/WAVE file in memory and writes it out on Close,
// since the header sizes are only known once all samples are in.
type WavEncoder struct {
	out         io.Writer
	buf         seekBuffer
	enc         *wav.Encoder
	totalFrames uint64
	encodeTime  time.Duration
	mu          sync.Mutex
	closed      bool
}

func NewWav(w io.Writer) *WavEncoder {
	e := &WavEncoder{out: w}
	e.enc = wav.NewEncoder(&e.buf, SampleRate, BitsPerSample, Channels, 1)
	return e
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	if len(block) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("wav encoder closed")
	}

	data := make([]int, len(block))
	for i, s := range block {
		data[i] = int(s)
	}
	if err := e.enc.Write(intBuffer(data)); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.totalFrames == 0 {
		// header only
		if err := e.enc.Write(intBuffer(nil)); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	_, err := e.out.Write(e.buf.data)
	return err
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *WavEncoder) AddEncodeTime(d time.Duration) {
	e.mu.Lock()
	e.encodeTime += d
	e.mu.Unlock()
}

func (e *WavEncoder) EncodeTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeTime
}

func (e *WavEncoder) MediaType() string { return MediaTypeWAV }

func intBuffer(data []int) *goaudio.IntBuffer {
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: BitsPerSample,
	}
}

// seekBuffer is the minimal io.WriteSeeker the wav encoder needs to patch
// its header sizes.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("seekBuffer: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("seekBuffer: negative position")
	}
	b.pos = int(abs)
	return abs, nil
}
