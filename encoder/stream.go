package encoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"time"
)

// FragmentSize is the size fragments are emitted at while recording. The
// final fragment may be shorter.
const FragmentSize = 16 * 1024

var ErrFinalized = errors.New("encoder already finalized")

// Stream encodes PCM16 on a background goroutine and hands the encoded
// container to onFragment in pieces as it is produced. Concatenating the
// fragments in order yields a complete file.
type Stream struct {
	enc        Encoder
	out        *fragmentWriter
	blockChan  chan []int16
	encodeDone chan struct{}
	encodeErr  error

	mu        sync.Mutex
	sampleBuf []int16
	finalized bool
}

func NewStream(format string, onFragment func([]byte)) (*Stream, error) {
	out := &fragmentWriter{size: FragmentSize, emit: onFragment}
	enc, err := New(format, out)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		enc:        enc,
		out:        out,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
	}

	go func() {
		defer close(s.encodeDone)
		for block := range s.blockChan {
			start := time.Now()
			if err := s.enc.EncodeBlock(block); err != nil && s.encodeErr == nil {
				s.encodeErr = err
			}
			s.enc.AddEncodeTime(time.Since(start))
		}
	}()

	return s, nil
}

func (s *Stream) MediaType() string { return s.enc.MediaType() }

// Feed queues little-endian PCM16. It is a no-op after Finalize.
func (s *Stream) Feed(pcm []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		s.sampleBuf = append(s.sampleBuf, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	for len(s.sampleBuf) >= BlockSize {
		block := make([]int16, BlockSize)
		copy(block, s.sampleBuf[:BlockSize])
		s.sampleBuf = s.sampleBuf[BlockSize:]
		s.blockChan <- block
	}
}

// Finalize flushes buffered samples and closes the container. The returned
// channel receives exactly one value once the last fragment has been
// emitted: nil, or the first encoding error.
func (s *Stream) Finalize() <-chan error {
	ack := make(chan error, 1)

	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		ack <- ErrFinalized
		return ack
	}
	s.finalized = true
	if len(s.sampleBuf) > 0 {
		partial := make([]int16, len(s.sampleBuf))
		copy(partial, s.sampleBuf)
		s.sampleBuf = nil
		s.blockChan <- partial
	}
	close(s.blockChan)
	s.mu.Unlock()

	go func() {
		<-s.encodeDone
		err := s.encodeErr
		if cerr := s.enc.Close(); err == nil {
			err = cerr
		}
		s.out.flush()
		ack <- err
	}()
	return ack
}

// TotalFrames and EncodeTime are only stable after Finalize acknowledges.
func (s *Stream) TotalFrames() uint64       { return s.enc.TotalFrames() }
func (s *Stream) EncodeTime() time.Duration { return s.enc.EncodeTime() }

// fragmentWriter batches encoder output into fragments of at least size
// bytes. It implements io.ByteWriter so bit writers use it directly.
type fragmentWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	size int
	emit func([]byte)
}

func (w *fragmentWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	w.drain(w.size)
	return len(p), nil
}

func (w *fragmentWriter) WriteByte(c byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.WriteByte(c)
	w.drain(w.size)
	return nil
}

func (w *fragmentWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drain(1)
}

func (w *fragmentWriter) drain(threshold int) {
	for w.buf.Len() >= threshold && w.buf.Len() > 0 {
		n := min(w.buf.Len(), w.size)
		frag := make([]byte, n)
		copy(frag, w.buf.Next(n))
		if w.emit != nil {
			w.emit(frag)
		}
	}
}
