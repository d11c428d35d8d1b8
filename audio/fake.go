package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
	fakeSampleRate    = 16000
)

// FakeContext is an in-process microphone provider. It replays PCM (or stays
// silent), counts open capture handles and can be told to fail acquisition.
type FakeContext struct {
	pcm      []byte
	realtime bool

	mu          sync.Mutex
	open        int
	opened      int
	captures    []*FakeCapture
	newCaptureE error
	startE      error
	gate        chan struct{}
}

// NewFakeContext loads a 16-bit mono WAV file to replay on every capture.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	pcm, err := decodeWAVPCM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", wavPath, err)
	}
	return &FakeContext{pcm: pcm, realtime: realtime}, nil
}

// NewFakeContextPCM replays raw little-endian PCM16. A nil pcm yields a
// capture that only delivers data through Emit.
func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func decodeWAVPCM(data []byte) ([]byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		if len(data) > WAVHeaderSize {
			return data[WAVHeaderSize:], nil
		}
		return nil, fmt.Errorf("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return pcm, nil
}

// FailNewCapture makes the next NewCapture calls fail with err (nil resets).
func (f *FakeContext) FailNewCapture(err error) {
	f.mu.Lock()
	f.newCaptureE = err
	f.mu.Unlock()
}

// FailStart makes Start on captures created afterwards fail with err.
func (f *FakeContext) FailStart(err error) {
	f.mu.Lock()
	f.startE = err
	f.mu.Unlock()
}

// OpenHandles reports captures created and not yet closed.
func (f *FakeContext) OpenHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Opened reports how many captures were ever created.
func (f *FakeContext) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Last returns the most recently created capture, or nil.
func (f *FakeContext) Last() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captures) == 0 {
		return nil
	}
	return f.captures[len(f.captures)-1]
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

// HoldNewCapture makes NewCapture block until the returned release is
// called, like a slow audio server.
func (f *FakeContext) HoldNewCapture() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	if gate := f.gate; gate != nil {
		f.mu.Unlock()
		<-gate
		f.mu.Lock()
	}
	defer f.mu.Unlock()
	if f.newCaptureE != nil {
		return nil, classify("fake capture", f.newCaptureE)
	}
	c := &FakeCapture{
		ctx:       f,
		pcm:       f.pcm,
		realtime:  f.realtime,
		startErr:  f.startE,
		audioDone: make(chan struct{}),
	}
	f.open++
	f.opened++
	f.captures = append(f.captures, c)
	return c, nil
}

func (f *FakeContext) release() {
	f.mu.Lock()
	f.open--
	f.mu.Unlock()
}

type FakeCapture struct {
	ctx       *FakeContext
	pcm       []byte
	realtime  bool
	startErr  error
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	running  bool
	closed   bool
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the whole PCM payload has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) DeviceName() string { return "fake" }

// Running reports whether the capture is between Start and Stop.
func (f *FakeCapture) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Emit delivers pcm to the registered callback as if the hardware produced it.
func (f *FakeCapture) Emit(pcm []byte) {
	if cb := f.callback(); cb != nil {
		cb(pcm, uint32(len(pcm)/fakeBytesPerFrame))
	}
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunkBytes int) int {
	end := min(pos+chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return classify("fake start", f.startErr)
	}
	stopCh := make(chan struct{})
	feedDone := make(chan struct{})
	f.mu.Lock()
	f.running = true
	f.stopCh = stopCh
	f.feedDone = feedDone
	f.mu.Unlock()

	if len(f.pcm) == 0 {
		close(f.audioDone)
		close(feedDone)
		return nil
	}

	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
		close(f.audioDone)
		close(feedDone)
		return nil
	}

	interval := time.Duration(fakeFrameSize) * time.Second / fakeSampleRate
	go func() {
		defer close(feedDone)
		pos := 0
		silence := make([]byte, chunkBytes)
		audioFinished := false

		for {
			select {
			case <-stopCh:
				return
			default:
			}

			if cb := f.callback(); cb != nil {
				if pos < len(f.pcm) {
					pos = f.feedChunk(cb, pos, chunkBytes)
				} else {
					if !audioFinished {
						audioFinished = true
						close(f.audioDone)
					}
					cb(silence, fakeFrameSize)
				}
			}

			select {
			case <-stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stopCh, feedDone := f.stopCh, f.feedDone
	f.stopCh = nil
	f.running = false
	f.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-feedDone
}

func (f *FakeCapture) Close() {
	f.Stop()
	f.mu.Lock()
	already := f.closed
	f.closed = true
	f.mu.Unlock()
	if !already {
		f.ctx.release()
	}
}
