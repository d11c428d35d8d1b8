//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// player owns one playback device that is restarted for every cue. The
// device callback only reads the atomics.
type player struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	dev    *malgo.Device
	buf    atomic.Pointer[[]byte]
	cursor atomic.Uint32
}

var (
	out       *player
	sounds    struct{ start, end, fail []byte }
	soundOnce sync.Once
)

func initSound() {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	p := &player{ctx: ctx}
	if err := p.open(); err != nil {
		ctx.Uninit()
		return
	}
	c := newCues(0.04)
	sounds.start = pcmBytes(c.start)
	sounds.end = pcmBytes(c.end)
	sounds.fail = pcmBytes(c.fail)
	out = p
}

func (p *player) open() error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	dev, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{Data: p.fill})
	if err != nil {
		return err
	}
	p.dev = dev
	return nil
}

// fill copies the next chunk of the current cue and pads with silence.
func (p *player) fill(dst, _ []byte, frameCount uint32) {
	want := frameCount * 2
	n := uint32(0)
	if b := p.buf.Load(); b != nil {
		pos := p.cursor.Load()
		if left := uint32(len(*b)) - pos; left > 0 {
			n = min(want, left)
			copy(dst[:n], (*b)[pos:pos+n])
			p.cursor.Store(pos + n)
		} else {
			p.buf.Store(nil)
		}
	}
	clear(dst[n:want])
}

func (p *player) play(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return
	}

	p.dev.Stop()
	p.cursor.Store(0)
	p.buf.Store(&pcm)
	if err := p.dev.Start(); err == nil {
		return
	}
	// the device goes stale across sleep/wake; rebuild it once
	p.dev.Uninit()
	p.dev = nil
	if err := p.open(); err != nil || p.dev.Start() != nil {
		p.buf.Store(nil)
	}
}

func pcmBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, v := range samples {
		buf[i*2] = byte(v)
		buf[i*2+1] = byte(v >> 8)
	}
	return buf
}

func cue(pcm *[]byte) {
	if disabled.Load() {
		return
	}
	soundOnce.Do(initSound)
	if out != nil {
		out.play(*pcm)
	}
}

func Init() { soundOnce.Do(initSound) }

func PlayStart() { cue(&sounds.start) }
func PlayEnd()   { cue(&sounds.end) }
func PlayError() { cue(&sounds.fail) }
