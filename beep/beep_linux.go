//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	sounds    cues
	soundOnce sync.Once
)

func initSound() { sounds = newCues(0.2) }

func play(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient(pulse.ClientApplicationName("whisperwave"))
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func cue(pick func(cues) []int16) {
	if disabled.Load() {
		return
	}
	soundOnce.Do(initSound)
	go play(pick(sounds))
}

func Init() { soundOnce.Do(initSound) }

func PlayStart() { cue(func(c cues) []int16 { return c.start }) }
func PlayEnd()   { cue(func(c cues) []int16 { return c.end }) }
func PlayError() { cue(func(c cues) []int16 { return c.fail }) }
