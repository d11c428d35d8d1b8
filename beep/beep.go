// Package beep plays short audio cues for recording start, stop and errors.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

const (
	sampleRate = 44100

	// start: high, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// end: medium, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// error: low double beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// tone renders an exponentially decaying sine as mono PCM16.
func tone(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / sampleRate
		env := math.Exp(-t * decay)
		out[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * env)
	}
	return out
}

func doubleTone(freq, beepDur, gapDur, volume, decay float64) []int16 {
	b := tone(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, 2*len(b)+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	return append(out, b...)
}

type cues struct {
	start, end, fail []int16
}

func newCues(tickDur float64) cues {
	return cues{
		start: tone(startFreq, tickDur, startVolume, startDecay),
		end:   tone(endFreq, tickDur, endVolume, endDecay),
		fail:  doubleTone(errorFreq, 0.08, 0.05, errorVolume, errorDecay),
	}
}
