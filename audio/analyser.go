package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	DefaultFFTSize     = 256
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Analyser keeps the most recent FFTSize samples of a PCM16 stream and turns
// them into a byte magnitude spectrum, one value per bin, 0..255.
//
// Write and ByteFrequencyData may be called from different goroutines.
type Analyser struct {
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64

	mu       sync.Mutex
	fftSize  int
	ring     []float64
	pos      int
	window   []float64
	fft      *fourier.FFT
	seq      []float64
	coeff    []complex128
	smoothed []float64
}

func NewAnalyser(fftSize int) *Analyser {
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		fftSize = DefaultFFTSize
	}
	return &Analyser{
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
		fftSize:     fftSize,
		ring:        make([]float64, fftSize),
		window:      blackman(fftSize),
		fft:         fourier.NewFFT(fftSize),
		seq:         make([]float64, fftSize),
		coeff:       make([]complex128, fftSize/2+1),
		smoothed:    make([]float64, fftSize/2),
	}
}

// BinCount is the length of the slice filled by ByteFrequencyData.
func (a *Analyser) BinCount() int { return a.fftSize / 2 }

// Write appends little-endian PCM16 samples, overwriting the oldest.
func (a *Analyser) Write(pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		a.ring[a.pos] = float64(s) / 32768.0
		a.pos = (a.pos + 1) % a.fftSize
	}
}

// ByteFrequencyData computes the spectrum of the current window into dst.
// dst shorter than BinCount receives the lowest bins only.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < a.fftSize; i++ {
		a.seq[i] = a.ring[(a.pos+i)%a.fftSize] * a.window[i]
	}
	a.coeff = a.fft.Coefficients(a.coeff, a.seq)

	scale := 1.0 / float64(a.fftSize)
	rangeDB := a.MaxDecibels - a.MinDecibels
	n := min(len(dst), len(a.smoothed))
	for k := range a.smoothed {
		c := a.coeff[k]
		mag := math.Hypot(real(c), imag(c)) * scale
		a.smoothed[k] = a.Smoothing*a.smoothed[k] + (1-a.Smoothing)*mag
		if k >= n {
			continue
		}
		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := 255 * (db - a.MinDecibels) / rangeDB
		switch {
		case v < 0 || math.IsNaN(v):
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = byte(v)
		}
	}
}

// Reset clears buffered samples and smoothing state.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	clear(a.smoothed)
	a.pos = 0
}

func blackman(n int) []float64 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}
