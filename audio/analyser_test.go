package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func sinePCM(n, fftSize, bin int) []byte {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := 0.9 * math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(fftSize))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*32767)))
	}
	return pcm
}

func TestAnalyserSilence(t *testing.T) {
	a := NewAnalyser(DefaultFFTSize)
	a.Write(make([]byte, DefaultFFTSize*2))

	dst := make([]byte, a.BinCount())
	a.ByteFrequencyData(dst)
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("bin %d = %d, want 0 for silence", i, v)
		}
	}
}

func TestAnalyserSinePeak(t *testing.T) {
	const bin = 16
	a := NewAnalyser(DefaultFFTSize)
	dst := make([]byte, a.BinCount())

	pcm := sinePCM(DefaultFFTSize, DefaultFFTSize, bin)
	for range 30 {
		a.Write(pcm)
		a.ByteFrequencyData(dst)
	}

	for i, v := range dst {
		if v > dst[bin] {
			t.Errorf("bin %d = %d exceeds tone bin %d = %d", i, v, bin, dst[bin])
		}
	}
	if dst[bin] != 255 {
		t.Errorf("peak value = %d, want 255", dst[bin])
	}
	if dst[100] >= dst[bin] {
		t.Errorf("far bin %d not below peak %d", dst[100], dst[bin])
	}
}

func TestAnalyserBinCount(t *testing.T) {
	for _, tt := range []struct{ in, want int }{
		{256, 128},
		{2048, 1024},
		{100, DefaultFFTSize / 2}, // not a power of two
		{0, DefaultFFTSize / 2},
	} {
		if got := NewAnalyser(tt.in).BinCount(); got != tt.want {
			t.Errorf("NewAnalyser(%d).BinCount() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAnalyserShortDestination(t *testing.T) {
	a := NewAnalyser(DefaultFFTSize)
	a.Write(sinePCM(DefaultFFTSize, DefaultFFTSize, 4))
	dst := make([]byte, 8)
	a.ByteFrequencyData(dst) // must not index past dst
}

func TestAnalyserReset(t *testing.T) {
	a := NewAnalyser(DefaultFFTSize)
	dst := make([]byte, a.BinCount())
	a.Write(sinePCM(DefaultFFTSize, DefaultFFTSize, 8))
	a.ByteFrequencyData(dst)

	a.Reset()
	a.ByteFrequencyData(dst)
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("bin %d = %d after Reset, want 0", i, v)
		}
	}
}
