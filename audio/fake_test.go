package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, fakeSampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: fakeSampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestFakeContextReplaysWAV(t *testing.T) {
	samples := make([]int, 3000)
	for i := range samples {
		samples[i] = i % 500
	}
	ctx, err := NewFakeContext(writeWAV(t, samples), false)
	if err != nil {
		t.Fatalf("NewFakeContext: %v", err)
	}

	capture, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: fakeSampleRate, Channels: 1})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	var got int
	capture.SetCallback(func(data []byte, frames uint32) {
		got += int(frames)
	})
	if err := capture.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	capture.Stop()
	capture.Close()

	if got != len(samples) {
		t.Errorf("delivered %d frames, want %d", got, len(samples))
	}
}

func TestFakeContextOpenHandles(t *testing.T) {
	ctx := NewFakeContextPCM(nil, false)
	a, _ := ctx.NewCapture(nil, CaptureConfig{})
	b, _ := ctx.NewCapture(nil, CaptureConfig{})
	if n := ctx.OpenHandles(); n != 2 {
		t.Fatalf("OpenHandles = %d, want 2", n)
	}
	a.Close()
	a.Close() // idempotent
	if n := ctx.OpenHandles(); n != 1 {
		t.Fatalf("OpenHandles = %d, want 1", n)
	}
	b.Close()
	if n := ctx.OpenHandles(); n != 0 {
		t.Fatalf("OpenHandles = %d, want 0", n)
	}
	if n := ctx.Opened(); n != 2 {
		t.Errorf("Opened = %d, want 2", n)
	}
}

func TestFakeContextFailures(t *testing.T) {
	ctx := NewFakeContextPCM(nil, false)

	ctx.FailNewCapture(errors.New("permission denied by user"))
	if _, err := ctx.NewCapture(nil, CaptureConfig{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("NewCapture err = %v, want ErrPermissionDenied", err)
	}
	ctx.FailNewCapture(nil)

	ctx.FailStart(errors.New("device busy"))
	c, err := ctx.NewCapture(nil, CaptureConfig{})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	if err := c.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Start err = %v, want ErrDeviceUnavailable", err)
	}
	c.Close()
	if n := ctx.OpenHandles(); n != 0 {
		t.Errorf("OpenHandles = %d, want 0", n)
	}
}

func TestFakeCaptureEmit(t *testing.T) {
	ctx := NewFakeContextPCM(nil, false)
	c, _ := ctx.NewCapture(nil, CaptureConfig{})
	var got []byte
	c.SetCallback(func(data []byte, _ uint32) { got = append(got, data...) })
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	ctx.Last().Emit([]byte{1, 2, 3, 4})
	c.ClearCallback()
	ctx.Last().Emit([]byte{5, 6})
	c.Close()

	if string(got) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("got %v, want [1 2 3 4]", got)
	}
}

func TestClassify(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		want error
	}{
		{"permission", errors.New("Permission denied"), ErrPermissionDenied},
		{"os permission", os.ErrPermission, ErrPermissionDenied},
		{"other", errors.New("connection refused"), ErrDeviceUnavailable},
		{"already classified", ErrPermissionDenied, ErrPermissionDenied},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Jabra Evolve 65", true},
		{"Built-in Microphone", false},
		{"USB Audio Device", false},
	} {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
