package doctor

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"whisperwave/audio"
	"whisperwave/capture"
	"whisperwave/transcriber"
)

func sine(n int) []byte {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(12000 * math.Sin(2*math.Pi*440*float64(i)/16000))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return pcm
}

func TestRecordSample(t *testing.T) {
	fake := audio.NewFakeContextPCM(sine(16000), true)
	s, err := recordSample(fake, nil, "flac", 300*time.Millisecond, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if s.frames == 0 {
		t.Error("no frames counted")
	}
	if s.peak == 0 {
		t.Error("spectrum peak is zero for a 440Hz tone")
	}
	if s.art.MediaType != "audio/flac" || len(s.art.Data) == 0 {
		t.Errorf("artifact = %s, %d bytes", s.art.MediaType, len(s.art.Data))
	}
	if fake.OpenHandles() != 0 {
		t.Errorf("open handles = %d", fake.OpenHandles())
	}
}

func TestRecordSampleSilentDevice(t *testing.T) {
	fake := audio.NewFakeContextPCM(nil, true)
	_, err := recordSample(fake, nil, "wav", 100*time.Millisecond, io.Discard)
	if err == nil {
		t.Fatal("expected error for a device that delivers nothing")
	}
}

func TestRecordSampleAcquireFailure(t *testing.T) {
	fake := audio.NewFakeContextPCM(nil, true)
	fake.FailNewCapture(errors.New("access denied"))
	_, err := recordSample(fake, nil, "flac", 10*time.Millisecond, io.Discard)
	if !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
}

func TestTranscribeSample(t *testing.T) {
	art := capture.Artifact{Data: []byte("clip"), MediaType: "audio/flac"}

	text, _, err := transcribeSample(transcriber.NewLoader(transcriber.NewFake("  ok  ", nil)), art, time.Second)
	if err != nil || text != "ok" {
		t.Fatalf("got %q, %v", text, err)
	}

	broken := transcriber.NewFake("", nil)
	broken.FailLoad(errors.New("missing model"))
	if _, _, err := transcribeSample(transcriber.NewLoader(broken), art, time.Second); !errors.Is(err, transcriber.ErrModelLoad) {
		t.Fatalf("got %v, want ErrModelLoad", err)
	}

	if _, _, err := transcribeSample(transcriber.NewLoader(transcriber.NewFake("x", nil)), capture.Artifact{}, time.Second); err == nil {
		t.Fatal("expected error for empty recording")
	}
}
