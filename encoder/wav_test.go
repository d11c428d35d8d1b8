package encoder

import (
	"bytes"
	"io"
	"testing"
)

func TestWavEncoder(t *testing.T) {
	var out bytes.Buffer
	enc := NewWav(&out)

	block := make([]int16, 1000)
	for i := range block {
		block[i] = int16(i * 16)
	}
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if out.Len() != 0 {
		t.Fatal("wav output written before Close")
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := out.Bytes()
	if len(data) < 44 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("output is not a RIFF/WAVE file: % x", data[:min(len(data), 12)])
	}
	if want := 44 + len(block)*2; len(data) != want {
		t.Errorf("wav size = %d, want %d", len(data), want)
	}

	got, err := DecodeToFloat32(data, MediaTypeWAV)
	if err != nil {
		t.Fatalf("DecodeToFloat32: %v", err)
	}
	if len(got) != len(block) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(block))
	}
	if want := float32(500*16) / 32768; got[500] != want {
		t.Errorf("sample 500 = %v, want %v", got[500], want)
	}
}

func TestWavEncoderCloseTwice(t *testing.T) {
	var out bytes.Buffer
	enc := NewWav(&out)
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	n := out.Len()
	if err := enc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if out.Len() != n {
		t.Error("second Close wrote more data")
	}
	if err := enc.EncodeBlock([]int16{1}); err == nil {
		t.Error("EncodeBlock after Close should fail")
	}
}

func TestSeekBuffer(t *testing.T) {
	var b seekBuffer
	b.Write([]byte("hello world"))
	if _, err := b.Seek(6, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	b.Write([]byte("WORLD"))
	if got := string(b.data); got != "hello WORLD" {
		t.Errorf("data = %q", got)
	}
	if pos, _ := b.Seek(0, io.SeekEnd); pos != 11 {
		t.Errorf("end = %d, want 11", pos)
	}
	if _, err := b.Seek(-20, io.SeekCurrent); err == nil {
		t.Error("negative seek should fail")
	}
}

func TestNewUnknownFormat(t *testing.T) {
	if _, err := New("mp3", io.Discard); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMediaTypes(t *testing.T) {
	tests := []struct {
		format, mediaType, ext string
	}{
		{FormatFLAC, MediaTypeFLAC, "flac"},
		{FormatWAV, MediaTypeWAV, "wav"},
	}
	for _, tt := range tests {
		if got := MediaTypeFor(tt.format); got != tt.mediaType {
			t.Errorf("MediaTypeFor(%q) = %q, want %q", tt.format, got, tt.mediaType)
		}
		if got := Extension(tt.mediaType); got != tt.ext {
			t.Errorf("Extension(%q) = %q, want %q", tt.mediaType, got, tt.ext)
		}
	}
	if got := Extension("audio/webm"); got != "bin" {
		t.Errorf("Extension(audio/webm) = %q", got)
	}
}
