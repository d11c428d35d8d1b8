package encoder

import (
	"fmt"
	"io"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

const (
	FormatFLAC = "flac"
	FormatWAV  = "wav"

	MediaTypeFLAC = "audio/flac"
	MediaTypeWAV  = "audio/wav"
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
	MediaType() string
}

// New returns an encoder for format writing its container to w.
func New(format string, w io.Writer) (Encoder, error) {
	switch format {
	case FormatFLAC:
		return NewFlac(w)
	case FormatWAV:
		return NewWav(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// MediaTypeFor maps a configured format name to its media type.
func MediaTypeFor(format string) string {
	switch format {
	case FormatWAV:
		return MediaTypeWAV
	default:
		return MediaTypeFLAC
	}
}

// Extension returns the file extension, without the dot, for a media type.
func Extension(mediaType string) string {
	switch mediaType {
	case MediaTypeWAV:
		return "wav"
	case MediaTypeFLAC:
		return "flac"
	default:
		return "bin"
	}
}
