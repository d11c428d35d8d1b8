package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// DecodeToFloat32 turns an artifact produced by this package back into mono
// samples in [-1, 1], as local inference engines expect.
func DecodeToFloat32(data []byte, mediaType string) ([]float32, error) {
	switch mediaType {
	case MediaTypeFLAC:
		return decodeFlac(data)
	case MediaTypeWAV:
		return decodeWav(data)
	default:
		return nil, fmt.Errorf("cannot decode %q", mediaType)
	}
}

func decodeFlac(data []byte) ([]float32, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening flac: %w", err)
	}
	defer stream.Close()

	scale := float32(int64(1) << (stream.Info.BitsPerSample - 1))
	var out []float32
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing flac frame: %w", err)
		}
		for _, s := range f.Subframes[0].Samples {
			out = append(out, float32(s)/scale)
		}
	}
	return out, nil
}

func decodeWav(data []byte) ([]float32, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading wav: %w", err)
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = BitsPerSample
	}
	scale := float32(int64(1) << (bitDepth - 1))
	out := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		out = append(out, float32(buf.Data[i])/scale)
	}
	return out, nil
}
