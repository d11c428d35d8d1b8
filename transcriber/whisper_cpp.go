//go:build whisper_cpp

package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"whisperwave/encoder"
)

// Whisper runs a local ggml model through whisper.cpp. Inference is
// serialized; the library is not safe for concurrent contexts on one model.
type Whisper struct {
	modelPath string
	threads   uint

	mu    sync.Mutex
	model whisperpkg.Model
	lang  string
}

func NewWhisper(modelPath string) *Whisper {
	return &Whisper{modelPath: modelPath, threads: uint(runtime.NumCPU())}
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) SetLanguage(lang string) {
	w.mu.Lock()
	w.lang = lang
	w.mu.Unlock()
}

func (w *Whisper) GetLanguage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lang
}

func (w *Whisper) LoadModel(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model != nil {
		return nil
	}
	if w.modelPath == "" {
		return fmt.Errorf("%w: no model path configured", ErrModelLoad)
	}
	m, err := whisperpkg.New(w.modelPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelLoad, w.modelPath, err)
	}
	w.model = m
	return nil
}

func (w *Whisper) Transcribe(_ context.Context, audio []byte, mediaType string) (*Result, error) {
	samples, err := encoder.DecodeToFloat32(audio, mediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil, fmt.Errorf("%w: model not loaded", ErrInference)
	}
	if len(samples) == 0 {
		return &Result{}, nil
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("%w: create context: %v", ErrInference, err)
	}
	wctx.SetThreads(w.threads)
	lang := w.lang
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("%w: language %q: %v", ErrInference, lang, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("%w: process audio: %v", ErrInference, err)
	}

	var (
		parts    []string
		segments []Segment
	)
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read segment: %v", ErrInference, err)
		}
		segments = append(segments, Segment{
			Text:  seg.Text,
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
		})
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}

	return &Result{
		Text:     strings.Join(parts, " "),
		Duration: float64(len(samples)) / encoder.SampleRate,
		Segments: segments,
	}, nil
}

func (w *Whisper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	return nil
}
