//go:build !whisper_cpp

package transcriber

import (
	"context"
	"fmt"
)

// Whisper without the whisper_cpp build tag cannot load a model; pick a
// hosted provider or rebuild with -tags whisper_cpp.
type Whisper struct {
	modelPath string
	lang      string
}

func NewWhisper(modelPath string) *Whisper {
	return &Whisper{modelPath: modelPath}
}

func (w *Whisper) Name() string            { return "whisper" }
func (w *Whisper) SetLanguage(lang string) { w.lang = lang }
func (w *Whisper) GetLanguage() string     { return w.lang }
func (w *Whisper) Close() error            { return nil }

func (w *Whisper) LoadModel(_ context.Context) error {
	return fmt.Errorf("%w: built without whisper_cpp support", ErrModelLoad)
}

func (w *Whisper) Transcribe(_ context.Context, _ []byte, _ string) (*Result, error) {
	return nil, fmt.Errorf("%w: model not loaded", ErrInference)
}
