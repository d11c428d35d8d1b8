package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrModelLoad means the engine could not be made ready. Recording stays
	// blocked until a load succeeds.
	ErrModelLoad = errors.New("speech model failed to load")
	// ErrInference covers a failed or malformed transcription.
	ErrInference = errors.New("transcription failed")
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
	Start        float64
	End          float64
}

type Result struct {
	Text       string
	Metrics    *NetworkMetrics // nil for local engines
	RateLimit  string
	Confidence float64
	Duration   float64
	Segments   []Segment
}

type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	GetLanguage() string
	// LoadModel prepares the engine. It may be slow and is called once.
	LoadModel(ctx context.Context) error
	Transcribe(ctx context.Context, audio []byte, mediaType string) (*Result, error)
}

type baseTranscriber struct {
	client *TracedClient
	apiURL string
	apiKey string
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) GetLanguage() string { return b.lang }

// LoadModel for hosted providers checks the key and opens a connection so the
// first request skips the TLS handshake.
func (b *baseTranscriber) LoadModel(ctx context.Context) error {
	if b.apiKey == "" {
		return fmt.Errorf("%w: missing API key", ErrModelLoad)
	}
	go b.client.Warm(context.WithoutCancel(ctx))
	return nil
}

type Config struct {
	Provider       string // whisper|groq|openai|deepgram|fake
	GroqAPIKey     string
	OpenAIAPIKey   string
	DeepgramAPIKey string
	ModelPath      string
	Language       string
	Timeout        time.Duration
}

func New(cfg Config) (Transcriber, error) {
	var t Transcriber
	switch cfg.Provider {
	case "whisper":
		t = NewWhisper(cfg.ModelPath)
	case "groq":
		t = NewGroq(cfg.GroqAPIKey, cfg.Timeout)
	case "openai":
		t = NewOpenAI(cfg.OpenAIAPIKey, cfg.Timeout)
	case "deepgram":
		t = NewDeepgram(cfg.DeepgramAPIKey, cfg.Timeout)
	case "fake":
		t = NewFake("fake transcription", nil)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if cfg.Language != "" {
		t.SetLanguage(cfg.Language)
	}
	return t, nil
}
