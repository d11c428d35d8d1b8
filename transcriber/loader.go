package transcriber

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"whisperwave/log"
)

// Loader guards an engine's one-time model load. Concurrent Load calls share
// a single attempt; a failed attempt may be retried.
type Loader struct {
	engine Transcriber

	mu      sync.Mutex
	ready   bool
	loading chan struct{}
	err     error
}

func NewLoader(engine Transcriber) *Loader {
	return &Loader{engine: engine}
}

func (l *Loader) Engine() Transcriber { return l.engine }

func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// Loading reports whether a load attempt is in progress.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading != nil
}

// Err returns the error of the last finished load attempt.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Load loads the model unless it is already loaded, or joins an attempt
// already in flight.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.ready {
		l.mu.Unlock()
		return nil
	}
	if wait := l.loading; wait != nil {
		l.mu.Unlock()
		select {
		case <-wait:
			return l.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	l.loading = done
	l.mu.Unlock()

	err := l.engine.LoadModel(ctx)

	l.mu.Lock()
	l.ready = err == nil
	l.err = err
	l.loading = nil
	l.mu.Unlock()
	close(done)
	return err
}

// Transcribe loads the model first if needed and returns the trimmed text.
func (l *Loader) Transcribe(ctx context.Context, audio []byte, mediaType string) (string, error) {
	res, err := l.TranscribeResult(ctx, audio, mediaType)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

// TranscribeResult is Transcribe without trimming. The engine's timing and
// scoring are logged; a nil result is an inference failure.
func (l *Loader) TranscribeResult(ctx context.Context, audio []byte, mediaType string) (*Result, error) {
	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	res, err := l.engine.Transcribe(ctx, audio, mediaType)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s returned no result", ErrInference, l.engine.Name())
	}
	logResult(l.engine.Name(), res)
	return res, nil
}

func logResult(provider string, res *Result) {
	var net *log.Network
	if m := res.Metrics; m != nil {
		net = &log.Network{
			DNS:        m.DNS,
			ConnWait:   m.ConnWait,
			TCP:        m.TCP,
			TLS:        m.TLS,
			TTFB:       m.TTFB,
			Download:   m.Download,
			Total:      m.Total,
			ConnReused: m.ConnReused,
			TLSProto:   m.TLSProtocol,
			RateLimit:  res.RateLimit,
		}
	}
	log.TranscriptionMetrics(provider, net, res.Duration, res.Confidence, len(res.Segments))
}
