package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       atomic.Bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: WAVE_LOG_PATH environment variable
	envPath := os.Getenv("WAVE_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady.Store(true)
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	logReady.Store(false)
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
}

func Info(msg string) {
	if logReady.Load() {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady.Load() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady.Load() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady.Load() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady.Load() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func TranscriptionText(text string) {
	if !logReady.Load() {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

// Recording describes one finalized capture.
type Recording struct {
	Duration   time.Duration
	Bytes      int
	RawBytes   int
	MediaType  string
	Fragments  int
	EncodeTime time.Duration
}

func RecordingFinished(r Recording) {
	if !logReady.Load() {
		return
	}
	ev := diagLog.Info().
		Float64("audio_s", r.Duration.Seconds()).
		Float64("size_kb", float64(r.Bytes)/1024).
		Str("media_type", r.MediaType).
		Int("fragments", r.Fragments).
		Float64("encode_ms", float64(r.EncodeTime.Microseconds())/1000)
	if r.RawBytes > 0 {
		ev = ev.Float64("raw_kb", float64(r.RawBytes)/1024).
			Float64("compression_pct", 100*(1-float64(r.Bytes)/float64(r.RawBytes)))
	}
	ev.Msg("recording_finished")
}

// Network is the request timing of one hosted transcription.
type Network struct {
	DNS, ConnWait, TCP, TLS time.Duration
	TTFB, Download, Total   time.Duration
	ConnReused              bool
	TLSProto                string
	RateLimit               string
}

// TranscriptionMetrics records what the engine reported besides the text.
// net is nil for local engines.
func TranscriptionMetrics(provider string, net *Network, audioS, confidence float64, segments int) {
	if !logReady.Load() {
		return
	}
	ev := diagLog.Info().Str("provider", provider)
	if net != nil {
		conn := "new"
		if net.ConnReused {
			conn = "reused"
		}
		ev = ev.Str("conn", conn)
		if net.TLSProto != "" {
			ev = ev.Str("tls_proto", net.TLSProto)
		}
		if net.RateLimit != "" {
			ev = ev.Str("rate_limit", net.RateLimit)
		}
		ev = ev.Int64("dns_ms", net.DNS.Milliseconds()).
			Int64("conn_wait_ms", net.ConnWait.Milliseconds()).
			Int64("tcp_ms", net.TCP.Milliseconds()).
			Int64("tls_ms", net.TLS.Milliseconds()).
			Int64("ttfb_ms", net.TTFB.Milliseconds()).
			Int64("download_ms", net.Download.Milliseconds()).
			Int64("total_ms", net.Total.Milliseconds())
	}
	if audioS > 0 {
		ev = ev.Float64("audio_s", audioS)
	}
	if confidence > 0 {
		ev = ev.Float64("confidence", confidence)
	}
	ev.Int("segments", segments).Msg("transcription_metrics")
}

// TranscriptionDone records one reconciled transcription. status is the
// final entry status, or "discarded" when the entry was deleted meanwhile.
func TranscriptionDone(provider string, latency time.Duration, chars int, status string) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Int64("latency_ms", latency.Milliseconds()).
		Int("chars", chars).
		Str("status", status).
		Msg("transcription")
}

func ModelLoaded(provider string, took time.Duration) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Int64("load_ms", took.Milliseconds()).
		Msg("model_loaded")
}

func SessionStart(provider, format, device string) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Str("format", format).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}
