package config

import (
	"fmt"
	"time"
)

const (
	DefaultFormat        = "flac"
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultBars          = 40
	DefaultTimeout       = 60 * time.Second
	DefaultModelPath     = "models/ggml-base.en.bin"
)

var (
	providers = []string{"whisper", "groq", "openai", "deepgram", "fake"}
	formats   = []string{"flac", "wav"}
)

// Config is the resolved runtime configuration. Command-line flags are
// applied on top of it in main.
type Config struct {
	Provider       string
	GroqAPIKey     string
	OpenAIAPIKey   string
	DeepgramAPIKey string
	ModelPath      string
	Language       string
	Format         string
	Device         string
	FrameInterval  time.Duration
	Bars           int
	LogPath        string
	Beep           bool
	Timeout        time.Duration
}

func Default() Config {
	return Config{
		ModelPath:     DefaultModelPath,
		Format:        DefaultFormat,
		FrameInterval: DefaultFrameInterval,
		Bars:          DefaultBars,
		Beep:          true,
		Timeout:       DefaultTimeout,
	}
}

// Validate applies defaults, picks a provider from the available API keys
// when none is set, and rejects unknown or out-of-range values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		c.Provider = c.detectProvider()
	}
	if !oneOf(c.Provider, providers) {
		return fmt.Errorf("config: unknown provider %q (want one of %v)", c.Provider, providers)
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if !oneOf(c.Format, formats) {
		return fmt.Errorf("config: unknown format %q (want one of %v)", c.Format, formats)
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("config: frame interval must be positive, got %v", c.FrameInterval)
	}
	if c.Bars == 0 {
		c.Bars = DefaultBars
	}
	if c.Bars < 0 {
		return fmt.Errorf("config: bars must be positive, got %d", c.Bars)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must be >= 0, got %v", c.Timeout)
	}
	if c.Provider == "whisper" && c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	return nil
}

func (c *Config) detectProvider() string {
	switch {
	case c.GroqAPIKey != "":
		return "groq"
	case c.OpenAIAPIKey != "":
		return "openai"
	case c.DeepgramAPIKey != "":
		return "deepgram"
	default:
		return "whisper"
	}
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
