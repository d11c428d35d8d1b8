package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whisperwave/config"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

// isolated returns a Loader that cannot see the real environment, the
// user's config file or a .env in the working directory.
func isolated(t *testing.T, env map[string]string) config.Loader {
	t.Helper()
	dir := t.TempDir()
	return config.Loader{
		Lookup:     mapLookup(env),
		ConfigPath: filepath.Join(dir, "missing.yaml"),
		DotEnvPath: filepath.Join(dir, "missing.env"),
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := isolated(t, nil).Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Provider != "whisper" {
		t.Fatalf("expected provider whisper without API keys, got %q", cfg.Provider)
	}
	if cfg.Format != config.DefaultFormat {
		t.Fatalf("expected format %q, got %q", config.DefaultFormat, cfg.Format)
	}
	if cfg.FrameInterval != config.DefaultFrameInterval {
		t.Fatalf("expected frame interval %v, got %v", config.DefaultFrameInterval, cfg.FrameInterval)
	}
	if cfg.Bars != config.DefaultBars {
		t.Fatalf("expected %d bars, got %d", config.DefaultBars, cfg.Bars)
	}
	if !cfg.Beep {
		t.Fatal("expected beep enabled by default")
	}
	if cfg.ModelPath != config.DefaultModelPath {
		t.Fatalf("expected model path %q, got %q", config.DefaultModelPath, cfg.ModelPath)
	}
}

func TestLoaderProviderFromKeys(t *testing.T) {
	tests := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"GROQ_API_KEY": "g", "OPENAI_API_KEY": "o"}, "groq"},
		{map[string]string{"OPENAI_API_KEY": "o", "DEEPGRAM_API_KEY": "d"}, "openai"},
		{map[string]string{"DEEPGRAM_API_KEY": "d"}, "deepgram"},
		{map[string]string{"DEEPGRAM_API_KEY": "d", "WAVE_PROVIDER": "fake"}, "fake"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg, err := isolated(t, tt.env).Load()
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Provider != tt.want {
				t.Errorf("provider = %q, want %q", cfg.Provider, tt.want)
			}
		})
	}
}

func TestLoaderPrecedence(t *testing.T) {
	yamlPath := writeFile(t, "config.yaml", `
provider: openai
language: de
format: wav
device: yaml-mic
frame_interval: 33ms
bars: 20
beep: false
timeout: 10s
api_keys:
  openai: sk-yaml
`)
	dotenv := writeFile(t, ".env", "WAVE_LANGUAGE=fr\nWAVE_DEVICE=dotenv-mic\n")

	l := config.Loader{
		Lookup: mapLookup(map[string]string{
			"WAVE_CONFIG": yamlPath,
			"WAVE_DEVICE": "env-mic",
		}),
		DotEnvPath: dotenv,
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider != "openai" || cfg.OpenAIAPIKey != "sk-yaml" || cfg.Format != "wav" {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.Language != "fr" {
		t.Errorf("language = %q, want .env to override yaml", cfg.Language)
	}
	if cfg.Device != "env-mic" {
		t.Errorf("device = %q, want environment to override .env", cfg.Device)
	}
	if cfg.FrameInterval != 33*time.Millisecond || cfg.Bars != 20 || cfg.Timeout != 10*time.Second {
		t.Errorf("interval %v, bars %d, timeout %v", cfg.FrameInterval, cfg.Bars, cfg.Timeout)
	}
	if cfg.Beep {
		t.Error("beep: false in yaml ignored")
	}
}

func TestLoaderErrors(t *testing.T) {
	badYAML := writeFile(t, "bad.yaml", "provider: [unterminated")
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown provider", map[string]string{"WAVE_PROVIDER": "vosk"}, "unknown provider"},
		{"unknown format", map[string]string{"WAVE_FORMAT": "mp3"}, "unknown format"},
		{"bad interval", map[string]string{"WAVE_FRAME_INTERVAL": "fast"}, "WAVE_FRAME_INTERVAL"},
		{"negative interval", map[string]string{"WAVE_FRAME_INTERVAL": "-5ms"}, "frame interval"},
		{"negative bars", map[string]string{"WAVE_BARS": "-1"}, "bars"},
		{"bad bool", map[string]string{"WAVE_BEEP": "loud"}, "WAVE_BEEP"},
		{"missing explicit config", map[string]string{"WAVE_CONFIG": "/nonexistent/whisperwave.yaml"}, "read"},
		{"bad yaml", map[string]string{"WAVE_CONFIG": badYAML}, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := isolated(t, tt.env).Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	c := config.Config{Provider: "fake", Format: "wav", FrameInterval: time.Second, Bars: 7}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Provider != "fake" || c.Format != "wav" || c.FrameInterval != time.Second || c.Bars != 7 {
		t.Errorf("Validate changed explicit values: %+v", c)
	}
}
