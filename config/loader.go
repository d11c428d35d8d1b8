package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader builds a Config from, in increasing priority: defaults, a YAML
// file, a .env file and the environment. Tests override Lookup to inject a
// deterministic environment.
type Loader struct {
	Lookup func(string) (string, bool)
	// ConfigPath replaces the default YAML location; WAVE_CONFIG still wins.
	ConfigPath string
	// DotEnvPath defaults to ".env" in the working directory.
	DotEnvPath string
}

func (l Loader) Load() (Config, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenvPath := l.DotEnvPath
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	dotenv, err := godotenv.Read(dotenvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read %s: %w", dotenvPath, err)
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, ok
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Default()

	path, explicit := get("WAVE_CONFIG")
	if !explicit || strings.TrimSpace(path) == "" {
		explicit = false
		path = l.ConfigPath
		if path == "" {
			path = defaultConfigPath()
		}
	}
	if path != "" {
		if err := applyYAML(path, explicit, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(get, "WAVE_PROVIDER", &cfg.Provider)
	overrideString(get, "GROQ_API_KEY", &cfg.GroqAPIKey)
	overrideString(get, "OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	overrideString(get, "DEEPGRAM_API_KEY", &cfg.DeepgramAPIKey)
	overrideString(get, "WHISPER_MODEL_PATH", &cfg.ModelPath)
	overrideString(get, "WAVE_LANGUAGE", &cfg.Language)
	overrideString(get, "WAVE_FORMAT", &cfg.Format)
	overrideString(get, "WAVE_DEVICE", &cfg.Device)
	overrideString(get, "WAVE_LOG_PATH", &cfg.LogPath)
	if err := overrideDuration(get, "WAVE_FRAME_INTERVAL", &cfg.FrameInterval); err != nil {
		return Config{}, err
	}
	if err := overrideDuration(get, "WAVE_TIMEOUT", &cfg.Timeout); err != nil {
		return Config{}, err
	}
	if err := overrideInt(get, "WAVE_BARS", &cfg.Bars); err != nil {
		return Config{}, err
	}
	if err := overrideBool(get, "WAVE_BEEP", &cfg.Beep); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "whisperwave", "config.yaml")
}

type fileConfig struct {
	Provider      string `yaml:"provider"`
	ModelPath     string `yaml:"model_path"`
	Language      string `yaml:"language"`
	Format        string `yaml:"format"`
	Device        string `yaml:"device"`
	FrameInterval string `yaml:"frame_interval"`
	Bars          int    `yaml:"bars"`
	LogPath       string `yaml:"log_path"`
	Beep          *bool  `yaml:"beep"`
	Timeout       string `yaml:"timeout"`
	APIKeys       struct {
		Groq     string `yaml:"groq"`
		OpenAI   string `yaml:"openai"`
		Deepgram string `yaml:"deepgram"`
	} `yaml:"api_keys"`
}

// applyYAML merges the file at path into cfg. A missing file is only an
// error when the path was given explicitly.
func applyYAML(path string, explicit bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	setString := func(v string, target *string) {
		if strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	setString(fc.Provider, &cfg.Provider)
	setString(fc.ModelPath, &cfg.ModelPath)
	setString(fc.Language, &cfg.Language)
	setString(fc.Format, &cfg.Format)
	setString(fc.Device, &cfg.Device)
	setString(fc.LogPath, &cfg.LogPath)
	setString(fc.APIKeys.Groq, &cfg.GroqAPIKey)
	setString(fc.APIKeys.OpenAI, &cfg.OpenAIAPIKey)
	setString(fc.APIKeys.Deepgram, &cfg.DeepgramAPIKey)
	if fc.Bars != 0 {
		cfg.Bars = fc.Bars
	}
	if fc.Beep != nil {
		cfg.Beep = *fc.Beep
	}
	for _, d := range []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{fc.FrameInterval, &cfg.FrameInterval, "frame_interval"},
		{fc.Timeout, &cfg.Timeout, "timeout"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config: %s in %s: %w", d.name, path, err)
		}
		*d.target = v
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideDuration(lookup func(string) (string, bool), key string, target *time.Duration) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = b
	return nil
}
