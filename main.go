package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"whisperwave/audio"
	"whisperwave/beep"
	"whisperwave/capture"
	"whisperwave/config"
	"whisperwave/doctor"
	"whisperwave/encoder"
	"whisperwave/hotkey"
	"whisperwave/log"
	"whisperwave/notify"
	"whisperwave/shutdown"
	"whisperwave/transcriber"
)

var version = "dev"

type options struct {
	setup     bool
	device    string
	test      string
	benchmark string
	runs      int
	doctor    bool
	logPath   string
	provider  string
	format    string
	lang      string
	noBeep    bool
	version   bool
	crash     bool
	profile   string
}

func parseFlags() options {
	var o options
	flag.BoolVar(&o.setup, "setup", false, "Select microphone device interactively")
	flag.StringVar(&o.device, "device", "", "Use named microphone device")
	flag.StringVar(&o.test, "test", "", "Headless mode: replay this WAV file as the microphone, driven by stdin commands")
	flag.StringVar(&o.benchmark, "benchmark", "", "Encode and transcribe this WAV file, then exit")
	flag.IntVar(&o.runs, "runs", 3, "Number of benchmark iterations")
	flag.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	flag.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	flag.StringVar(&o.provider, "provider", "", "Transcription provider: whisper, groq, openai, deepgram or fake")
	flag.StringVar(&o.format, "format", "", "Recording format: flac or wav")
	flag.StringVar(&o.lang, "lang", "", "Language code for transcription (e.g., en, es, fr). Empty = auto-detect")
	flag.BoolVar(&o.noBeep, "nobeep", false, "Disable start/stop sounds")
	flag.BoolVar(&o.version, "version", false, "Print version and exit")
	flag.BoolVar(&o.crash, "crash", false, "Trigger synthetic panic for testing crash logging")
	flag.StringVar(&o.profile, "profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	flag.Parse()
	return o
}

// applyFlags layers command-line values over the loaded configuration.
func applyFlags(cfg *config.Config, o options) error {
	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if o.format != "" {
		cfg.Format = o.format
	}
	if o.lang != "" {
		cfg.Language = o.lang
	}
	if o.device != "" {
		cfg.Device = o.device
	}
	if o.logPath != "" {
		cfg.LogPath = o.logPath
	}
	if o.noBeep {
		cfg.Beep = false
	}
	return cfg.Validate()
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func newEngine(cfg config.Config) (transcriber.Transcriber, error) {
	return transcriber.New(transcriber.Config{
		Provider:       cfg.Provider,
		GroqAPIKey:     cfg.GroqAPIKey,
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		DeepgramAPIKey: cfg.DeepgramAPIKey,
		ModelPath:      cfg.ModelPath,
		Language:       cfg.Language,
		Timeout:        cfg.Timeout,
	})
}

func run() {
	o := parseFlags()

	if o.version {
		fmt.Printf("whisperwave %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Loader{}.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(&cfg, o); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if o.profile != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", o.profile)
			if err := http.ListenAndServe(o.profile, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if o.crash {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if !cfg.Beep {
		beep.Disable()
	}

	if o.doctor {
		os.Exit(doctor.Run(cfg))
	}

	engine, err := newEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if o.test != "" {
		os.Exit(runTestMode(o.test, engine, cfg, os.Stdin, os.Stdout))
	}

	if o.benchmark != "" {
		os.Exit(runBenchmark(o.benchmark, o.runs, engine, cfg))
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	device, err := audio.FindDevice(actx, cfg.Device)
	if err != nil {
		log.Warnf("device %q: %v", cfg.Device, err)
		fmt.Printf("Warning: %v, falling back to default device\n", err)
		device = nil
	}
	if o.setup && cfg.Device == "" {
		device, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			device = nil
		}
	}

	deviceName := "system default"
	if device != nil {
		deviceName = device.Name
	}
	log.SessionStart(engine.Name(), cfg.Format, deviceName)

	go beep.Init()

	a := newApp(actx, device, engine, cfg, notify.Multi(tuiNotifier, notify.Log{}, notify.Beep{}))

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(a, cfg.Bars)
	tuiMu.Unlock()

	go a.loadModel(context.Background())

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		tuiProgram.Quit()
	}()

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Warnf("hotkey register error: %v", err)
	} else {
		defer hk.Unregister()
		stopHotkey := make(chan struct{})
		defer close(stopHotkey)
		hotkey.OnPress(hk, stopHotkey, func() { tuiSend(toggleMsg{}) })
	}

	go tuiSend(DeviceLineMsg{Text: deviceLineText(device)})

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	a.close()
	log.SessionEnd(a.list.Len())
	log.Close()
}

// engineContext bounds a standalone transcription by d. Zero leaves timing
// to the engine.
func engineContext(d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithCancel(context.Background())
}

// runBenchmark replays a WAV file through the capture pipeline and times
// encoding and transcription separately.
func runBenchmark(wavFile string, runs int, engine transcriber.Transcriber, cfg config.Config) int {
	fmt.Printf("Benchmark: %s (%d runs, %s, %s)\n", wavFile, runs, cfg.Format, engine.Name())

	fake, err := audio.NewFakeContext(wavFile, false)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	session := capture.NewSession(fake, capture.Options{Encoder: capture.StreamEncoder(cfg.Format)})
	defer session.Close()

	loader := transcriber.NewLoader(engine)
	loadStart := time.Now()
	if err := loader.Load(context.Background()); err != nil {
		fmt.Printf("Error loading model: %v\n", err)
		return 1
	}
	took := time.Since(loadStart)
	log.ModelLoaded(engine.Name(), took)
	fmt.Printf("Model ready in %dms\n", took.Milliseconds())

	for i := 1; i <= runs; i++ {
		fmt.Printf("=== Run %d ===\n", i)

		encStart := time.Now()
		if err := session.StartRecording(nil); err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		art, err := session.StopRecording(context.Background())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		wall := time.Since(encStart)

		ctx, cancel := engineContext(cfg.Timeout)
		trStart := time.Now()
		res, err := loader.TranscribeResult(ctx, art.Data, art.MediaType)
		cancel()
		latency := time.Since(trStart)
		if err != nil {
			log.TranscriptionDone(engine.Name(), latency, 0, "failed")
			fmt.Printf("Error: %v\n", err)
			return 1
		}
		text := strings.TrimSpace(res.Text)
		log.TranscriptionDone(engine.Name(), latency, len(text), "ready")

		fmt.Printf("Text: %s\n", text)
		fmt.Printf("  audio:    %.1fs\n", art.Duration.Seconds())
		fmt.Printf("  encoded:  %.1f KB %s (%d fragments, %d samples)\n",
			float64(len(art.Data))/1024, encoder.Extension(art.MediaType), art.Fragments, art.EncodedSamples)
		fmt.Printf("  encode:   %dms cpu, %dms wall\n", art.EncodeTime.Milliseconds(), wall.Milliseconds())
		if m := res.Metrics; m != nil {
			conn := "new"
			if m.ConnReused {
				conn = "reused"
			}
			fmt.Printf("  network:  %dms (dns %d, tls %d, ttfb %d) conn=%s %s\n",
				m.Sum().Milliseconds(), m.DNS.Milliseconds(), m.TLS.Milliseconds(), m.TTFB.Milliseconds(), conn, m.TLSProtocol)
		}
		if res.RateLimit != "" {
			fmt.Printf("  rate:     %s\n", res.RateLimit)
		}
		fmt.Printf("  total:    %dms\n", latency.Milliseconds())
		fmt.Println()

		if i < runs {
			time.Sleep(500 * time.Millisecond)
		}
	}
	return 0
}
