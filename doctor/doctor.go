package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"whisperwave/audio"
	"whisperwave/capture"
	"whisperwave/clipboard"
	"whisperwave/config"
	"whisperwave/hotkey"
	"whisperwave/transcriber"
)

const sampleDuration = 3 * time.Second

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg config.Config) int {
	tty := saveTerminal()
	tty.exitOnInterrupt()
	defer tty.restore()

	fmt.Println("whisperwave doctor - interactive system diagnostics")
	fmt.Println("===================================================")

	in := bufio.NewReader(os.Stdin)
	allPass := checkHotkey(tty)

	var art capture.Artifact
	if ok := step("[2/4] Microphone", func() error {
		var err error
		art, err = checkMicrophone(cfg, in)
		return err
	}); !ok {
		allPass = false
	}

	if ok := step("[3/4] Speech engine ("+cfg.Provider+")", func() error {
		return checkEngine(cfg, art, in)
	}); !ok {
		allPass = false
	}

	if ok := step("[4/4] Clipboard", func() error {
		if err := clipboard.Verify("whisperwave-doctor-test"); err != nil {
			return err
		}
		fmt.Println("  clipboard round trip ok")
		return nil
	}); !ok {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func step(title string, fn func() error) bool {
	fmt.Println()
	fmt.Println(title)
	if err := fn(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Println("  PASS")
	return true
}

func checkHotkey(tty *terminal) bool {
	fmt.Println()
	fmt.Println("[1/4] Global hotkey")
	fmt.Println("Press Ctrl+Shift+Space...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()
	// keyboard grabs may leave the terminal raw
	defer tty.restore()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone(cfg config.Config, in *bufio.Reader) (capture.Artifact, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return capture.Artifact{}, fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	device, err := audio.FindDevice(actx, cfg.Device)
	if err != nil {
		return capture.Artifact{}, err
	}

	fmt.Print("Press Enter and speak for 3 seconds...")
	in.ReadString('\n')

	s, err := recordSample(actx, device, cfg.Format, sampleDuration, os.Stdout)
	if err != nil {
		return capture.Artifact{}, err
	}
	fmt.Printf("  %d spectrum frames, %.1fs of audio, %.1f KB %s in %d fragments\n",
		s.frames, s.art.Duration.Seconds(), float64(len(s.art.Data))/1024, s.art.MediaType, s.art.Fragments)
	if s.peak == 0 {
		fmt.Println("  Warning: spectrum stayed flat, the microphone may be muted")
	}
	return s.art, nil
}

type sample struct {
	art    capture.Artifact
	frames int64
	peak   byte
}

// recordSample records for d through a capture session and checks that
// spectrum frames and encoded audio both arrived.
func recordSample(actx audio.Context, device *audio.DeviceInfo, format string, d time.Duration, progress io.Writer) (sample, error) {
	session := capture.NewSession(actx, capture.Options{
		Device:  device,
		Encoder: capture.StreamEncoder(format),
	})
	defer session.Close()

	var frames atomic.Int64
	var peak atomic.Int32
	err := session.StartRecording(func(frame []byte) {
		frames.Add(1)
		for _, v := range frame {
			if int32(v) > peak.Load() {
				peak.Store(int32(v))
			}
		}
	})
	if err != nil {
		return sample{}, err
	}

	fmt.Fprint(progress, "  Recording")
	deadline := time.After(d)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-deadline:
			break wait
		case <-ticker.C:
			fmt.Fprint(progress, ".")
		}
	}
	fmt.Fprintln(progress, " done")

	art, err := session.StopRecording(context.Background())
	if err != nil {
		return sample{}, err
	}
	s := sample{art: art, frames: frames.Load(), peak: byte(peak.Load())}
	if s.frames == 0 {
		return s, errors.New("no spectrum frames delivered")
	}
	if len(art.Data) == 0 || art.Duration == 0 {
		return s, errors.New("no audio captured")
	}
	return s, nil
}

func checkEngine(cfg config.Config, art capture.Artifact, in *bufio.Reader) error {
	engine, err := transcriber.New(transcriber.Config{
		Provider:       cfg.Provider,
		GroqAPIKey:     cfg.GroqAPIKey,
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		DeepgramAPIKey: cfg.DeepgramAPIKey,
		ModelPath:      cfg.ModelPath,
		Language:       cfg.Language,
		Timeout:        cfg.Timeout,
	})
	if err != nil {
		return err
	}
	text, took, err := transcribeSample(transcriber.NewLoader(engine), art, cfg.Timeout)
	if err != nil {
		return err
	}
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed in %dms: %s\n\n", took.Milliseconds(), text)

	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := in.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm != "y" && confirm != "yes" {
		return errors.New("transcription not confirmed")
	}
	return nil
}

// transcribeSample loads the engine and transcribes art once.
func transcribeSample(loader *transcriber.Loader, art capture.Artifact, timeout time.Duration) (string, time.Duration, error) {
	if len(art.Data) == 0 {
		return "", 0, errors.New("no recording to transcribe")
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := loader.Load(ctx); err != nil {
		return "", 0, err
	}
	start := time.Now()
	text, err := loader.Transcribe(ctx, art.Data, art.MediaType)
	return text, time.Since(start), err
}
