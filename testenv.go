package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"whisperwave/audio"
	"whisperwave/beep"
	"whisperwave/config"
	"whisperwave/log"
	"whisperwave/notify"
	"whisperwave/transcriber"
)

// runTestMode drives the app headlessly from line commands on in, with a WAV
// file standing in for the microphone. Results are written to out.
//
//	START | STOP | WAIT | WAIT_AUDIO_DONE | LIST | DELETE <n> | SLEEP <ms> | QUIT
func runTestMode(wavPath string, engine transcriber.Transcriber, cfg config.Config, in io.Reader, out io.Writer) int {
	beep.Disable()
	defer log.Close()
	out = &lockedWriter{w: out}

	fake, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(out, "error: loading WAV: %v\n", err)
		return 1
	}

	printer := notify.Func(func(level notify.Level, message string) {
		fmt.Fprintf(out, "notify %s: %s\n", level, message)
	})
	a := newApp(fake, nil, engine, cfg, notify.Multi(printer, notify.Log{}))
	defer a.close()
	defer a.orch.Wait()

	log.SessionStart(engine.Name(), cfg.Format, "fake")
	if err := a.loadModel(context.Background()); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 1
	}

	var frames atomic.Int64
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "":
		case cmd == "START":
			frames.Store(0)
			if err := a.start(func([]byte) { frames.Add(1) }); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "recording")
		case cmd == "STOP":
			id, err := a.stop(context.Background())
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "stopped %s frames=%t\n", id, frames.Load() > 0)
		case cmd == "WAIT":
			a.orch.Wait()
		case cmd == "WAIT_AUDIO_DONE":
			if c := fake.Last(); c != nil {
				<-c.AudioDone()
			}
		case cmd == "LIST":
			for i, e := range a.list.All() {
				fmt.Fprintf(out, "%d\t%s\t%s\n", i, e.Status, e.Text)
			}
			fmt.Fprintln(out, "end")
		case strings.HasPrefix(cmd, "DELETE "):
			n, err := strconv.Atoi(strings.TrimSpace(cmd[len("DELETE "):]))
			entries := a.list.All()
			if err != nil || n < 0 || n >= len(entries) {
				fmt.Fprintf(out, "error: no entry %q\n", cmd[len("DELETE "):])
				continue
			}
			a.remove(entries[n].ID)
			fmt.Fprintf(out, "deleted %s\n", entries[n].ID)
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[len("SLEEP "):]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "QUIT":
			log.SessionEnd(a.list.Len())
			return 0
		default:
			fmt.Fprintf(out, "error: unknown command %q\n", cmd)
		}
	}
	log.SessionEnd(a.list.Len())
	return 0
}

// lockedWriter serializes writes from background notifications and the
// command loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
