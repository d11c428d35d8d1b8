package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whisperwave/audio"
	"whisperwave/beep"
	"whisperwave/capture"
	"whisperwave/clipboard"
	"whisperwave/config"
	"whisperwave/encoder"
	"whisperwave/log"
	"whisperwave/notify"
	"whisperwave/transcriber"
	"whisperwave/transcript"
)

var (
	errModelNotReady = errors.New("speech model not ready")
	errNotReady      = errors.New("entry has no transcript yet")
)

const msgCopyFailed = "Could not copy to clipboard."

// app owns the long-lived collaborators the UI drives: one capture session,
// the engine loader and the transcript list with its orchestrator.
type app struct {
	session  *capture.Session
	loader   *transcriber.Loader
	list     *transcript.List
	orch     *transcript.Orchestrator
	notifier notify.Notifier
	provider string
	format   string

	copy func(string) error
}

func newApp(actx audio.Context, device *audio.DeviceInfo, engine transcriber.Transcriber, cfg config.Config, notifier notify.Notifier) *app {
	if notifier == nil {
		notifier = notify.Multi()
	}
	session := capture.NewSession(actx, capture.Options{
		Device:        device,
		FrameInterval: cfg.FrameInterval,
		Encoder:       capture.StreamEncoder(cfg.Format),
	})
	loader := transcriber.NewLoader(engine)
	list := transcript.NewList()
	orch := transcript.NewOrchestrator(list, loader, notifier)
	orch.Provider = engine.Name()
	return &app{
		session:  session,
		loader:   loader,
		list:     list,
		orch:     orch,
		notifier: notifier,
		provider: engine.Name(),
		format:   cfg.Format,
		copy:     clipboard.Copy,
	}
}

// loadModel blocks until the engine is loaded. Failure is notified once.
func (a *app) loadModel(ctx context.Context) error {
	start := time.Now()
	if err := a.loader.Load(ctx); err != nil {
		log.Errorf("model load: %v", err)
		a.notifier.Notify(notify.Error, notify.MsgModelLoad)
		return err
	}
	log.ModelLoaded(a.provider, time.Since(start))
	return nil
}

// start begins a recording. onFrame receives spectrum frames until stop.
func (a *app) start(onFrame func([]byte)) error {
	if !a.loader.Ready() {
		return errModelNotReady
	}
	if err := a.session.StartRecording(onFrame); err != nil {
		log.Errorf("start recording: %v", err)
		switch {
		case errors.Is(err, capture.ErrPermissionDenied), errors.Is(err, capture.ErrDeviceUnavailable):
			a.notifier.Notify(notify.Error, notify.MsgMicrophone)
		case errors.Is(err, capture.ErrAlreadyRecording), errors.Is(err, capture.ErrStopInProgress):
		default:
			a.notifier.Notify(notify.Error, notify.MsgRecording)
		}
		return err
	}
	log.Info("recording_start: " + a.session.DeviceName())
	go beep.PlayStart()
	return nil
}

// stop finalizes the recording and hands it to the orchestrator. It returns
// the id of the new pending entry.
func (a *app) stop(ctx context.Context) (string, error) {
	art, err := a.session.StopRecording(ctx)
	if err != nil {
		log.Errorf("stop recording: %v", err)
		if !errors.Is(err, capture.ErrNoActiveRecording) && !errors.Is(err, capture.ErrStopInProgress) {
			a.notifier.Notify(notify.Error, notify.MsgRecording)
		}
		return "", err
	}
	go beep.PlayEnd()
	return a.orch.OnRecordingFinished(art), nil
}

// toggle starts when idle and stops when active. A stop already in progress
// is left alone.
func (a *app) toggle(ctx context.Context, onFrame func([]byte)) error {
	switch a.session.State() {
	case capture.Idle:
		return a.start(onFrame)
	case capture.Active:
		_, err := a.stop(ctx)
		return err
	}
	return nil
}

func (a *app) remove(id string) bool {
	return a.list.RemoveByID(id)
}

// copyEntry puts a ready transcript on the clipboard.
func (a *app) copyEntry(id string) error {
	e, ok := a.list.Get(id)
	if !ok || e.Status != transcript.Ready {
		return errNotReady
	}
	if err := a.copy(e.Text); err != nil {
		log.Errorf("clipboard copy: %v", err)
		a.notifier.Notify(notify.Error, msgCopyFailed)
		return err
	}
	a.notifier.Notify(notify.Success, notify.MsgCopied)
	return nil
}

func (a *app) modeLine() string {
	label := a.provider
	if lang := a.loader.Engine().GetLanguage(); lang != "" {
		label += " (" + lang + ")"
	}
	return fmt.Sprintf("[%s | %s]", encoder.MediaTypeFor(a.format), label)
}

func (a *app) close() {
	a.session.Close()
}
