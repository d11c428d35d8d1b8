package transcript

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"whisperwave/capture"
	"whisperwave/log"
	"whisperwave/notify"
)

// Engine turns an encoded clip into text. transcriber.Loader implements it.
type Engine interface {
	Transcribe(ctx context.Context, audio []byte, mediaType string) (string, error)
}

// Orchestrator runs one transcription per finished recording and reconciles
// the outcome into a List by entry id.
type Orchestrator struct {
	list     *List
	engine   Engine
	notifier notify.Notifier

	// Provider names the engine in logs.
	Provider string

	now func() time.Time
	wg  sync.WaitGroup
}

func NewOrchestrator(list *List, engine Engine, notifier notify.Notifier) *Orchestrator {
	if notifier == nil {
		notifier = notify.Multi()
	}
	return &Orchestrator{
		list:     list,
		engine:   engine,
		notifier: notifier,
		now:      time.Now,
	}
}

// OnRecordingFinished adds a pending entry for art and returns its id. The
// transcription continues in the background.
func (o *Orchestrator) OnRecordingFinished(art capture.Artifact) string {
	id := uuid.NewString()
	o.list.Append(Entry{ID: id, CreatedAt: o.now(), Status: Pending})
	log.RecordingFinished(log.Recording{
		Duration:   art.Duration,
		Bytes:      len(art.Data),
		RawBytes:   int(art.EncodedSamples) * 2,
		MediaType:  art.MediaType,
		Fragments:  art.Fragments,
		EncodeTime: art.EncodeTime,
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.transcribe(id, art)
	}()
	return id
}

func (o *Orchestrator) transcribe(id string, art capture.Artifact) {
	// no deadline here; the engine owns its timeouts
	ctx := context.Background()
	start := time.Now()
	text, err := o.engine.Transcribe(ctx, art.Data, art.MediaType)
	latency := time.Since(start)

	if err != nil {
		log.Errorf("transcription %s: %v", id, err)
		applied := o.list.UpdateByID(id, Patch{Status: Failed, Text: FailedText})
		o.notifier.Notify(notify.Error, notify.MsgTranscription)
		log.TranscriptionDone(o.Provider, latency, 0, outcome(Failed, applied))
		return
	}

	text = strings.TrimSpace(text)
	applied := o.list.UpdateByID(id, Patch{Status: Ready, Text: text})
	if applied {
		log.TranscriptionText(text)
	}
	log.TranscriptionDone(o.Provider, latency, len(text), outcome(Ready, applied))
}

func outcome(s Status, applied bool) string {
	if !applied {
		return "discarded"
	}
	return s.String()
}

// Wait blocks until every transcription started so far has been reconciled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
