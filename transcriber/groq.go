package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const groqAPIURL = "https://api.groq.com/openai/v1/audio/transcriptions"

type Groq struct {
	baseTranscriber
}

func NewGroq(apiKey string, timeout time.Duration) *Groq {
	return &Groq{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(groqAPIURL, timeout),
			apiURL: groqAPIURL,
			apiKey: apiKey,
		},
	}
}

func (g *Groq) Name() string { return "groq" }

type groqResponse struct {
	Text     *string `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (g *Groq) Transcribe(ctx context.Context, audio []byte, mediaType string) (*Result, error) {
	resp, err := g.postAudioForm(ctx, "groq", audio, mediaType,
		formField{"model", "whisper-large-v3-turbo"},
		formField{"response_format", "verbose_json"},
	)
	if err != nil {
		return nil, err
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("%w: groq response parse error: %v", ErrInference, err)
	}
	if gResp.Text == nil {
		return nil, fmt.Errorf("%w: groq response has no text", ErrInference)
	}

	var segments []Segment
	for _, seg := range gResp.Segments {
		segments = append(segments, Segment{
			Text:         seg.Text,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
			Start:        seg.Start,
			End:          seg.End,
		})
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      *gResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
		Duration:  gResp.Duration,
		Segments:  segments,
	}, nil
}
