package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const deepgramAPIURL = "https://api.deepgram.com/v1/listen"

type Deepgram struct {
	baseTranscriber
}

func NewDeepgram(apiKey string, timeout time.Duration) *Deepgram {
	return &Deepgram{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient("https://api.deepgram.com", timeout),
			apiURL: deepgramAPIURL,
			apiKey: apiKey,
		},
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, mediaType string) (*Result, error) {
	q := url.Values{}
	q.Set("model", "nova-3")
	q.Set("smart_format", "true")
	if d.lang != "" {
		q.Set("language", d.lang)
	} else {
		q.Set("detect_language", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", mediaType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: deepgram request: %v", ErrInference, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: deepgram API error %d: %s", ErrInference, resp.StatusCode, string(resp.Body))
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(resp.Body, &dgResp); err != nil {
		return nil, fmt.Errorf("%w: deepgram response parse error: %v", ErrInference, err)
	}
	if dgResp.Results == nil {
		return nil, fmt.Errorf("%w: deepgram response has no results", ErrInference)
	}

	var text string
	var confidence float64
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		text = alt.Transcript
		confidence = alt.Confidence
	}

	remaining := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining")
	limit := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit")

	return &Result{
		Text:       text,
		Metrics:    resp.Metrics,
		RateLimit:  remaining + "/" + limit,
		Confidence: confidence,
		Duration:   dgResp.Metadata.Duration,
	}, nil
}
