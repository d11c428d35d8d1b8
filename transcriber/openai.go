package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const openAIAPIURL = "https://api.openai.com/v1/audio/transcriptions"

type OpenAI struct {
	baseTranscriber
}

func NewOpenAI(apiKey string, timeout time.Duration) *OpenAI {
	return &OpenAI{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(openAIAPIURL, timeout),
			apiURL: openAIAPIURL,
			apiKey: apiKey,
		},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, mediaType string) (*Result, error) {
	resp, err := o.postAudioForm(ctx, "openai", audio, mediaType,
		formField{"model", "gpt-4o-transcribe"},
		formField{"response_format", "json"},
	)
	if err != nil {
		return nil, err
	}

	var oResp struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("%w: openai response parse error: %v", ErrInference, err)
	}
	if oResp.Text == nil {
		return nil, fmt.Errorf("%w: openai response has no text", ErrInference)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      *oResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
	}, nil
}
