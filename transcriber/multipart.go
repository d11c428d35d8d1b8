package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"whisperwave/encoder"
)

type formField struct{ name, value string }

// postAudioForm uploads audio to an OpenAI-compatible transcription endpoint
// and returns the response if it has status 200. Transport and status errors
// wrap ErrInference.
func (b *baseTranscriber) postAudioForm(ctx context.Context, provider string, audio []byte, mediaType string, fields ...formField) (*TracedResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+encoder.Extension(mediaType))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	for _, f := range fields {
		writer.WriteField(f.name, f.value)
	}
	if b.lang != "" {
		writer.WriteField("language", b.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %v", ErrInference, provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s API error %d: %s", ErrInference, provider, resp.StatusCode, string(resp.Body))
	}
	return resp, nil
}
