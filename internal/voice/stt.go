package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type TranscriberConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
}

// OpenAITranscriber uploads audio to an OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAITranscriber struct {
	cfg        TranscriberConfig
	httpClient *http.Client
}

func NewOpenAITranscriber(cfg TranscriberConfig) *OpenAITranscriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAITranscriber{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

type transcription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Transcribe recognises audio encoded as format ("wav", "mp3", "webm", ...).
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, format string) (Transcript, error) {
	if t.cfg.APIKey == "" {
		return Transcript{}, ErrNotConfigured
	}
	if len(audio) == 0 {
		return Transcript{}, errors.New("voice: empty audio")
	}
	if format == "" {
		format = "wav"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "audio."+format)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return Transcript{}, fmt.Errorf("failed to build upload: %w", err)
	}
	_ = w.WriteField("model", t.cfg.Model)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return Transcript{}, fmt.Errorf("failed to build upload: %w", err)
	}
	payload := body.Bytes()
	contentType := w.FormDataContentType()

	var out transcription
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/audio/transcriptions", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if resp.StatusCode != http.StatusOK {
			apiErr := fmt.Errorf("transcription error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode transcription: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, t.cfg.MaxRetries), ctx)); err != nil {
		return Transcript{}, err
	}
	return Transcript{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Duration: time.Duration(out.Duration * float64(time.Second)),
	}, nil
}
