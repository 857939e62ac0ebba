package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

const engineTimeout = 30 * time.Second

// HTTPTranscriber calls a speech-to-text service over HTTP: raw audio
// in, `{"text": "..."}` out.
type HTTPTranscriber struct {
	client  *http.Client
	baseURL string
}

// NewHTTPTranscriber creates a transcriber against the given service URL.
func NewHTTPTranscriber(baseURL string) *HTTPTranscriber {
	return &HTTPTranscriber{
		client:  &http.Client{Timeout: engineTimeout},
		baseURL: baseURL,
	}
}

// Transcribe sends the audio to the STT service and returns the
// recognized text. Empty recognition is reported as an error so the
// caller can substitute its fallback phrase.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("speech: create transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: transcribe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("speech: transcribe error %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("speech: decode transcription: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("speech: empty transcription")
	}
	return out.Text, nil
}

// HTTPSynthesizer calls a text-to-speech service over HTTP:
// `{"text": "..."}` in, audio bytes out, spooled to a local file.
type HTTPSynthesizer struct {
	client  *http.Client
	baseURL string
	dir     string
}

// NewHTTPSynthesizer creates a synthesizer against the given service
// URL; audio files are written under dir.
func NewHTTPSynthesizer(baseURL, dir string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		client:  &http.Client{Timeout: engineTimeout},
		baseURL: baseURL,
		dir:     dir,
	}
}

// Synthesize renders text to speech and returns the audio file path.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("speech: marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("speech: create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("speech: synthesis error %d: %s", resp.StatusCode, string(body))
	}

	path := fmt.Sprintf("%s/%s.mp3", s.dir, uuid.New().String())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("speech: create audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("speech: write audio file: %w", err)
	}
	return path, nil
}
