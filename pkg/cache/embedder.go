package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultEmbedModel   = "text-embedding-004"
)

// Embedder generates vector embeddings for prompts via the Gemini
// embedContent endpoint, so the cache shares the completion backend's
// credential.
type Embedder struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewEmbedder creates an Embedder using the given API key.
func NewEmbedder(apiKey string) *Embedder {
	return &Embedder{
		client:  &http.Client{},
		baseURL: defaultEmbedBaseURL,
		model:   defaultEmbedModel,
		apiKey:  apiKey,
	}
}

type embedRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body := embedRequest{
		Model:   "models/" + e.model,
		Content: embedContent{Parts: []embedPart{{Text: text}}},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("embedder: API error %d: %s", resp.StatusCode, string(respBody))
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("embedder: decode: %w", err)
	}
	if len(embResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedder: empty embedding response")
	}
	return embResp.Embedding.Values, nil
}
