package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout     = 30 * time.Second
	defaultIdleTimeout = 20 * time.Second

	rateLimitCooldown = 60 * time.Second
	maxErrorBodyBytes = 8 << 10
)

// Config configures a Client. Zero values fall back to defaults; Keys
// is required.
type Config struct {
	BaseURL     string
	Model       string
	Keys        KeySource
	Timeout     time.Duration // total round-trip bound for unary calls
	IdleTimeout time.Duration // per-chunk bound for streaming calls
	HTTPClient  *http.Client
}

// Client talks to the Gemini generateContent / streamGenerateContent
// endpoints. It performs exactly one attempt per Send and converts
// every transport failure into a typed terminal chunk; it never
// panics or leaks a raw error past the channel.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	keys        KeySource
	timeout     time.Duration
	idleTimeout time.Duration
}

// NewClient creates a Client. It fails fast when no credential source
// is configured.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Keys == nil {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		keys:        cfg.Keys,
		timeout:     cfg.Timeout,
		idleTimeout: cfg.IdleTimeout,
	}, nil
}

func (c *Client) Model() string { return c.model }

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type generateRequest struct {
	Contents         []wireContent  `json:"contents"`
	GenerationConfig *wireGenConfig `json:"generationConfig,omitempty"`
}

type wireContent struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text string `json:"text"`
}

type wireGenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// text extracts candidates[0].content.parts[0].text.
func (e *envelope) text() (string, bool) {
	if len(e.Candidates) == 0 || len(e.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	return e.Candidates[0].Content.Parts[0].Text, true
}

// ---------------------------------------------------------------------------
// Send
// ---------------------------------------------------------------------------

// Send implements Completer. The returned channel is owned by the
// call: it is closed when the response is exhausted, the backend
// closes the connection, or a terminal error chunk is delivered.
func (c *Client) Send(ctx context.Context, prompt string, cfg GenerationConfig) <-chan Chunk {
	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		if cfg.Streaming {
			c.sendStream(ctx, prompt, cfg, out)
		} else {
			c.sendUnary(ctx, prompt, cfg, out)
		}
	}()
	return out
}

func (c *Client) sendUnary(ctx context.Context, prompt string, cfg GenerationConfig, out chan<- Chunk) {
	key, err := c.prepare(ctx, prompt, out)
	if err != nil {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(rctx, "generateContent", "", key, prompt, cfg)
	if err != nil {
		emit(ctx, out, Chunk{Err: &NetworkError{Op: "generate", Err: err}})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		emit(ctx, out, Chunk{Err: c.backendError(resp, key)})
		return
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// A deadline firing mid-body surfaces as a decode error; that
		// is a timeout, not a malformed envelope.
		if rctx.Err() != nil {
			emit(ctx, out, Chunk{Err: &NetworkError{Op: "read body", Err: err}})
			return
		}
		emit(ctx, out, Chunk{Err: &SchemaError{Detail: "decode envelope: " + err.Error()}})
		return
	}
	text, ok := env.text()
	if !ok {
		emit(ctx, out, Chunk{Err: &SchemaError{Detail: "missing candidates[0].content.parts[0].text"}})
		return
	}
	emit(ctx, out, Chunk{Text: text})
}

func (c *Client) sendStream(ctx context.Context, prompt string, cfg GenerationConfig, out chan<- Chunk) {
	key, err := c.prepare(ctx, prompt, out)
	if err != nil {
		return
	}

	// The idle timer bounds the wait for the response headers and then
	// the gap between chunks; it cancels the request context so a
	// stalled backend cannot hold the stream open forever.
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	idle := time.AfterFunc(c.idleTimeout, cancel)
	defer idle.Stop()

	resp, err := c.post(sctx, "streamGenerateContent", "alt=sse", key, prompt, cfg)
	if err != nil {
		if sctx.Err() != nil && ctx.Err() == nil {
			emit(ctx, out, Chunk{Err: &NetworkError{Op: "await response", Err: context.DeadlineExceeded}})
			return
		}
		emit(ctx, out, Chunk{Err: &NetworkError{Op: "open stream", Err: err}})
		return
	}
	defer resp.Body.Close()
	idle.Reset(c.idleTimeout)

	if resp.StatusCode != http.StatusOK {
		emit(ctx, out, Chunk{Err: c.backendError(resp, key)})
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		idle.Reset(c.idleTimeout)
		line := scanner.Bytes()
		text, ok := decodeLine(line)
		if !ok {
			if len(bytes.TrimSpace(line)) > 0 && !isFraming(line) {
				log.WithField("model", c.model).
					Debugf("gemini: skipping undecodable stream line (%d bytes)", len(line))
			}
			continue
		}
		if !emit(ctx, out, Chunk{Text: text}) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		switch {
		case ctx.Err() != nil:
			// Caller cancelled; partial accumulation is the caller's to discard.
			return
		case sctx.Err() != nil:
			emit(ctx, out, Chunk{Err: &NetworkError{Op: "stream idle timeout", Err: context.DeadlineExceeded}})
		default:
			emit(ctx, out, Chunk{Err: &NetworkError{Op: "read stream", Err: err}})
		}
	}
}

// prepare validates the prompt and acquires a credential, emitting the
// terminal error chunk itself on failure.
func (c *Client) prepare(ctx context.Context, prompt string, out chan<- Chunk) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		emit(ctx, out, Chunk{Err: ErrEmptyPrompt})
		return "", ErrEmptyPrompt
	}
	key, err := c.keys.Next()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNoAPIKey, err)
		emit(ctx, out, Chunk{Err: err})
		return "", err
	}
	return key, nil
}

func (c *Client) post(ctx context.Context, method, extraQuery, key, prompt string, cfg GenerationConfig) (*http.Response, error) {
	body := generateRequest{
		Contents: []wireContent{
			{Parts: []wirePart{{Text: prompt}}},
		},
		GenerationConfig: &wireGenConfig{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:%s?key=%s", c.baseURL, c.model, method, url.QueryEscape(key))
	if extraQuery != "" {
		u += "&" + extraQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

// backendError drains the error body and feeds rate-limit feedback
// back to the key source.
func (c *Client) backendError(resp *http.Response, key string) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if resp.StatusCode == http.StatusTooManyRequests {
		c.keys.MarkRateLimited(key, time.Now().Add(rateLimitCooldown))
	}
	return &BackendError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// emit delivers a chunk unless the caller has gone away.
func emit(ctx context.Context, out chan<- Chunk, ch Chunk) bool {
	select {
	case out <- ch:
		return true
	case <-ctx.Done():
		return false
	}
}
