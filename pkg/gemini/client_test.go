package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKeys struct {
	key         string
	err         error
	rateLimited []string
}

func (s *stubKeys) Next() (string, error) { return s.key, s.err }

func (s *stubKeys) MarkRateLimited(key string, _ time.Time) {
	s.rateLimited = append(s.rateLimited, key)
}

func newTestClient(t *testing.T, baseURL string, keys KeySource) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:     baseURL,
		Model:       "gemini-2.0-flash",
		Keys:        keys,
		Timeout:     2 * time.Second,
		IdleTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func drain(ch <-chan Chunk) (string, error) {
	var text string
	for c := range ch {
		if c.Err != nil {
			return text, c.Err
		}
		text += c.Text
	}
	return text, nil
}

func TestNewClientRequiresKeySource(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSendUnarySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k1", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hello there"}]}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubKeys{key: "k1"})
	text, err := drain(c.Send(context.Background(), "hi", GenerationConfig{}))
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestSendEmptyPrompt(t *testing.T) {
	c := newTestClient(t, "http://unused", &stubKeys{key: "k1"})
	_, err := drain(c.Send(context.Background(), "   ", GenerationConfig{}))
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestSendNoUsableKey(t *testing.T) {
	keys := &stubKeys{err: errors.New("all keys rate limited")}
	c := newTestClient(t, "http://unused", keys)
	_, err := drain(c.Send(context.Background(), "hi", GenerationConfig{}))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSendBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	keys := &stubKeys{key: "k1"}
	c := newTestClient(t, srv.URL, keys)
	_, err := drain(c.Send(context.Background(), "hi", GenerationConfig{}))

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusTooManyRequests, be.StatusCode)
	assert.Contains(t, be.Body, "quota exceeded")
	assert.Equal(t, []string{"k1"}, keys.rateLimited, "429 must feed back to the key source")
}

func TestSendSchemaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubKeys{key: "k1"})
	_, err := drain(c.Send(context.Background(), "hi", GenerationConfig{}))

	var se *SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestSendTimeoutIsNetworkError(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		Keys:        &stubKeys{key: "k1"},
		Timeout:     100 * time.Millisecond,
		IdleTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = drain(c.Send(context.Background(), "hi", GenerationConfig{}))
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Less(t, time.Since(start), 2*time.Second, "must not hang past the bound")
}

func TestSendUnaryTricklingBodyTimeoutIsNetworkError(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Headers and a partial body arrive, then the backend stalls.
		fmt.Fprint(w, `{"candidates":`)
		w.(http.Flusher).Flush()
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c, err := NewClient(Config{
		BaseURL: srv.URL,
		Keys:    &stubKeys{key: "k1"},
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = drain(c.Send(context.Background(), "hi", GenerationConfig{}))
	var ne *NetworkError
	require.ErrorAs(t, err, &ne, "a deadline mid-body is a timeout, not a schema failure")
	assert.True(t, Retryable(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSendStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:streamGenerateContent", r.URL.Path)
		flusher := w.(http.Flusher)
		lines := []string{
			`data: {"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
			``,
			`{bad json`,
			`data: {"candidates":[{"content":{"parts":[{"text":"lo "}]}}]}`,
			`data: {"candidates":[{"content":{"parts":[{"text":"world"}]}}]}`,
		}
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubKeys{key: "k1"})
	text, err := drain(c.Send(context.Background(), "hi", GenerationConfig{Streaming: true}))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestSendStreamingArrayFraming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `[{"candidates":[{"content":{"parts":[{"text":"a"}]}}]}`)
		fmt.Fprintln(w, `,{"candidates":[{"content":{"parts":[{"text":"b"}]}}]}`)
		fmt.Fprintln(w, `]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &stubKeys{key: "k1"})
	text, err := drain(c.Send(context.Background(), "hi", GenerationConfig{Streaming: true}))
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}

func TestSendStreamingUnresponsiveServerIsNetworkError(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never write headers.
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		Keys:        &stubKeys{key: "k1"},
		IdleTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = drain(c.Send(context.Background(), "hi", GenerationConfig{Streaming: true}))
	var ne *NetworkError
	require.ErrorAs(t, err, &ne, "a stream that never responds must terminate within the idle bound")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRetryableClassification(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(ErrNoAPIKey))
	assert.False(t, Retryable(&SchemaError{Detail: "x"}))
	assert.False(t, Retryable(&BackendError{StatusCode: 400}))
	assert.True(t, Retryable(&BackendError{StatusCode: 429}))
	assert.True(t, Retryable(&BackendError{StatusCode: 503}))
	assert.True(t, Retryable(&NetworkError{Op: "generate", Err: errors.New("refused")}))
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.True(t, Retryable(&net.DNSError{IsTimeout: true}))
}
