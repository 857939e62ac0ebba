// Package httpapi exposes the agents over a JSON HTTP API and owns
// the per-request orchestration: timeout, cache lookup, circuit
// breaker, metrics and asynchronous interaction logging.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndthanh/engmate/pkg/agent"
	"github.com/ndthanh/engmate/pkg/cache"
	"github.com/ndthanh/engmate/pkg/metrics"
	"github.com/ndthanh/engmate/pkg/resilience"
	"github.com/ndthanh/engmate/pkg/store"
)

// maxRawDiagnostic bounds the raw backend text echoed in error
// responses.
const maxRawDiagnostic = 512

// Config wires the server's collaborators. Store and Cache may be
// nil; the corresponding features are then disabled.
type Config struct {
	Vocabulary *agent.VocabularyAgent
	Grammar    *agent.GrammarAgent
	Reading    *agent.ReadingAgent
	StudyPlan  *agent.StudyPlanAgent
	Teacher    *agent.TeacherAgent

	NewSpeakingSession func() *agent.SpeakingAgent

	Store   *store.Store
	Cache   *cache.ResponseCache
	Breaker *resilience.CircuitBreaker

	RequestTimeout time.Duration
}

// Server holds the route handlers and their collaborators.
type Server struct {
	vocabulary *agent.VocabularyAgent
	grammar    *agent.GrammarAgent
	reading    *agent.ReadingAgent
	studyPlan  *agent.StudyPlanAgent
	teacher    *agent.TeacherAgent

	sessions *sessionRegistry

	store   *store.Store
	cache   *cache.ResponseCache
	breaker *resilience.CircuitBreaker
	timeout time.Duration
}

// NewServer creates the API server.
func NewServer(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
	}
	return &Server{
		vocabulary: cfg.Vocabulary,
		grammar:    cfg.Grammar,
		reading:    cfg.Reading,
		studyPlan:  cfg.StudyPlan,
		teacher:    cfg.Teacher,
		sessions:   newSessionRegistry(cfg.NewSpeakingSession),
		store:      cfg.Store,
		cache:      cfg.Cache,
		breaker:    cfg.Breaker,
		timeout:    cfg.RequestTimeout,
	}
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	r.GET("/health", s.handleHealth)

	v1 := r.Group("/v1")
	{
		v1.POST("/vocabulary/explain", s.handleVocabularyExplain)
		v1.POST("/vocabulary/topics", s.handleVocabularyTopics)
		v1.POST("/grammar/explain", s.handleGrammarExplain)
		v1.POST("/grammar/correct", s.handleGrammarCorrect)
		v1.POST("/grammar/examples", s.handleGrammarExamples)
		v1.POST("/reading/passage", s.handleReadingPassage)
		v1.POST("/reading/questions", s.handleReadingQuestions)
		v1.POST("/reading/summary", s.handleReadingSummary)
		v1.POST("/study-plan", s.handleStudyPlan)
		v1.POST("/teacher/analyze", s.handleTeacherAnalyze)
		v1.POST("/speaking", s.handleSpeaking)
		v1.POST("/speaking/audio", s.handleSpeakingAudio)
		v1.GET("/history/:user_id", s.handleHistory)
	}
	return r
}

// execute runs one agent operation through the orchestration pipeline
// and writes the HTTP response.
func (s *Server) execute(c *gin.Context, ag agent.PromptAgent, op agent.Operation, params agent.Params, userID string, cacheable bool) {
	start := time.Now()
	metrics.ActiveRequests.Inc()
	defer metrics.ActiveRequests.Dec()

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	key := cache.Key(ag.Name(), string(op), params)
	semanticText := semanticPrompt(ag.Name(), op, params)

	if cacheable && s.cache != nil {
		if payload, ok := s.cache.Lookup(ctx, key, semanticText); ok {
			var res agent.Result
			if json.Unmarshal(payload, &res) == nil {
				metrics.RecordCacheLookup(true)
				s.finish(c, ag.Name(), op, params, userID, res, start, "hit")
				return
			}
		}
		metrics.RecordCacheLookup(false)
	}

	var res agent.Result
	err := s.breaker.Execute(func() error {
		res = ag.Run(ctx, op, params)
		if res.Err != nil {
			switch res.Err.Kind {
			case agent.KindBackend, agent.KindNetwork:
				return errors.New(res.Err.Message)
			}
		}
		return nil
	})
	metrics.CircuitBreakerState.Set(float64(s.breaker.State()))

	if errors.Is(err, resilience.ErrCircuitOpen) {
		metrics.RequestsTotal.WithLabelValues(ag.Name(), string(op), "rejected").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service_unavailable",
			"details": "generation backend temporarily unavailable",
		})
		return
	}

	if cacheable && s.cache != nil && res.OK() {
		if payload, err := json.Marshal(res); err == nil {
			go s.cache.Store(context.Background(), key, semanticText, payload)
		}
	}

	s.finish(c, ag.Name(), op, params, userID, res, start, "miss")
}

// finish records metrics, logs the interaction and writes the result.
func (s *Server) finish(c *gin.Context, agentName string, op agent.Operation, params agent.Params, userID string, res agent.Result, start time.Time, cacheStatus string) {
	latency := time.Since(start)
	metrics.RequestLatency.WithLabelValues(agentName, string(op), cacheStatus).Observe(latency.Seconds())

	status := "success"
	if res.Err != nil {
		status = string(res.Err.Kind)
		if res.Err.Kind == agent.KindMalformedOutput || res.Err.Kind == agent.KindIncompleteSchema {
			metrics.ParseFailuresTotal.WithLabelValues(agentName, string(res.Err.Kind)).Inc()
		}
	}
	metrics.RequestsTotal.WithLabelValues(agentName, string(op), status).Inc()

	s.logInteraction(agentName, op, params, userID, res, latency)
	writeResult(c, res)
}

// logInteraction records the exchange asynchronously; a nil store
// disables history.
func (s *Server) logInteraction(agentName string, op agent.Operation, params agent.Params, userID string, res agent.Result, latency time.Duration) {
	if s.store == nil || userID == "" {
		return
	}

	input, _ := json.Marshal(params)
	output := res.Content
	if res.Value != nil {
		if b, err := json.Marshal(res.Value); err == nil {
			output = string(b)
		}
	}
	meta := map[string]any{"operation": string(op)}
	if res.Err != nil {
		meta["error_kind"] = string(res.Err.Kind)
		output = res.Err.Message
	}

	s.store.LogAsync(store.Interaction{
		UserID:            userID,
		AgentName:         agentName,
		UserInputType:     "text",
		UserInputContent:  string(input),
		AIResponseType:    res.Type,
		AIResponseContent: output,
		DurationMS:        latency.Milliseconds(),
		Metadata:          meta,
	})
}

// writeResult maps a Result to an HTTP response: structured results
// come back as their object, text results in the {type, content}
// envelope, failures as diagnostic objects whose status distinguishes
// caller mistakes, backend trouble and misbehaving model output.
func writeResult(c *gin.Context, res agent.Result) {
	if res.OK() {
		if res.Value != nil {
			c.JSON(http.StatusOK, res.Value)
			return
		}
		c.JSON(http.StatusOK, gin.H{"type": "text", "content": res.Content})
		return
	}

	body := gin.H{
		"error":   string(res.Err.Kind),
		"details": res.Err.Message,
	}

	switch res.Err.Kind {
	case agent.KindInvalidInput:
		c.JSON(http.StatusBadRequest, body)
	case agent.KindConfiguration:
		c.JSON(http.StatusInternalServerError, body)
	case agent.KindCancelled:
		c.JSON(499, body)
	case agent.KindMalformedOutput, agent.KindIncompleteSchema, agent.KindSchema:
		body["raw"] = truncate(res.Raw, maxRawDiagnostic)
		c.JSON(http.StatusBadGateway, body)
	case agent.KindNetwork, agent.KindBackend:
		c.JSON(http.StatusBadGateway, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}

// semanticPrompt renders the operation for embedding-based lookup.
func semanticPrompt(agentName string, op agent.Operation, params agent.Params) string {
	p, _ := json.Marshal(params)
	return agentName + " " + string(op) + " " + string(p)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
