// English-learning assistant backend — main entry point.
//
// Environment variables (all optional unless noted):
//   LISTEN_ADDR          — API listen address (default: :8080)
//   METRICS_ADDR         — Prometheus metrics address (default: :9090)
//   GEMINI_API_KEYS      — comma-separated Gemini API keys (required)
//   GEMINI_BASE_URL      — Gemini API base URL
//   GEMINI_MODEL         — model id (default: gemini-2.0-flash)
//   REQUEST_TIMEOUT      — unary round-trip bound (default: 30s)
//   STREAM_IDLE_TIMEOUT  — streaming per-chunk bound (default: 20s)
//   TEMPERATURE          — generation temperature (default: 0.7)
//   MAX_OUTPUT_TOKENS    — generation token cap (default: 2048)
//   MYSQL_DSN            — interaction history database (disabled when unset)
//   REDIS_ADDR           — response cache (disabled when unset)
//   QDRANT_URL           — semantic cache layer (disabled when unset)
//   STT_URL / TTS_URL    — speech engine endpoints (disabled when unset)
//   TARGET_LANGUAGE      — translation language for text analysis
//   BREAKER_THRESHOLD / BREAKER_COOLDOWN — circuit breaker tuning
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndthanh/engmate/pkg/agent"
	"github.com/ndthanh/engmate/pkg/cache"
	"github.com/ndthanh/engmate/pkg/config"
	"github.com/ndthanh/engmate/pkg/gemini"
	"github.com/ndthanh/engmate/pkg/httpapi"
	"github.com/ndthanh/engmate/pkg/resilience"
	"github.com/ndthanh/engmate/pkg/speech"
	"github.com/ndthanh/engmate/pkg/store"
)

func main() {
	cfg := config.Load()
	log.Info("starting engmate backend")

	if len(cfg.GeminiKeys) == 0 {
		log.Fatal("GEMINI_API_KEYS is required")
	}
	keys := resilience.NewKeyPool(cfg.GeminiKeys)
	log.WithField("keys", keys.Size()).Info("gemini key pool ready")

	completer, err := gemini.NewClient(gemini.Config{
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		Keys:        keys,
		Timeout:     cfg.RequestTimeout,
		IdleTimeout: cfg.StreamIdleTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("gemini client init failed")
	}

	genCfg := gemini.GenerationConfig{
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	streamCfg := genCfg
	streamCfg.Streaming = true

	// -------------------------------------------------------------------------
	// Persistence
	// -------------------------------------------------------------------------
	var st *store.Store
	if cfg.MySQLDSN != "" {
		st, err = store.Open(cfg.MySQLDSN)
		if err != nil {
			log.WithError(err).Fatal("mysql connection failed")
		}
		defer st.Close()

		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := st.Init(initCtx); err != nil {
			cancel()
			log.WithError(err).Fatal("schema bootstrap failed")
		}
		cancel()
		log.Info("interaction history enabled")
	} else {
		log.Warn("MYSQL_DSN not set, interaction history disabled")
	}

	// -------------------------------------------------------------------------
	// Response cache
	// -------------------------------------------------------------------------
	var responseCache *cache.ResponseCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisCache.Ping(pingCtx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis unreachable, response cache disabled")
		} else {
			var embedder *cache.Embedder
			var vectorStore *cache.VectorStore
			if cfg.QdrantURL != "" {
				embedder = cache.NewEmbedder(cfg.GeminiKeys[0])
				vectorStore = cache.NewVectorStore(cfg.QdrantURL, cfg.QdrantCollection)
				log.WithField("threshold", cfg.SemanticThreshold).Info("semantic cache layer enabled")
			}
			responseCache = cache.NewResponseCache(embedder, vectorStore, redisCache, float32(cfg.SemanticThreshold))
			log.WithField("ttl", cfg.CacheTTL.String()).Info("response cache enabled")
		}
	} else {
		log.Warn("REDIS_ADDR not set, response cache disabled")
	}

	// -------------------------------------------------------------------------
	// Speech engines
	// -------------------------------------------------------------------------
	var transcriber speech.Transcriber
	var synthesizer speech.Synthesizer
	if cfg.SpeechToTextURL != "" {
		transcriber = speech.NewHTTPTranscriber(cfg.SpeechToTextURL)
	}
	if cfg.TextToSpeechURL != "" {
		synthesizer = speech.NewHTTPSynthesizer(cfg.TextToSpeechURL, cfg.AudioDir)
	}

	// -------------------------------------------------------------------------
	// Agents + API server
	// -------------------------------------------------------------------------
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
	})

	server := httpapi.NewServer(httpapi.Config{
		Vocabulary: agent.NewVocabularyAgent(completer, genCfg),
		Grammar:    agent.NewGrammarAgent(completer, genCfg),
		Reading:    agent.NewReadingAgent(completer, streamCfg),
		StudyPlan:  agent.NewStudyPlanAgent(completer, streamCfg),
		Teacher:    agent.NewTeacherAgent(completer, genCfg, cfg.TargetLanguage),
		NewSpeakingSession: func() *agent.SpeakingAgent {
			return agent.NewSpeakingAgent(completer, genCfg, transcriber, synthesizer)
		},
		Store:          st,
		Cache:          responseCache,
		Breaker:        breaker,
		RequestTimeout: cfg.RequestTimeout * 2,
	})

	apiServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("api server error")
		}
	}()

	// -------------------------------------------------------------------------
	// Metrics server
	// -------------------------------------------------------------------------
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	metricsServer := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      metricsMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.MetricsAddr).Info("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("metrics server error")
		}
	}()

	// -------------------------------------------------------------------------
	// Graceful shutdown
	// -------------------------------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("api server shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("metrics server shutdown error")
	}
	log.Info("shutdown complete")
}
