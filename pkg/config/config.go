// Package config loads process configuration from the environment,
// optionally seeded from a .env file. The resulting Config is built
// once at startup and passed down read-only; no package reads the
// environment after that.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	ListenAddr  string
	MetricsAddr string

	GeminiBaseURL     string
	GeminiModel       string
	GeminiKeys        []string
	RequestTimeout    time.Duration
	StreamIdleTimeout time.Duration
	Temperature       float64
	MaxOutputTokens   int

	MySQLDSN string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CacheTTL          time.Duration
	QdrantURL         string
	QdrantCollection  string
	SemanticThreshold float64

	SpeechToTextURL string
	TextToSpeechURL string
	AudioDir        string

	TargetLanguage string

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Load reads the environment. A missing .env file is fine; explicit
// environment variables always win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("config: could not load .env file")
	}

	return Config{
		ListenAddr:  envOrDefault("LISTEN_ADDR", ":8080"),
		MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),

		GeminiBaseURL:     envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:       envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiKeys:        splitKeys(os.Getenv("GEMINI_API_KEYS")),
		RequestTimeout:    envDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		StreamIdleTimeout: envDurationOrDefault("STREAM_IDLE_TIMEOUT", 20*time.Second),
		Temperature:       envFloatOrDefault("TEMPERATURE", 0.7),
		MaxOutputTokens:   envIntOrDefault("MAX_OUTPUT_TOKENS", 2048),

		MySQLDSN: envOrDefault("MYSQL_DSN", ""),

		RedisAddr:         envOrDefault("REDIS_ADDR", ""),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envIntOrDefault("REDIS_DB", 0),
		CacheTTL:          envDurationOrDefault("CACHE_TTL", time.Hour),
		QdrantURL:         envOrDefault("QDRANT_URL", ""),
		QdrantCollection:  envOrDefault("QDRANT_COLLECTION", "prompt_cache"),
		SemanticThreshold: envFloatOrDefault("SEMANTIC_THRESHOLD", 0.95),

		SpeechToTextURL: envOrDefault("STT_URL", ""),
		TextToSpeechURL: envOrDefault("TTS_URL", ""),
		AudioDir:        envOrDefault("AUDIO_DIR", os.TempDir()),

		TargetLanguage: envOrDefault("TARGET_LANGUAGE", "Vietnamese"),

		BreakerThreshold: envIntOrDefault("BREAKER_THRESHOLD", 5),
		BreakerCooldown:  envDurationOrDefault("BREAKER_COOLDOWN", 30*time.Second),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.WithField("key", key).Warn("config: invalid integer, using default")
	}
	return def
}

func envFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.WithField("key", key).Warn("config: invalid float, using default")
	}
	return def
}

func envDurationOrDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.WithField("key", key).Warn("config: invalid duration, using default")
	}
	return def
}

// splitKeys splits a comma-separated key list, trimming blanks.
func splitKeys(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
