package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	FittingServiceURL string
	FittingAPIToken   string
	// FittingPatternsPath is /get_batik_patterns on older service builds.
	FittingPatternsPath string
	FittingTimeout      time.Duration
	HTTPClientTimeout   time.Duration
	UpstreamRetryMax    int
	UpstreamBreakerOn   bool
	UpstreamOpenWindow  time.Duration

	ChatBackend  string
	ChatTimeout  time.Duration
	GeminiAPIKey string
	GeminiModel  string

	ExportPath          string
	PatternMetadataPath string
	CameraSnapshotURL   string

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	EventsEnabled      bool
	NATSURL            string
	NATSSubject        string
	NATSQueueGroup     string
	FailureStreakAlert int

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration
	OpenAPIValidation   bool

	WorkerMetricsPort string
}

const (
	ChatBackendService = "service"
	ChatBackendGemini  = "gemini"
	ChatBackendNone    = "none"
)

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		FittingServiceURL:   strings.TrimRight(mustEnv("FITTING_SERVICE_URL", "http://127.0.0.1:5000"), "/"),
		FittingAPIToken:     mustEnv("FITTING_API_TOKEN", ""),
		FittingPatternsPath: mustEnv("FITTING_PATTERNS_PATH", "/patterns"),
		FittingTimeout:      mustEnvDuration("FITTING_TIMEOUT", 60*time.Second),
		HTTPClientTimeout:   mustEnvDuration("HTTP_CLIENT_TIMEOUT", 90*time.Second),
		UpstreamRetryMax:    mustEnvInt("UPSTREAM_RETRY_MAX_ATTEMPTS", 3),
		UpstreamBreakerOn:   mustEnvBool("UPSTREAM_BREAKER_ENABLED", true),
		UpstreamOpenWindow:  mustEnvDuration("UPSTREAM_BREAKER_OPEN_TIMEOUT", 30*time.Second),

		ChatBackend:  normalizeChatBackend(mustEnv("CHAT_BACKEND", ChatBackendService)),
		ChatTimeout:  mustEnvDuration("CHAT_TIMEOUT", 15*time.Second),
		GeminiAPIKey: mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:  mustEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		ExportPath:          mustEnv("EXPORT_PATH", "./data/exports"),
		PatternMetadataPath: mustEnv("PATTERN_METADATA_PATH", ""),
		CameraSnapshotURL:   mustEnv("CAMERA_SNAPSHOT_URL", ""),

		SessionTTL:           mustEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionSweepInterval: mustEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		EventsEnabled:      mustEnvBool("EVENTS_ENABLED", false),
		NATSURL:            mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject:        mustEnv("NATS_SUBJECT", "batikgram.fitting.events"),
		NATSQueueGroup:     mustEnv("NATS_QUEUE_GROUP", "fitting-auditors"),
		FailureStreakAlert: mustEnvInt("FAILURE_STREAK_ALERT", 5),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIBackpressureWait: mustEnvDuration("API_BACKPRESSURE_WAIT", 250*time.Millisecond),
		OpenAPIValidation:   mustEnvBool("OPENAPI_VALIDATION", true),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func normalizeChatBackend(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ChatBackendGemini:
		return ChatBackendGemini
	case ChatBackendNone, "local", "off":
		return ChatBackendNone
	default:
		return ChatBackendService
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
