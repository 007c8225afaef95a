package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultReplacement         = "*"
	DefaultTemplate            = "%s"
	DefaultObjectViewMode      = "copy"
	DefaultInputFormat         = "json"
	DefaultMetricsPort         = 3000
	DefaultMetricsHost         = "127.0.0.1"
	DefaultLogLevel            = "info"
	DefaultTracingEnabled      = false
	DefaultTracingSampleRate   = 1.0
	DefaultOTLPEndpoint        = "localhost:4318"
	DefaultServiceName         = "logredact"
	DefaultVersion             = "v0.1.0"
	DefaultFailClosedValue     = "[REDACTED: redaction failed]"
	DefaultMaxDocumentSize     = 64 * MB
	DefaultMaxLineSize         = 4 * MB
)

const (
	DefaultMetricsReadTimeout     = 5 * time.Second
	DefaultMetricsWriteTimeout    = 10 * time.Second
	DefaultMetricsShutdownTimeout = 5 * time.Second
	DefaultTracingExporterTimeout = 10 * time.Second
	DefaultShutdownTimeout        = 5 * time.Second
)

const (
	MaxRequestSize         = 1024 * 1024
	DefaultRateLimitPerSec = 10
	DefaultRateLimitBurst  = 20
)

const (
	KB = 1024
	MB = 1024 * KB
)

// Redaction defaults read from the environment. Zero limits are unlimited.
var (
	Replacement          = getEnvOrDefault("LOGREDACT_REPLACEMENT", DefaultReplacement)
	Template             = getEnvOrDefault("LOGREDACT_TEMPLATE", DefaultTemplate)
	LengthLimit          = getIntEnvOrDefault("LOGREDACT_LENGTH_LIMIT", 0)
	ObjectViewMode       = getEnvOrDefault("LOGREDACT_OBJECT_VIEW_MODE", DefaultObjectViewMode)
	ProcessObjects       = getEnvOrDefault("LOGREDACT_PROCESS_OBJECTS", "true") == "true"
	UseDefaultRules      = getEnvOrDefault("LOGREDACT_DEFAULT_RULES", "true") == "true"
	MaxDepth             = getIntEnvOrDefault("LOGREDACT_MAX_DEPTH", 0)
	MaxItemsPerContainer = getIntEnvOrDefault("LOGREDACT_MAX_ITEMS", 0)
	MaxTotalNodes        = getIntEnvOrDefault("LOGREDACT_MAX_NODES", 0)
	OverflowPlaceholder  = os.Getenv("LOGREDACT_PLACEHOLDER")
	RulesFile            = getEnvOrDefault("LOGREDACT_RULES_FILE", "")
)

var (
	TracingEnabled         = getEnvOrDefault("LOGREDACT_TRACING_ENABLED", "false") == "true"
	TracingSampleRate      = getFloatEnvOrDefault("LOGREDACT_TRACING_SAMPLE_RATE", DefaultTracingSampleRate)
	OTLPEndpoint           = getEnvOrDefault("LOGREDACT_OTLP_ENDPOINT", DefaultOTLPEndpoint)
	TracingExporterTimeout = getDurationEnvOrDefault("LOGREDACT_TRACING_EXPORTER_TIMEOUT", DefaultTracingExporterTimeout)
	ShutdownTimeout        = getDurationEnvOrDefault("LOGREDACT_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout)
	RateLimitPerSec        = getIntEnvOrDefault("LOGREDACT_RATE_LIMIT_PER_SEC", DefaultRateLimitPerSec)
	RateLimitBurst         = getIntEnvOrDefault("LOGREDACT_RATE_LIMIT_BURST", DefaultRateLimitBurst)
	MaxDocumentSize        = getInt64EnvOrDefault("LOGREDACT_MAX_DOCUMENT_SIZE", DefaultMaxDocumentSize)
	MaxLineSize            = getIntEnvOrDefault("LOGREDACT_MAX_LINE_SIZE", DefaultMaxLineSize)
	Version                = getEnvOrDefault("LOGREDACT_VERSION", DefaultVersion)
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func getInt64EnvOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// GetOverflowPlaceholder returns the env placeholder, or nil when unset.
func GetOverflowPlaceholder() *string {
	if OverflowPlaceholder == "" {
		return nil
	}
	p := OverflowPlaceholder
	return &p
}

func GetMetricsAddress() string {
	addr := os.Getenv("LOGREDACT_METRICS_ADDR")
	if addr == "" {
		addr = DefaultMetricsHost + ":" + strconv.Itoa(DefaultMetricsPort)
	}
	return addr
}

func AllowNonLoopbackMetrics() bool {
	return os.Getenv("LOGREDACT_METRICS_INSECURE_ALLOW_ANY_ADDR") == "1"
}

func GetVersion() string {
	return Version
}
