package metricsexporter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	transformsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logredact_transforms_total",
			Help: "Total number of context trees passed through the redaction engine.",
		},
		[]string{"result"},
	)

	limitEventsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logredact_limit_events_total",
			Help: "Total number of traversal limit events by kind.",
		},
		[]string{"kind"},
	)

	nodesVisitedHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logredact_nodes_visited",
			Help:    "Number of nodes visited per transform.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	transformDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logredact_transform_duration_seconds",
			Help:    "Time taken to redact a single context tree.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
		},
	)

	rulesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logredact_rules",
			Help: "Number of top-level rule keys in the most recently built processor.",
		},
	)

	documentsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logredact_documents_total",
			Help: "Total number of input documents handled by the CLI.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(transformsCounter)
	prometheus.MustRegister(limitEventsCounter)
	prometheus.MustRegister(nodesVisitedHistogram)
	prometheus.MustRegister(transformDurationHistogram)
	prometheus.MustRegister(rulesGauge)
	prometheus.MustRegister(documentsCounter)
}

func SetRuleCount(n int) {
	rulesGauge.Set(float64(n))
}

func RecordLimitEvent(kind string) {
	limitEventsCounter.WithLabelValues(kind).Inc()
}

// RecordTransform records one finished transform. A failed transform only
// increments the error counter.
func RecordTransform(duration time.Duration, nodesVisited int, err error) {
	if err != nil {
		transformsCounter.WithLabelValues(ResultError).Inc()
		return
	}
	transformsCounter.WithLabelValues(ResultOK).Inc()
	transformDurationHistogram.Observe(duration.Seconds())
	nodesVisitedHistogram.Observe(float64(nodesVisited))
}

func RecordDocument(result string) {
	documentsCounter.WithLabelValues(result).Inc()
}

var (
	limiter        = rate.NewLimiter(rate.Every(time.Second/time.Duration(config.RateLimitPerSec)), config.RateLimitBurst)
	maxRequestSize = int64(config.MaxRequestSize)
)

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxRequestSize {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type Server struct {
	server *http.Server
}

func resolveAddress() string {
	addr := config.GetMetricsAddress()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && !ip.IsLoopback() && !config.AllowNonLoopbackMetrics() {
		fallback := fmt.Sprintf("%s:%d", config.DefaultMetricsHost, config.DefaultMetricsPort)
		logger.Warn("Rejecting non-loopback metrics address, falling back to default",
			zap.String("requested_addr", addr),
			zap.String("fallback", fallback))
		return fallback
	}
	return addr
}

func StartServer() *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", securityHeadersMiddleware(rateLimitMiddleware(promhttp.Handler())))

	server := &http.Server{
		Addr:         resolveAddress(),
		Handler:      mux,
		ReadTimeout:  config.DefaultMetricsReadTimeout,
		WriteTimeout: config.DefaultMetricsWriteTimeout,
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in metrics server", zap.Any("panic", r))
			}
		}()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	logger.Info("Metrics server started", zap.String("addr", server.Addr))
	return &Server{server: server}
}

func (s *Server) Shutdown() {
	if s == nil || s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultMetricsShutdownTimeout)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}
