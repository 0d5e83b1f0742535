// Package metrics provides Prometheus metrics for the smart conversation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	smartChatTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitai_smart_chat_requests_total",
			Help: "Total smart chat requests by terminal state",
		},
		[]string{"selector", "state"},
	)

	smartChatDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gitai_smart_chat_duration_seconds",
			Help:    "End-to-end smart chat duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"selector"},
	)

	shortlistSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gitai_shortlist_size",
			Help:    "Number of files selected for reading per request",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
		},
	)

	fileReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitai_file_reads_total",
			Help: "Total shortlist file reads by outcome",
		},
		[]string{"outcome"},
	)

	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gitai_active_conversations",
			Help: "Number of conversation contexts currently held in memory",
		},
	)

	// AI provider metrics
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitai_ai_requests_total",
			Help: "Total AI chat requests",
		},
		[]string{"provider", "status"},
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gitai_ai_request_duration_seconds",
			Help:    "AI chat request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	aiTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitai_ai_tokens_total",
			Help: "Total tokens reported by AI providers",
		},
		[]string{"provider", "kind"},
	)

	// Cache metrics
	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitai_cache_requests_total",
			Help: "Total read cache lookups",
		},
		[]string{"result"},
	)

	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitai_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gitai_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSmartChat records one finished smart chat request.
func RecordSmartChat(selector, state string, duration time.Duration) {
	smartChatTotal.WithLabelValues(selector, state).Inc()
	smartChatDuration.WithLabelValues(selector).Observe(duration.Seconds())
}

// ObserveShortlist records the size of a ranked shortlist.
func ObserveShortlist(size int) {
	shortlistSize.Observe(float64(size))
}

// RecordFileRead records a shortlist read outcome ("read", "corrected", "missing").
func RecordFileRead(outcome string) {
	fileReadsTotal.WithLabelValues(outcome).Inc()
}

// SetActiveConversations sets the number of live conversation contexts.
func SetActiveConversations(count int) {
	activeConversations.Set(float64(count))
}

// RecordAIRequest records an AI chat round-trip.
func RecordAIRequest(provider string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	aiRequestsTotal.WithLabelValues(provider, status).Inc()
	aiRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordTokens records token usage reported by a provider.
func RecordTokens(provider string, promptTokens, completionTokens int) {
	aiTokensTotal.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	aiTokensTotal.WithLabelValues(provider, "completion").Add(float64(completionTokens))
}

// RecordCacheLookup records a read cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	cacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request metrics labelled by the matched route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
