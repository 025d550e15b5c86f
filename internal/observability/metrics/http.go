package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics owns the API-process registry. Pipeline observations are
// recorded by the HTTP adapter after each answer, never by the usecases.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatAnswersTotal   *prometheus.CounterVec
	chatFallbacksTotal *prometheus.CounterVec
	chatConfidence     *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	retrievalChunks    *prometheus.HistogramVec
	retrievalHitTotal  *prometheus.CounterVec
	retrievalMissTotal *prometheus.CounterVec
	correctionsTotal   *prometheus.CounterVec
	streamEventsTotal  *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "assistant",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatAnswersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "answers_total",
			Help:      "Total completed answers by language and intent.",
		},
		[]string{"service", "endpoint", "language", "intent"},
	)
	chatFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "fallbacks_total",
			Help:      "Total fallback answers by error type.",
		},
		[]string{"service", "endpoint", "error_type"},
	)
	chatConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "confidence",
			Help:      "Distribution of answer confidence scores.",
			Buckets:   []float64{0.15, 0.25, 0.35, 0.45, 0.55, 0.65, 0.75, 0.85, 0.95},
		},
		[]string{"service", "endpoint"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "End-to-end answer pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	retrievalChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "retrieval",
			Name:      "chunks",
			Help:      "Distribution of document chunks used per answer.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6},
		},
		[]string{"service", "endpoint"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total answers grounded in at least one retrieved source.",
		},
		[]string{"service", "endpoint"},
	)
	retrievalMissTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "retrieval",
			Name:      "miss_total",
			Help:      "Total answers produced without any retrieved source.",
		},
		[]string{"service", "endpoint"},
	)
	correctionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "language_corrections_total",
			Help:      "Total answers rewritten by the output-language guard.",
		},
		[]string{"service", "endpoint", "language"},
	)
	streamEventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "stream",
			Name:      "events_total",
			Help:      "Total server-sent events written by event type.",
		},
		[]string{"service", "event"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the rate limiter.",
		},
		[]string{"service", "path"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatAnswersTotal,
		chatFallbacksTotal,
		chatConfidence,
		chatDuration,
		retrievalChunks,
		retrievalHitTotal,
		retrievalMissTotal,
		correctionsTotal,
		streamEventsTotal,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatAnswersTotal:   chatAnswersTotal,
		chatFallbacksTotal: chatFallbacksTotal,
		chatConfidence:     chatConfidence,
		chatDuration:       chatDuration,
		retrievalChunks:    retrievalChunks,
		retrievalHitTotal:  retrievalHitTotal,
		retrievalMissTotal: retrievalMissTotal,
		correctionsTotal:   correctionsTotal,
		streamEventsTotal:  streamEventsTotal,
		rateLimitedTotal:   rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/chat/history/"):
		return "/v1/chat/history/{session_id}"
	default:
		return path
	}
}

// RecordAnswer captures one completed (non-fallback) answer.
func (m *HTTPServerMetrics) RecordAnswer(service, endpoint, language, intent string, confidence float64, chunksUsed int, duration time.Duration) {
	if language == "" {
		language = "unknown"
	}
	if intent == "" {
		intent = "unknown"
	}
	m.chatAnswersTotal.WithLabelValues(service, endpoint, language, intent).Inc()
	m.chatConfidence.WithLabelValues(service, endpoint).Observe(confidence)
	m.chatDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	m.retrievalChunks.WithLabelValues(service, endpoint).Observe(float64(chunksUsed))

	if chunksUsed > 0 {
		m.retrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.retrievalMissTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordFallback(service, endpoint, errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.chatFallbacksTotal.WithLabelValues(service, endpoint, errorType).Inc()
}

func (m *HTTPServerMetrics) RecordLanguageCorrection(service, endpoint, language string) {
	if language == "" {
		language = "unknown"
	}
	m.correctionsTotal.WithLabelValues(service, endpoint, language).Inc()
}

func (m *HTTPServerMetrics) RecordStreamEvent(service, event string) {
	if event == "" {
		event = "unknown"
	}
	m.streamEventsTotal.WithLabelValues(service, event).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited(service, path string) {
	m.rateLimitedTotal.WithLabelValues(service, normalizePath(path)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
