package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	documentsTotal *prometheus.CounterVec
	questionsTotal *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dde",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dde",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dde",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dde",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total batch runs recorded.",
		},
		[]string{"service"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dde",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end batch run duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"service"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dde",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Documents submitted to batch runs by result.",
		},
		[]string{"service", "result"},
	)
	questionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dde",
			Subsystem: "pipeline",
			Name:      "questions_total",
			Help:      "Questions answered by batch runs.",
		},
		[]string{"service"},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dde",
			Subsystem: "synthesis",
			Name:      "decisions_total",
			Help:      "Synthesized decisions by verdict.",
		},
		[]string{"service", "decision"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		runsTotal,
		runDuration,
		documentsTotal,
		questionsTotal,
		decisionsTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		documentsTotal:  documentsTotal,
		questionsTotal:  questionsTotal,
		decisionsTotal:  decisionsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRun(service string, duration time.Duration) {
	m.runsTotal.WithLabelValues(service).Inc()
	m.runDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordDocuments(service string, processed, skipped int) {
	if processed > 0 {
		m.documentsTotal.WithLabelValues(service, "processed").Add(float64(processed))
	}
	if skipped > 0 {
		m.documentsTotal.WithLabelValues(service, "skipped").Add(float64(skipped))
	}
}

func (m *HTTPServerMetrics) RecordQuestions(service string, count int) {
	if count > 0 {
		m.questionsTotal.WithLabelValues(service).Add(float64(count))
	}
}

func (m *HTTPServerMetrics) RecordDecision(service, decision string) {
	if decision == "" {
		decision = "unknown"
	}
	m.decisionsTotal.WithLabelValues(service, decision).Inc()
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
