package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/clauseworks/decision-engine/internal/core/ports"
	"github.com/clauseworks/decision-engine/internal/observability/metrics"
)

const serviceName = "decision-engine"

type Router struct {
	batch   ports.BatchRunner
	metrics *metrics.HTTPServerMetrics

	authToken      string
	rateLimitRPS   int
	rateLimitBurst int
	maxInFlight    int
}

func NewRouter(batch ports.BatchRunner, m *metrics.HTTPServerMetrics, authToken string, rateLimitRPS, rateLimitBurst, maxInFlight int) *Router {
	return &Router{
		batch:          batch,
		metrics:        m,
		authToken:      authToken,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
		maxInFlight:    maxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.Handle("/api/v1/run", rt.authMiddleware(http.HandlerFunc(rt.run)))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = rt.metrics.Middleware(serviceName, handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Documents []string `json:"documents"`
		Questions []string `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documents is required"})
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "questions is required"})
		return
	}

	answers, err := rt.batch.Run(r.Context(), req.Documents, req.Questions)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"answers": answers})
}

func (rt *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.authToken) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAuthorizedBearerHeader(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	return token == expectedToken
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
