package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// maxRequestBytes bounds the size of an assessment request body.
const maxRequestBytes = 1 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// Assessor runs one assessment request.
type Assessor interface {
	Assess(ctx context.Context, req domain.AssessmentRequest, source string) (domain.AssessmentResult, error)
}

// Server exposes the assessment API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	assessor   Assessor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/assessments routes.
func NewServer(addr string, ready ReadinessChecker, assessor Assessor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		assessor: assessor,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/assessments", s.handleAssess)
	mux.HandleFunc("GET /v1/scenarios", handleScenarios)

	var h http.Handler = mux
	h = requestID(h)
	h = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(panicLogger{logger}), handlers.PrintRecoveryStack(false))(h)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req domain.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
		return
	}

	result, err := s.assessor.Assess(r.Context(), req, "http")
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("assessment failed",
				"error", err,
				"request_id", w.Header().Get(RequestIDHeader),
			)
		}
		writeError(w, status, err.Error())
		return
	}
	if err := writeJSON(w, http.StatusOK, result); err != nil {
		s.logger.Error("encode assessment failed",
			"error", err,
			"request_id", w.Header().Get(RequestIDHeader),
		)
	}
}

type scenarioInfo struct {
	Name          domain.Scenario `json:"name"`
	CaptureFactor float64         `json:"capture_factor"`
}

func handleScenarios(w http.ResponseWriter, _ *http.Request) {
	out := make([]scenarioInfo, 0, len(domain.Scenarios()))
	for _, sc := range domain.Scenarios() {
		out = append(out, scenarioInfo{Name: sc, CaptureFactor: sc.CaptureFactor()})
	}
	writeJSON(w, http.StatusOK, out) //nolint:errcheck // static catalogue
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRainfallUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestID echoes the caller's X-Request-ID or assigns a fresh one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// panicLogger adapts slog to the handlers.RecoveryHandlerLogger interface.
type panicLogger struct {
	logger *slog.Logger
}

func (p panicLogger) Println(v ...any) {
	p.logger.Error("http handler panic", "panic", v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg}) //nolint:errcheck // a string map always encodes
}

// writeJSON encodes v before committing the status so that a value json
// cannot represent becomes a 500 rather than an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // best-effort response
	return err
}
