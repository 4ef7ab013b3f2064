package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/batikgram/internal/config"
	"github.com/kirillkom/batikgram/internal/core/domain"
	"github.com/kirillkom/batikgram/internal/core/ports"
	"github.com/kirillkom/batikgram/internal/core/usecase"
)

// maxRequestBodyBytes leaves room for a base64 encoded MaxImageBytes photo.
const maxRequestBodyBytes = 16 << 20

// Services are the use cases the router exposes.
type Services struct {
	Sessions *usecase.SessionManager
	Capture  *usecase.CaptureService
	Catalog  *usecase.CatalogService
	Chat     *usecase.ChatService
	Results  *usecase.ResultService

	// Readiness probes keyed by dependency name.
	Readiness map[string]ports.HealthChecker
	Metrics   MetricsCollector
}

// MetricsCollector is the Prometheus registry behind /metrics.
type MetricsCollector interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
	SetActiveSessions(n int)
}

type Router struct {
	cfg config.Config
	svc Services
}

func NewRouter(cfg config.Config, svc Services) *Router {
	return &Router{cfg: cfg, svc: svc}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/sessions", rt.createSession)
	api.HandleFunc("GET /v1/sessions/{session_id}", rt.getSession)
	api.HandleFunc("DELETE /v1/sessions/{session_id}", rt.closeSession)
	api.HandleFunc("POST /v1/sessions/{session_id}/camera", rt.startCamera)
	api.HandleFunc("DELETE /v1/sessions/{session_id}/camera", rt.stopCamera)
	api.HandleFunc("PUT /v1/sessions/{session_id}/capture", rt.putCapture)
	api.HandleFunc("DELETE /v1/sessions/{session_id}/capture", rt.deleteCapture)
	api.HandleFunc("PUT /v1/sessions/{session_id}/pattern", rt.selectPattern)
	api.HandleFunc("POST /v1/sessions/{session_id}/fitting", rt.applyFitting)
	api.HandleFunc("GET /v1/sessions/{session_id}/fitting", rt.getFitting)
	api.HandleFunc("POST /v1/sessions/{session_id}/fitting/retry", rt.retryFitting)
	api.HandleFunc("GET /v1/sessions/{session_id}/result", rt.downloadResult)
	api.HandleFunc("POST /v1/sessions/{session_id}/result/save", rt.saveResult)
	api.HandleFunc("POST /v1/sessions/{session_id}/chat", rt.sendChat)
	api.HandleFunc("GET /v1/sessions/{session_id}/chat", rt.getTranscript)
	api.HandleFunc("GET /v1/patterns", rt.listPatterns)
	api.HandleFunc("GET /v1/patterns/{pattern_id}", rt.getPattern)
	api.HandleFunc("POST /v1/chat", rt.chat)

	var v1 http.Handler = api
	if rt.cfg.OpenAPIValidation {
		validator, err := newOpenAPIValidator()
		if err != nil {
			slog.Error("openapi_validator_disabled", "error", err)
		} else {
			v1 = validator.Middleware(v1)
		}
	}
	v1 = backpressureMiddleware(v1, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	v1 = rateLimitMiddleware(v1, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	root.HandleFunc("GET /readyz", rt.readyz)
	root.HandleFunc("GET /openapi.yaml", serveOpenAPIDocument)
	if rt.svc.Metrics != nil {
		root.Handle("GET /metrics", rt.svc.Metrics.Handler())
	}
	root.Handle("/v1/", v1)

	var handler http.Handler = root
	if rt.svc.Metrics != nil {
		handler = rt.svc.Metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(rt.svc.Readiness))
	for name, checker := range rt.svc.Readiness {
		if checker == nil {
			continue
		}
		if err := checker.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			slog.Warn("readiness_check_failed", "dependency", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Kind:      errorKind(err),
		RequestID: requestIDFromContext(r.Context()),
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:     message,
		Kind:      "invalid_input",
		RequestID: requestIDFromContext(r.Context()),
	})
}

// decodeJSON reads an optional JSON body. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.WrapError(domain.ErrInvalidInput, "decode body", err)
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode body", errors.New("invalid json"))
	}
	return nil
}

func (rt *Router) session(w http.ResponseWriter, r *http.Request) (*usecase.Session, bool) {
	session, err := rt.svc.Sessions.Get(r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return session, true
}

func (rt *Router) reportSessions() {
	if rt.svc.Metrics != nil && rt.svc.Sessions != nil {
		rt.svc.Metrics.SetActiveSessions(rt.svc.Sessions.Len())
	}
}
