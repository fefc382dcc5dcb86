// Package api binds the relay service to HTTP: routing, CORS, rate
// limiting, the SSE relay loop and the error envelope.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptforge/relay/internal/domain"
	"github.com/promptforge/relay/internal/metrics"
	"github.com/promptforge/relay/internal/ratelimit"
	"github.com/promptforge/relay/internal/relay"
)

// Stable caller-facing error strings. Machine-readable in the sense that
// callers match on them; do not reword casually.
const (
	msgInvalidInput   = "Invalid input. Please provide a text description."
	msgInputTooLong   = "Input text is too long. Please keep it under 1000 characters."
	msgRateLimited    = "Too many requests, please try again later."
	msgUpstreamBusy   = "Service temporarily unavailable. Please try again in a moment."
	msgGenerateFailed = "Failed to generate prompt. Please try again."
	msgBodyTooLarge   = "Request body too large."
	msgNotFound       = "Endpoint not found"
)

type HandlerConfig struct {
	Service       *relay.Service
	Limiter       ratelimit.Limiter
	RatePerMinute int
	AllowedOrigin string
	MaxBodyBytes  int64
	Development   bool
}

type Handler struct {
	service       *relay.Service
	limiter       ratelimit.Limiter
	ratePerMinute int
	allowedOrigin string
	maxBodyBytes  int64
	development   bool
	mux           *http.ServeMux
}

func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		service:       cfg.Service,
		limiter:       cfg.Limiter,
		ratePerMinute: cfg.RatePerMinute,
		allowedOrigin: cfg.AllowedOrigin,
		maxBodyBytes:  cfg.MaxBodyBytes,
		development:   cfg.Development,
		mux:           http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /api/generate", h.handleGenerate)
	h.mux.HandleFunc("POST /api/generate/stream", h.handleGenerateStream)
	h.mux.HandleFunc("GET /api/health", h.handleHealth)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.HandleFunc("/", h.handleRoot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.cors(h.mux).ServeHTTP(w, r)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	requestID := requestIDFrom(r)
	w.Header().Set("X-Request-ID", requestID)

	if !h.allowRate(w, r, requestID) {
		metrics.RecordRequest("generate", "429")
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		metrics.RecordRequest("generate", "400")
		return
	}

	resp, err := h.service.Generate(ctx, req)
	if err != nil {
		h.writeGenerateError(w, err, requestID)
		metrics.RecordRequest("generate", strconv.Itoa(statusFor(err)))
		return
	}

	latency := time.Since(start)
	metrics.RecordRequest("generate", "200")
	metrics.ObserveDuration("generate", h.service.ProviderID(), latency.Seconds())

	slog.Info("generate completed",
		"request_id", requestID,
		"cached", resp.Cached,
		"latency_ms", latency.Milliseconds(),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	requestID := requestIDFrom(r)
	w.Header().Set("X-Request-ID", requestID)

	if !h.allowRate(w, r, requestID) {
		metrics.RecordRequest("generate_stream", "429")
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		metrics.RecordRequest("generate_stream", "400")
		return
	}

	// Validation failures surface as a proper status; anything after
	// this point arrives inside the stream.
	events, err := h.service.GenerateStream(ctx, req)
	if err != nil {
		h.writeGenerateError(w, err, requestID)
		metrics.RecordRequest("generate_stream", strconv.Itoa(statusFor(err)))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errorResponse{Error: msgGenerateFailed})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.RecordRequest("generate_stream", "200")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				metrics.ObserveDuration("generate_stream", h.service.ProviderID(), time.Since(start).Seconds())
				slog.Info("stream completed",
					"request_id", requestID,
					"latency_ms", time.Since(start).Milliseconds(),
				)
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				slog.Error("marshal stream event", "error", err, "request_id", requestID)
				return
			}
			w.Write([]byte("data: " + string(data) + "\n\n"))
			flusher.Flush()

		case <-ctx.Done():
			slog.Info("stream caller disconnected", "request_id", requestID)
			return
		}
	}
}

// allowRate applies the per-client fixed window and writes the 429
// rejection when exceeded.
func (h *Handler) allowRate(w http.ResponseWriter, r *http.Request, requestID string) bool {
	allowed, remaining, resetAt, err := h.limiter.Allow(r.Context(), clientIP(r), h.ratePerMinute)
	if err != nil {
		slog.Error("rate limiter error", "error", err, "request_id", requestID)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: msgGenerateFailed})
		return false
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.ratePerMinute))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

	if !allowed {
		metrics.RecordRateLimitHit()
		retryAfter := int(time.Until(resetAt).Seconds()) + 1
		if retryAfter < 1 {
			retryAfter = 60
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		slog.Warn("rate limit exceeded", "client", clientIP(r), "request_id", requestID)
		writeError(w, http.StatusTooManyRequests, errorResponse{
			Error:      msgRateLimited,
			RetryAfter: retryAfter,
		})
		return false
	}

	return true
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.GenerateRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req domain.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, errorResponse{Error: msgBodyTooLarge})
			return domain.GenerateRequest{}, false
		}
		writeError(w, http.StatusBadRequest, errorResponse{Error: msgInvalidInput})
		return domain.GenerateRequest{}, false
	}

	return req, true
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, errorResponse{Error: msgInvalidInput})
	case errors.Is(err, domain.ErrInputTooLong):
		writeError(w, http.StatusBadRequest, errorResponse{Error: msgInputTooLong})
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		slog.Warn("upstream rate limited", "request_id", requestID, "error", err)
		writeError(w, http.StatusTooManyRequests, errorResponse{
			Error:      msgUpstreamBusy,
			RetryAfter: 30,
		})
	default:
		slog.Error("generation failed", "request_id", requestID, "error", err)
		resp := errorResponse{Error: msgGenerateFailed}
		if h.development {
			resp.Details = err.Error()
		}
		writeError(w, http.StatusInternalServerError, resp)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInputTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	Details    string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// clientIP is the rate-limiting identity: the first X-Forwarded-For hop
// when present, the peer address otherwise.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
