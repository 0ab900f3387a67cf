// Package api exposes the daily update service over HTTP. Every response uses
// the same envelope: {success, data, message, meta}.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"lifelog_agent/internal/app"
	"lifelog_agent/internal/logger"
	"lifelog_agent/internal/pending"
	"lifelog_agent/internal/promote"
	"lifelog_agent/internal/ratelimit"
	"lifelog_agent/internal/session"
)

// ownerHeader carries the authenticated owner. Authentication itself happens
// upstream of this service.
const ownerHeader = "X-Owner-ID"

// Server routes daily-update and staging requests.
type Server struct {
	updates *app.Service
	entries *pending.Service
}

// NewServer builds the HTTP handler tree.
func NewServer(updates *app.Service, entries *pending.Service) http.Handler {
	s := &Server{updates: updates, entries: entries}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/daily-update/session", s.handleStartSession)
	mux.HandleFunc("GET /api/daily-update/session", s.handleGetActiveSession)
	mux.HandleFunc("POST /api/daily-update/session/{id}/end", s.handleEndSession)
	mux.HandleFunc("GET /api/daily-update/session/{id}/state", s.handleConversationState)
	mux.HandleFunc("POST /api/daily-update/chat", s.handleChat)

	mux.HandleFunc("POST /api/pending", s.handleCreateEntry)
	mux.HandleFunc("GET /api/pending", s.handleListEntries)
	mux.HandleFunc("GET /api/pending/summary", s.handlePendingSummary)
	mux.HandleFunc("POST /api/pending/accept-all", s.handleAcceptAll)
	mux.HandleFunc("GET /api/pending/{id}", s.handleGetEntry)
	mux.HandleFunc("PATCH /api/pending/{id}", s.handleEditEntry)
	mux.HandleFunc("DELETE /api/pending/{id}", s.handleDeleteEntry)
	mux.HandleFunc("POST /api/pending/{id}/accept", s.handleAcceptEntry)
	mux.HandleFunc("POST /api/pending/{id}/reject", s.handleRejectEntry)

	return requestLogging(mux)
}

// envelope is the uniform response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeDataMeta(w http.ResponseWriter, status int, data, meta any) {
	writeJSON(w, status, envelope{Success: true, Data: data, Meta: meta})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeError maps service errors onto HTTP statuses. Rate-limit violations get
// the metadata block and a Retry-After header.
func writeError(w http.ResponseWriter, err error) {
	var limitErr *ratelimit.LimitExceededError
	var promoteErr *promote.Error
	switch {
	case errors.As(err, &promoteErr):
		writeFailure(w, http.StatusUnprocessableEntity, promoteErr.Error())
	case errors.As(err, &limitErr):
		retryAfter := int(limitErr.RetryAfter.Seconds() + 0.5)
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, envelope{
			Success: false,
			Message: "Too many requests. Please slow down.",
			Meta: map[string]any{
				"feature":             limitErr.Feature,
				"limit":               limitErr.Limit,
				"window_seconds":      int(limitErr.Window / time.Second),
				"retry_after_seconds": retryAfter,
			},
		})
	case errors.Is(err, session.ErrNoActiveSession):
		writeFailure(w, http.StatusNotFound, "no active session")
	case errors.Is(err, session.ErrNotFound), errors.Is(err, pending.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrSessionEnded):
		writeFailure(w, http.StatusConflict, "session has ended")
	case errors.Is(err, pending.ErrNotPending):
		writeFailure(w, http.StatusConflict, "entry is no longer pending")
	case errors.Is(err, pending.ErrValidation):
		writeFailure(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		writeFailure(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(r *http.Request, v any) error {
	return sonic.ConfigDefault.NewDecoder(r.Body).Decode(v)
}

// owner extracts the acting owner, failing the request when absent.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(ownerHeader)
	if id == "" {
		writeFailure(w, http.StatusUnauthorized, "missing "+ownerHeader+" header")
		return "", false
	}
	return id, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
