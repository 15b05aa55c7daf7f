// Package api implements the REST handlers mounted under /api.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/courier/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(notificationSvc service.NotificationService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{notificationSvc: notificationSvc, logger: logger}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/notifications", s.handleEnqueueNotification)

	r.Get("/deliveries", s.handleListDeliveries)

	r.Get("/dead-letters", s.handleListDeadLetters)
	r.Post("/dead-letters/{id}/replay", s.handleReplayDeadLetter)

	r.Get("/users/{id}/preferences", s.handleGetPreferenceSummary)

	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors to status codes. Unknown errors are
// logged and reported as fallback without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var (
		nfe *service.NotFoundError
		ve  *service.ValidationError
		ue  *service.UnavailableError
	)
	switch {
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.As(err, &ve):
		body := map[string]any{"error": ve.Error()}
		if len(ve.Fields) > 0 {
			body["fields"] = ve.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &ue):
		writeError(w, http.StatusServiceUnavailable, ue.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
