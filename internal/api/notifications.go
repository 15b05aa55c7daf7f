package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/courier/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	// maxNotificationBody bounds the JSON body of an enqueue request.
	maxNotificationBody = 1 << 20
)

// handleEnqueueNotification accepts a notification for background delivery
// and responds 202 with the task id.
func (s *Server) handleEnqueueNotification(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBody)

	var req service.NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	id, err := s.notificationSvc.Enqueue(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err, "failed to enqueue notification")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

// handleListDeliveries returns recent channel attempts.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.notificationSvc.ListDeliveries(r.Context(), limitParam(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to list deliveries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListDeadLetters(w http.ResponseWriter, r *http.Request) {
	dls, err := s.notificationSvc.ListDeadLetters(r.Context(), limitParam(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to list dead letters")
		return
	}
	writeJSON(w, http.StatusOK, dls)
}

func (s *Server) handleReplayDeadLetter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	taskID, err := s.notificationSvc.ReplayDeadLetter(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, "failed to replay dead letter")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleGetPreferenceSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	sum, err := s.notificationSvc.GetPreferenceSummary(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err, "failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func limitParam(r *http.Request) int {
	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxListLimit)
		}
	}
	return limit
}
