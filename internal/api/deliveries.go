package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/herald-sh/herald/internal/domain"
)

// handleListDeliveries returns the most recent delivery requests.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	requests, err := s.requests.ListRecentRequests(r.Context(), limit)
	if err != nil {
		s.logger.Error("delivery list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	if requests == nil {
		requests = []domain.DeliveryRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// deliveryDetail is one request with its attempt history.
type deliveryDetail struct {
	Request  *domain.DeliveryRequest  `json:"request"`
	Attempts []domain.DeliveryAttempt `json:"attempts"`
}

// handleGetDelivery returns a single delivery request with all its attempts.
func (s *Server) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := s.requests.GetRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "delivery not found")
			return
		}
		s.logger.Error("delivery lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load delivery")
		return
	}

	attempts, err := s.attempts.ListAttemptsByRequest(r.Context(), id)
	if err != nil {
		s.logger.Error("attempt list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load attempts")
		return
	}
	if attempts == nil {
		attempts = []domain.DeliveryAttempt{}
	}

	writeJSON(w, http.StatusOK, deliveryDetail{Request: req, Attempts: attempts})
}
