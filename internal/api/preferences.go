package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/herald-sh/herald/internal/domain"
)

// handleGetPreference looks up the preference for ?user_id= or ?contact_id=.
// Recipients without a stored preference get the default (both channels
// enabled, no quiet hours), so the lookup never 404s on a valid identity.
func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	contactID := r.URL.Query().Get("contact_id")
	if (userID == "") == (contactID == "") {
		writeError(w, http.StatusBadRequest, "exactly one of user_id/contact_id is required")
		return
	}

	var (
		p   *domain.ChannelPreference
		err error
	)
	if userID != "" {
		p, err = s.preferences.FindByUserID(r.Context(), userID)
	} else {
		p, err = s.preferences.FindByContactID(r.Context(), contactID)
	}
	if err != nil {
		s.logger.Error("preference lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preference")
		return
	}
	if p == nil {
		p = domain.DefaultChannelPreference()
		p.UserID = userID
		p.ContactID = contactID
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpsertPreference creates or replaces the preference for a recipient.
func (s *Server) handleUpsertPreference(w http.ResponseWriter, r *http.Request) {
	var p domain.ChannelPreference
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.preferences.UpsertPreference(r.Context(), &p); err != nil {
		s.logger.Error("preference upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preference")
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

// handleDeletePreference removes a stored preference, reverting the
// recipient to defaults.
func (s *Server) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.preferences.DeletePreference(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "preference not found")
			return
		}
		s.logger.Error("preference delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete preference")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
