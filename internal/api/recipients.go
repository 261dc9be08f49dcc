package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/herald-sh/herald/internal/storage"
)

// handleUpsertRecipient creates or replaces a recipient directory row.
func (s *Server) handleUpsertRecipient(w http.ResponseWriter, r *http.Request) {
	var rec storage.Recipient
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if rec.UserID == "" && rec.ContactID == "" {
		writeError(w, http.StatusBadRequest, "recipient requires a user_id or contact_id")
		return
	}
	if rec.Email == "" && rec.Phone == "" {
		writeError(w, http.StatusBadRequest, "recipient requires an email or phone")
		return
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
		rec.CreatedAt = time.Now().UTC()
	}

	if err := s.recipients.UpsertRecipient(r.Context(), &rec); err != nil {
		s.logger.Error("recipient upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save recipient")
		return
	}
	writeJSON(w, http.StatusOK, &rec)
}
