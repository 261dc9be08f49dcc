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

// handleListTemplates returns all templates, active and inactive.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.ListTemplates(r.Context())
	if err != nil {
		s.logger.Error("template list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []domain.TemplateWrapper{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// handleUpsertTemplate creates or replaces a template keyed by name+channel.
func (s *Server) handleUpsertTemplate(w http.ResponseWriter, r *http.Request) {
	var t domain.TemplateWrapper
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	if err := s.templates.UpsertTemplate(r.Context(), &t); err != nil {
		s.logger.Error("template upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save template")
		return
	}
	writeJSON(w, http.StatusOK, &t)
}

// handleDeleteTemplate removes a template by id.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.templates.DeleteTemplate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		s.logger.Error("template delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
