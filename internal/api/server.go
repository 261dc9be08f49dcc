// Package api implements the admin REST surface: channel preferences,
// templates, the recipient directory, and read-only delivery inspection.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/herald-sh/herald/internal/storage"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	preferences storage.PreferenceStore
	templates   storage.TemplateStore
	requests    storage.RequestStore
	attempts    storage.AttemptStore
	recipients  storage.RecipientStore
	logger      *slog.Logger
}

// New creates a new API Server backed by the provided stores.
func New(
	preferences storage.PreferenceStore,
	templates storage.TemplateStore,
	requests storage.RequestStore,
	attempts storage.AttemptStore,
	recipients storage.RecipientStore,
	logger *slog.Logger,
) *Server {
	return &Server{
		preferences: preferences,
		templates:   templates,
		requests:    requests,
		attempts:    attempts,
		recipients:  recipients,
		logger:      logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Channel preferences
	r.Get("/preferences", s.handleGetPreference)
	r.Put("/preferences", s.handleUpsertPreference)
	r.Delete("/preferences/{id}", s.handleDeletePreference)

	// Templates CRUD
	r.Get("/templates", s.handleListTemplates)
	r.Put("/templates", s.handleUpsertTemplate)
	r.Delete("/templates/{id}", s.handleDeleteTemplate)

	// Recipient directory
	r.Put("/recipients", s.handleUpsertRecipient)

	// Delivery inspection
	r.Get("/deliveries", s.handleListDeliveries)
	r.Get("/deliveries/{id}", s.handleGetDelivery)
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
