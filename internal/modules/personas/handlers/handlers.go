// Package handlers provides HTTP handlers for the persona catalog.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/modules/personas"
)

// Handler handles persona catalog HTTP requests
type Handler struct {
	repo *personas.Repository
	log  zerolog.Logger
}

// NewHandler creates a new persona handler
func NewHandler(repo *personas.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "personas").Logger(),
	}
}

// RegisterRoutes registers persona catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/models", func(r chi.Router) {
		r.Get("/", h.HandleListModels)
		r.Get("/{slug}", h.HandleGetModel)
	})
	// catalog alias used by the admin dashboard
	r.Get("/personas", h.HandleListModels)
}

// HandleListModels returns the persona catalog.
// ?include_inactive=true returns deactivated personas too.
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	var (
		list []personas.Persona
		err  error
	)
	if r.URL.Query().Get("include_inactive") == "true" {
		list, err = h.repo.ListAll()
	} else {
		list, err = h.repo.ListActive()
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": list,
		"count":  len(list),
	})
}

// HandleGetModel returns a single persona by slug
func (h *Handler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	persona, err := h.repo.GetBySlug(slug)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if persona == nil {
		h.writeError(w, http.StatusNotFound, "persona not found: "+slug)
		return
	}

	h.writeJSON(w, http.StatusOK, persona)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
