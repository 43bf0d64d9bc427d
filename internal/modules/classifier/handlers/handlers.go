// Package handlers provides HTTP handlers for persona classification.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/classifier"
)

// Handler handles classification HTTP requests
type Handler struct {
	service *classifier.Service
	log     zerolog.Logger
}

// NewHandler creates a new classification handler
func NewHandler(service *classifier.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "classifier").Logger(),
	}
}

// RegisterRoutes registers classification routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/classify", func(r chi.Router) {
		r.Post("/", h.HandleClassify)
		r.Post("/blended", h.HandleClassifyBlended)
	})
}

// HandleClassify classifies an investor profile into a single persona
// with a probability distribution over the catalog.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var profile classifier.InvestorProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Classify(&profile)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleClassifyBlended classifies a profile and returns the blended
// target allocation alongside the distribution.
func (h *Handler) HandleClassifyBlended(w http.ResponseWriter, r *http.Request) {
	var profile classifier.InvestorProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.ClassifyBlended(&profile)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func statusForError(err error) int {
	switch {
	case domain.IsClassificationError(err), domain.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
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
