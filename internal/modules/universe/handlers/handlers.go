// Package handlers provides HTTP handlers for the fund universe index.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/universe"
)

// Handler handles fund universe HTTP requests
type Handler struct {
	repo       *universe.Repository
	sync       *universe.SyncService
	staleAfter time.Duration
	log        zerolog.Logger
}

// NewHandler creates a new universe handler
func NewHandler(repo *universe.Repository, sync *universe.SyncService, staleAfter time.Duration, log zerolog.Logger) *Handler {
	return &Handler{
		repo:       repo,
		sync:       sync,
		staleAfter: staleAfter,
		log:        log.With().Str("handler", "universe").Logger(),
	}
}

// RegisterRoutes registers fund universe routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funds", func(r chi.Router) {
		r.Get("/", h.HandleListFunds)
		r.Get("/stats", h.HandleStats)
		r.Post("/refresh", h.HandleRefresh)
	})
}

// HandleListFunds returns the fund universe, optionally filtered by
// ?asset_class=equity and/or ?category=.
func (h *Handler) HandleListFunds(w http.ResponseWriter, r *http.Request) {
	var (
		funds []universe.Fund
		err   error
	)

	if filter := r.URL.Query().Get("asset_class"); filter != "" {
		ac, parseErr := domain.ParseAssetClass(filter)
		if parseErr != nil {
			h.writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		funds, err = h.repo.ByAssetClass(ac)
	} else {
		funds, err = h.repo.All()
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := funds[:0:0]
		for _, f := range funds {
			if strings.EqualFold(f.Category, category) {
				filtered = append(filtered, f)
			}
		}
		funds = filtered
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"funds": funds,
		"count": len(funds),
	})
}

// HandleStats returns universe statistics
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(h.staleAfter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleRefresh triggers a synchronous universe refresh from the feed
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	run, err := h.sync.Sync(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, run)
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
