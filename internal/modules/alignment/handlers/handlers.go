// Package handlers provides HTTP handlers for portfolio alignment analysis.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/alignment"
	"github.com/wealthnest/engine/internal/modules/universe"
)

// FundSource supplies the universe snapshot holdings are resolved
// against.
type FundSource interface {
	All() ([]universe.Fund, error)
}

// Handler handles alignment HTTP requests
type Handler struct {
	funds FundSource
	log   zerolog.Logger
}

// NewHandler creates a new alignment handler
func NewHandler(funds FundSource, log zerolog.Logger) *Handler {
	return &Handler{
		funds: funds,
		log:   log.With().Str("handler", "alignment").Logger(),
	}
}

// RegisterRoutes registers alignment routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze/portfolio", h.HandleAnalyzePortfolio)
}

type analyzeRequest struct {
	Holdings         []domain.Holding   `json:"holdings"`
	TargetAllocation map[string]float64 `json:"target_allocation"`
}

// HandleAnalyzePortfolio scores how closely the holdings track the
// target allocation and reports per-class gaps.
func (h *Handler) HandleAnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target := make(domain.Allocation, len(req.TargetAllocation))
	for name, weight := range req.TargetAllocation {
		ac, err := domain.ParseAssetClass(name)
		if err != nil {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		target[ac] = domain.NormalizeFraction(weight)
	}
	target, err := target.Normalized()
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	funds, err := h.funds.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load fund universe")
		h.writeError(w, http.StatusInternalServerError, "Failed to load fund universe")
		return
	}

	result := alignment.ScoreHoldings(req.Holdings, funds, target)
	h.writeJSON(w, http.StatusOK, result)
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
