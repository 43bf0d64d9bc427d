// Package handlers provides HTTP handlers for portfolio optimization.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/optimization"
	"github.com/wealthnest/engine/internal/modules/recommendation"
)

// Handler handles optimization HTTP requests
type Handler struct {
	service *optimization.Service
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(service *optimization.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// RegisterRoutes registers optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/optimize/portfolio", h.HandleOptimize)
}

type optimizeRequest struct {
	Holdings         []domain.Holding         `json:"holdings"`
	TargetAllocation map[string]float64       `json:"target_allocation"`
	Constraints      optimization.Constraints `json:"constraints"`
}

type optimizeResponse struct {
	Actions                 []optimization.RebalanceAction `json:"actions"`
	ResultingAlignmentScore float64                        `json:"resulting_alignment_score"`
	ModelVersion            string                         `json:"model_version"`
	LatencyMs               float64                        `json:"latency_ms"`
}

// HandleOptimize builds a rebalance plan moving the given holdings
// toward the target allocation under the supplied constraints.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req optimizeRequest
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
		target[ac] = weight
	}

	plan, err := h.service.Optimize(req.Holdings, target, req.Constraints)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, optimizeResponse{
		Actions:                 plan.Actions,
		ResultingAlignmentScore: plan.ResultingAlignmentScore,
		ModelVersion:            recommendation.ModelVersion,
		LatencyMs:               float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

func statusForError(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case domain.IsEmptyUniverseError(err), domain.IsInfeasibleConstraintsError(err):
		return http.StatusConflict
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
