// Package handlers provides HTTP handlers for portfolio risk assessment.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/classifier"
	"github.com/wealthnest/engine/internal/modules/risk"
	"github.com/wealthnest/engine/internal/modules/universe"
)

// ProfileClassifier turns an investor profile into a blended allocation.
type ProfileClassifier interface {
	ClassifyBlended(profile *classifier.InvestorProfile) (*classifier.BlendedClassification, error)
}

// FundSource supplies the universe snapshot holdings are resolved
// against.
type FundSource interface {
	All() ([]universe.Fund, error)
}

// Handler handles risk HTTP requests
type Handler struct {
	service    *risk.Service
	classifier ProfileClassifier
	funds      FundSource
	log        zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(service *risk.Service, profileClassifier ProfileClassifier, funds FundSource, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		classifier: profileClassifier,
		funds:      funds,
		log:        log.With().Str("handler", "risk").Logger(),
	}
}

// RegisterRoutes registers risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/risk", h.HandleAssessRisk)
}

type riskRequest struct {
	RequestID         string                      `json:"request_id"`
	Profile           *classifier.InvestorProfile `json:"profile"`
	CurrentPortfolio  []domain.Holding            `json:"current_portfolio"`
	ProposedPortfolio []domain.Holding            `json:"proposed_portfolio"`
}

type riskResponse struct {
	RequestID        string   `json:"request_id"`
	RiskLevel        string   `json:"risk_level"`
	RiskScore        float64  `json:"risk_score"`
	RiskFactors      []string `json:"risk_factors"`
	Recommendations  []string `json:"recommendations"`
	PersonaAlignment float64  `json:"persona_alignment"`
	ModelVersion     string   `json:"model_version"`
	LatencyMs        float64  `json:"latency_ms"`
}

// HandleAssessRisk scores the proposed portfolio (or the current one
// when nothing is proposed) for concentration, volatile exposure and
// drift from the profile's blended target.
func (h *Handler) HandleAssessRisk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var target domain.Allocation
	if req.Profile != nil {
		result, err := h.classifier.ClassifyBlended(req.Profile)
		if err != nil {
			h.writeError(w, statusForError(err), err.Error())
			return
		}
		target = result.BlendedAllocation
	}

	funds, err := h.funds.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load fund universe")
		h.writeError(w, http.StatusInternalServerError, "Failed to load fund universe")
		return
	}
	current := universe.ResolveHoldings(req.CurrentPortfolio, funds)
	proposed := universe.ResolveHoldings(req.ProposedPortfolio, funds)

	assessment, err := h.service.Assess(current, proposed, target)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	h.writeJSON(w, http.StatusOK, riskResponse{
		RequestID:        requestID,
		RiskLevel:        assessment.RiskLevel,
		RiskScore:        assessment.RiskScore,
		RiskFactors:      assessment.RiskFactors,
		Recommendations:  assessment.Recommendations,
		PersonaAlignment: assessment.PersonaAlignment,
		ModelVersion:     risk.ModelVersion,
		LatencyMs:        float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

func statusForError(err error) int {
	switch {
	case domain.IsClassificationError(err), domain.IsValidationError(err):
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
