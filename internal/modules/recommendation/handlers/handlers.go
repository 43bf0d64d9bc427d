// Package handlers provides HTTP handlers for fund recommendations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/alignment"
	"github.com/wealthnest/engine/internal/modules/allocation"
	"github.com/wealthnest/engine/internal/modules/classifier"
	"github.com/wealthnest/engine/internal/modules/personas"
	"github.com/wealthnest/engine/internal/modules/recommendation"
)

// ProfileClassifier turns an investor profile into a blended allocation.
type ProfileClassifier interface {
	ClassifyBlended(profile *classifier.InvestorProfile) (*classifier.BlendedClassification, error)
}

// PersonaVectors provides the active persona catalog for distribution blending.
type PersonaVectors interface {
	ListActive() ([]personas.Persona, error)
}

// Handler handles recommendation HTTP requests
type Handler struct {
	service     *recommendation.Service
	classifier  ProfileClassifier
	personas    PersonaVectors
	defaultTopN int
	log         zerolog.Logger
}

// NewHandler creates a new recommendation handler
func NewHandler(service *recommendation.Service, profileClassifier ProfileClassifier, personaSource PersonaVectors, defaultTopN int, log zerolog.Logger) *Handler {
	return &Handler{
		service:     service,
		classifier:  profileClassifier,
		personas:    personaSource,
		defaultTopN: defaultTopN,
		log:         log.With().Str("handler", "recommendation").Logger(),
	}
}

// RegisterRoutes registers recommendation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/recommend", func(r chi.Router) {
		r.Post("/", h.HandleRecommend)
		r.Post("/blended", h.HandleRecommendBlended)
	})
}

type recommendRequest struct {
	PersonaID        string                      `json:"persona_id"`
	Profile          *classifier.InvestorProfile `json:"profile"`
	TopN             int                         `json:"top_n"`
	InvestmentAmount float64                     `json:"investment_amount"`
	CategoryFilters  []string                    `json:"category_filters"`
	ExcludeFunds     []int                       `json:"exclude_funds"`
}

type recommendResponse struct {
	RequestID        string                          `json:"request_id"`
	Recommendations  []recommendation.Recommendation `json:"recommendations"`
	PersonaAlignment float64                         `json:"persona_alignment"`
	ModelVersion     string                          `json:"model_version"`
	LatencyMs        float64                         `json:"latency_ms"`
}

// HandleRecommend returns scored fund picks for a single persona's
// target allocation, or for a classified profile when no persona is
// named. Without an investment amount the split is computed on a
// notional base, so suggested allocations stay meaningful.
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := h.resolveTarget(&blendedRequest{
		PersonaDistribution: personaDistribution(req.PersonaID),
		Profile:             req.Profile,
	})
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = h.defaultTopN
	}
	amount := req.InvestmentAmount
	if amount <= 0 {
		amount = notionalInvestment
	}

	recs, breakdown, err := h.service.Recommend(target, amount, topN, req.CategoryFilters, req.ExcludeFunds)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	actual := make(domain.Allocation, len(breakdown))
	normalized := make(domain.Allocation, len(breakdown))
	for _, b := range breakdown {
		actual[b.AssetClass] = b.ActualAllocation
		normalized[b.AssetClass] = b.TargetAllocation
	}
	aligned := alignment.Score(actual, normalized)

	h.writeJSON(w, http.StatusOK, recommendResponse{
		RequestID:        uuid.New().String(),
		Recommendations:  recs,
		PersonaAlignment: aligned.Score,
		ModelVersion:     recommendation.ModelVersion,
		LatencyMs:        float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

// notionalInvestment sizes the per-fund split when the caller asks for
// picks without naming an amount.
const notionalInvestment = 100000

func personaDistribution(personaID string) map[string]float64 {
	if personaID == "" {
		return nil
	}
	return map[string]float64{personaID: 1.0}
}

type blendedRequest struct {
	BlendedAllocation   map[string]float64          `json:"blended_allocation"`
	PersonaDistribution map[string]float64          `json:"persona_distribution"`
	Profile             *classifier.InvestorProfile `json:"profile"`
	TopN                int                         `json:"top_n"`
	InvestmentAmount    float64                     `json:"investment_amount"`
	CategoryFilters     []string                    `json:"category_filters"`
	ExcludeFunds        []int                       `json:"exclude_funds"`
}

type blendedResponse struct {
	RequestID           string                               `json:"request_id"`
	Recommendations     []recommendation.Recommendation      `json:"recommendations"`
	AssetClassBreakdown []recommendation.AssetClassBreakdown `json:"asset_class_breakdown"`
	TargetAllocation    domain.Allocation                    `json:"target_allocation"`
	AlignmentScore      float64                              `json:"alignment_score"`
	AlignmentMessage    string                               `json:"alignment_message"`
	ModelVersion        string                               `json:"model_version"`
	LatencyMs           float64                              `json:"latency_ms"`
}

// HandleRecommendBlended resolves a target allocation from the request
// (explicit vector, persona distribution, or raw investor profile, in
// that order of precedence) and returns scored fund picks with exact
// amount reconciliation.
func (h *Handler) HandleRecommendBlended(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req blendedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := h.resolveTarget(&req)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = h.defaultTopN
	}

	recs, breakdown, err := h.service.Recommend(target, req.InvestmentAmount, topN, req.CategoryFilters, req.ExcludeFunds)
	if err != nil {
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	actual := make(domain.Allocation, len(breakdown))
	normalized := make(domain.Allocation, len(breakdown))
	for _, b := range breakdown {
		actual[b.AssetClass] = b.ActualAllocation
		normalized[b.AssetClass] = b.TargetAllocation
	}
	aligned := alignment.Score(actual, normalized)

	h.writeJSON(w, http.StatusOK, blendedResponse{
		RequestID:           uuid.New().String(),
		Recommendations:     recs,
		AssetClassBreakdown: breakdown,
		TargetAllocation:    normalized,
		AlignmentScore:      aligned.Score,
		AlignmentMessage:    aligned.Message,
		ModelVersion:        recommendation.ModelVersion,
		LatencyMs:           float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

// resolveTarget picks the target allocation source. An explicit vector
// wins over a persona distribution, which wins over a profile.
func (h *Handler) resolveTarget(req *blendedRequest) (domain.Allocation, error) {
	switch {
	case len(req.BlendedAllocation) > 0:
		return parseAllocation(req.BlendedAllocation)

	case len(req.PersonaDistribution) > 0:
		active, err := h.personas.ListActive()
		if err != nil {
			return nil, err
		}
		vectors := make(map[string]domain.Allocation, len(active))
		for _, p := range active {
			vectors[p.Slug] = p.TargetAllocation
		}
		return allocation.Blend(req.PersonaDistribution, vectors)

	case req.Profile != nil:
		result, err := h.classifier.ClassifyBlended(req.Profile)
		if err != nil {
			return nil, err
		}
		return result.BlendedAllocation, nil

	default:
		return nil, domain.NewValidationError("blended_allocation", "one of blended_allocation, persona_distribution or profile is required")
	}
}

func parseAllocation(raw map[string]float64) (domain.Allocation, error) {
	target := make(domain.Allocation, len(raw))
	for name, weight := range raw {
		ac, err := domain.ParseAssetClass(name)
		if err != nil {
			return nil, domain.NewValidationError("blended_allocation", err.Error())
		}
		target[ac] = weight
	}
	return target, nil
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
