package classifier

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/allocation"
	"github.com/wealthnest/engine/internal/modules/personas"
)

// PersonaSource supplies the active persona set.
// The catalog repository implements it; tests substitute fixtures.
type PersonaSource interface {
	ListActive() ([]personas.Persona, error)
}

// RuleSource supplies the classifier rule table.
type RuleSource interface {
	ListActive() ([]Rule, error)
}

// Service classifies investor profiles against the persona catalog.
type Service struct {
	personas  PersonaSource
	rules     RuleSource
	smoothing float64
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewService creates a new classifier service.
// smoothing mixes a uniform distribution into the rule-based scores so
// no persona ever gets exactly 0 or 1 probability.
func NewService(personaSource PersonaSource, ruleSource RuleSource, smoothing float64, log zerolog.Logger) *Service {
	return &Service{
		personas:  personaSource,
		rules:     ruleSource,
		smoothing: smoothing,
		validate:  validator.New(),
		log:       log.With().Str("service", "classifier").Logger(),
	}
}

// Classify maps a profile to a probability distribution over the
// active personas. The chosen persona is the argmax, ties broken by
// catalog display order.
func (s *Service) Classify(profile *InvestorProfile) (*ClassificationResult, error) {
	start := time.Now()

	if profile == nil {
		return nil, domain.NewClassificationError("profile is required")
	}
	if err := s.validate.Struct(profile); err != nil {
		return nil, domain.NewClassificationError(fmt.Sprintf("invalid profile: %v", err))
	}

	active, err := s.personas.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load personas: %w", err)
	}
	if len(active) == 0 {
		return nil, domain.NewClassificationError("no active personas in catalog")
	}

	rules, err := s.rules.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier rules: %w", err)
	}

	// Raw rule scores per persona
	scores := make(map[string]float64, len(active))
	for _, p := range active {
		scores[p.Slug] = 0
	}
	for _, rule := range rules {
		if _, known := scores[rule.PersonaSlug]; !known {
			continue // rule for an inactive or deleted persona
		}
		if rule.Matches(profile) {
			scores[rule.PersonaSlug] += rule.Weight
		}
	}

	total := 0.0
	for _, score := range scores {
		total += score
	}
	if total <= 0 {
		return nil, domain.NewClassificationError("no classifier rule matched the profile")
	}

	// Normalize, then mix in a uniform term so no persona hits 0 or 1
	uniform := 1.0 / float64(len(active))
	distribution := make(map[string]float64, len(active))
	for slug, score := range scores {
		distribution[slug] = (1-s.smoothing)*(score/total) + s.smoothing*uniform
	}

	// Argmax in display order, strict inequality keeps the earlier persona on ties
	best := active[0].Slug
	bestProb := distribution[best]
	bestBand := active[0].RiskBand
	for _, p := range active[1:] {
		if distribution[p.Slug] > bestProb {
			best = p.Slug
			bestProb = distribution[p.Slug]
			bestBand = p.RiskBand
		}
	}

	result := &ClassificationResult{
		PersonaID:    best,
		PersonaSlug:  best,
		RiskBand:     string(bestBand),
		Distribution: distribution,
		Confidence:   bestProb,
		LatencyMs:    float64(time.Since(start).Microseconds()) / 1000.0,
	}

	s.log.Debug().
		Str("persona", best).
		Float64("confidence", bestProb).
		Msg("Profile classified")

	return result, nil
}

// ClassifyBlended classifies a profile and blends the persona target
// allocations by the resulting distribution.
func (s *Service) ClassifyBlended(profile *InvestorProfile) (*BlendedClassification, error) {
	result, err := s.Classify(profile)
	if err != nil {
		return nil, err
	}

	active, err := s.personas.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load personas: %w", err)
	}

	vectors := make(map[string]domain.Allocation, len(active))
	for _, p := range active {
		vectors[p.Slug] = p.TargetAllocation
	}

	blended, err := allocation.Blend(result.Distribution, vectors)
	if err != nil {
		return nil, err
	}

	return &BlendedClassification{
		ClassificationResult: *result,
		BlendedAllocation:    blended,
	}, nil
}
