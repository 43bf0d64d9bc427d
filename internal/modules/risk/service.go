package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/alignment"
)

// Thresholds that turn a measurement into a named risk factor. The
// concentration limit mirrors the rebalancing rule that flags a single
// fund above 40% of the portfolio.
const (
	concentrationLimit  = 0.40
	volatileWeightLimit = 0.75
	misalignmentLimit   = 0.15
	volatileShiftLimit  = 0.10
)

// Score weights. Volatile exposure dominates, concentration and drift
// from the investor's target share the rest.
const (
	volatileWeightFactor = 0.45
	concentrationFactor  = 0.25
	misalignmentFactor   = 0.30
)

// Level boundaries on the composite score.
const (
	moderateFloor = 0.35
	highFloor     = 0.65
)

// Service assesses portfolio risk.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new risk service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "risk").Logger(),
	}
}

// Assess scores the proposed portfolio, falling back to the current
// one when no changes are proposed. Holdings must already be resolved
// against the universe, so every position carries a market value and
// an asset class. target is the investor's blended allocation and may
// be nil when no profile was supplied.
func (s *Service) Assess(current, proposed []domain.Holding, target domain.Allocation) (*Assessment, error) {
	assessed := proposed
	if len(assessed) == 0 {
		assessed = current
	}

	actual, ok := domain.HoldingsAllocation(assessed)
	if !ok {
		return nil, domain.NewValidationError("portfolio", "portfolio has no market value to assess")
	}

	volatile := volatileWeight(actual)
	concentration := largestPosition(assessed)

	misalignment := 0.0
	personaAlignment := 0.0
	if len(target) > 0 {
		personaAlignment = alignment.Score(actual, target).Score
		misalignment = 1 - personaAlignment
	}

	score := volatileWeightFactor*volatile +
		concentrationFactor*concentration +
		misalignmentFactor*misalignment
	if score > 1 {
		score = 1
	}

	var factors, recommendations []string
	if concentration > concentrationLimit {
		factors = append(factors, fmt.Sprintf("single fund holds %.0f%% of the portfolio", concentration*100))
		recommendations = append(recommendations, "spread the largest position across more funds")
	}
	if volatile > volatileWeightLimit {
		factors = append(factors, fmt.Sprintf("%.0f%% of the portfolio sits in volatile asset classes", volatile*100))
		recommendations = append(recommendations, "shift part of the equity exposure into debt or liquid funds")
	}
	if misalignment > misalignmentLimit {
		factors = append(factors, fmt.Sprintf("allocation drifts %.0f%% from the profile target", misalignment*100))
		recommendations = append(recommendations, "rebalance toward the profile target allocation")
	}
	if len(proposed) > 0 && len(current) > 0 {
		if currentActual, ok := domain.HoldingsAllocation(current); ok {
			shift := volatile - volatileWeight(currentActual)
			if shift > volatileShiftLimit {
				factors = append(factors, fmt.Sprintf("proposed changes raise volatile exposure by %.0f points", shift*100))
				recommendations = append(recommendations, "stage the proposed changes gradually")
			}
		}
	}

	s.log.Debug().
		Float64("score", score).
		Int("factors", len(factors)).
		Msg("Risk assessed")

	return &Assessment{
		RiskLevel:        levelFor(score),
		RiskScore:        score,
		RiskFactors:      factors,
		Recommendations:  recommendations,
		PersonaAlignment: personaAlignment,
	}, nil
}

// volatileWeight measures exposure to classes that can draw down
// sharply. Hybrid and gold count half, debt and liquid not at all.
func volatileWeight(actual domain.Allocation) float64 {
	return actual[domain.AssetClassEquity] +
		actual[domain.AssetClassInternational] +
		0.5*actual[domain.AssetClassHybrid] +
		0.5*actual[domain.AssetClassGold]
}

// largestPosition returns the biggest single-fund share of the total.
func largestPosition(holdings []domain.Holding) float64 {
	total := domain.HoldingsTotal(holdings)
	if total <= 0 {
		return 0
	}
	largest := 0.0
	for _, h := range holdings {
		if h.CurrentValue > largest {
			largest = h.CurrentValue
		}
	}
	return largest / total
}

func levelFor(score float64) string {
	switch {
	case score >= highFloor:
		return LevelHigh
	case score >= moderateFloor:
		return LevelModerate
	default:
		return LevelLow
	}
}
