package recommendation

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/universe"
)

// ModelVersion tags recommendation responses so admin tooling can
// correlate output with the scoring recipe that produced it.
const ModelVersion = "persona-blend-1.2.0"

// Recommendation is one recommended fund with its share of the
// investment amount.
type Recommendation struct {
	SchemeCode          int                `json:"scheme_code"`
	SchemeName          string             `json:"scheme_name"`
	FundHouse           string             `json:"fund_house"`
	Category            string             `json:"category"`
	AssetClass          domain.AssetClass  `json:"asset_class"`
	Score               float64            `json:"score"`
	SuggestedAllocation float64            `json:"suggested_allocation"` // fraction of the class target
	SuggestedAmount     float64            `json:"suggested_amount"`
	Reasoning           string             `json:"reasoning"`
	Metrics             FundMetricsSummary `json:"metrics"`
}

// FundMetricsSummary is the metric snapshot attached to a recommendation.
type FundMetricsSummary struct {
	NAV          float64  `json:"nav"`
	ExpenseRatio *float64 `json:"expense_ratio"`
	Return1Y     *float64 `json:"return_1y"`
	Return3Y     *float64 `json:"return_3y"`
	Return5Y     *float64 `json:"return_5y"`
	SharpeRatio  *float64 `json:"sharpe_ratio"`
	Volatility   *float64 `json:"volatility"`
}

// AssetClassBreakdown reports how one asset class's target translated
// into actual amounts.
type AssetClassBreakdown struct {
	AssetClass       domain.AssetClass `json:"asset_class"`
	TargetAllocation float64           `json:"target_allocation"`
	ActualAllocation float64           `json:"actual_allocation"`
	FundCount        int               `json:"fund_count"`
	TotalAmount      float64           `json:"total_amount"`
}

// FundSource supplies funds per asset class. The universe repository
// implements it; tests substitute fixtures.
type FundSource interface {
	ByAssetClass(ac domain.AssetClass) ([]universe.Fund, error)
}

// Service builds fund recommendations against a target allocation.
type Service struct {
	funds FundSource
	log   zerolog.Logger
}

// NewService creates a new recommendation service
func NewService(funds FundSource, log zerolog.Logger) *Service {
	return &Service{
		funds: funds,
		log:   log.With().Str("service", "recommendation").Logger(),
	}
}

// Recommend selects and amount-weights funds for each asset class with
// non-zero target weight. The universe is read once per call: a sync
// landing mid-request never mixes two universes into one answer.
//
// Amounts are split per class by target weight, then within the class
// proportional to score, rounded to whole currency units. Rounding
// remainders roll up to the largest class and the top-scored fund, so
// the grand total always reconciles exactly to investmentAmount.
func (s *Service) Recommend(target domain.Allocation, investmentAmount float64, topN int, categories []string, exclude []int) ([]Recommendation, []AssetClassBreakdown, error) {
	if investmentAmount <= 0 {
		return nil, nil, domain.NewValidationError("investment_amount", "must be positive")
	}
	if topN <= 0 {
		return nil, nil, domain.NewValidationError("top_n", "must be positive")
	}

	normalized, err := normalizeTarget(target)
	if err != nil {
		return nil, nil, err
	}

	excluded := make(map[int]bool, len(exclude))
	for _, code := range exclude {
		excluded[code] = true
	}

	total := decimal.NewFromFloat(investmentAmount).Round(0)

	// Split the total across classes by weight, largest class absorbs
	// the rounding remainder.
	classes := normalized.SortedClasses()
	classAmounts := make(map[domain.AssetClass]decimal.Decimal, len(classes))
	allocated := decimal.Zero
	for _, ac := range classes {
		amt := total.Mul(decimal.NewFromFloat(normalized[ac])).Round(0)
		classAmounts[ac] = amt
		allocated = allocated.Add(amt)
	}
	if len(classes) > 0 {
		classAmounts[classes[0]] = classAmounts[classes[0]].Add(total.Sub(allocated))
	}

	var recommendations []Recommendation
	var breakdown []AssetClassBreakdown

	for _, ac := range classes {
		bucket, err := s.funds.ByAssetClass(ac)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load %s funds: %w", ac, err)
		}

		eligible := bucket[:0:0]
		for _, f := range bucket {
			if excluded[f.SchemeCode] || !matchesCategory(f.Category, categories) {
				continue
			}
			eligible = append(eligible, f)
		}
		if len(eligible) == 0 {
			return nil, nil, domain.NewEmptyUniverseError(ac)
		}

		scored := ScoreBucket(eligible)
		if len(scored) > topN {
			scored = scored[:topN]
		}

		classAmount := classAmounts[ac]
		amounts := splitByScore(classAmount, scored)

		for i, sf := range scored {
			suggestedAllocation := 0.0
			if !classAmount.IsZero() {
				suggestedAllocation, _ = amounts[i].Div(classAmount).Round(6).Float64()
			}
			amount, _ := amounts[i].Float64()

			recommendations = append(recommendations, Recommendation{
				SchemeCode:          sf.Fund.SchemeCode,
				SchemeName:          sf.Fund.SchemeName,
				FundHouse:           sf.Fund.FundHouse,
				Category:            sf.Fund.Category,
				AssetClass:          ac,
				Score:               sf.Score,
				SuggestedAllocation: suggestedAllocation,
				SuggestedAmount:     amount,
				Reasoning:           buildReasoning(sf.Fund, i+1),
				Metrics: FundMetricsSummary{
					NAV:          sf.Fund.NAV,
					ExpenseRatio: sf.Fund.ExpenseRatio,
					Return1Y:     sf.Fund.Return1Y,
					Return3Y:     sf.Fund.Return3Y,
					Return5Y:     sf.Fund.Return5Y,
					SharpeRatio:  sf.Fund.SharpeRatio,
					Volatility:   sf.Fund.Volatility,
				},
			})
		}

		classTotal, _ := classAmount.Float64()
		breakdown = append(breakdown, AssetClassBreakdown{
			AssetClass:       ac,
			TargetAllocation: normalized[ac],
			ActualAllocation: classTotal / mustFloat(total),
			FundCount:        len(scored),
			TotalAmount:      classTotal,
		})
	}

	s.log.Debug().
		Int("recommendations", len(recommendations)).
		Float64("amount", investmentAmount).
		Msg("Recommendations built")

	return recommendations, breakdown, nil
}

// splitByScore divides a class amount across scored funds proportional
// to score, whole currency units, remainder to the top fund. Zero
// total score (every metric missing cancels out) splits equally.
func splitByScore(classAmount decimal.Decimal, scored []ScoredFund) []decimal.Decimal {
	amounts := make([]decimal.Decimal, len(scored))
	if len(scored) == 0 {
		return amounts
	}

	scoreSum := 0.0
	for _, sf := range scored {
		scoreSum += sf.Score
	}

	assigned := decimal.Zero
	for i, sf := range scored {
		var share decimal.Decimal
		if scoreSum > 0 {
			share = classAmount.Mul(decimal.NewFromFloat(sf.Score / scoreSum)).Round(0)
		} else {
			share = classAmount.Div(decimal.NewFromInt(int64(len(scored)))).Round(0)
		}
		amounts[i] = share
		assigned = assigned.Add(share)
	}

	amounts[0] = amounts[0].Add(classAmount.Sub(assigned))
	return amounts
}

// matchesCategory reports whether a fund's category passes the filter.
// An empty filter admits everything; matching is case-insensitive on
// substrings, so "large cap" admits "Large Cap Fund".
func matchesCategory(category string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f != "" && strings.Contains(strings.ToLower(category), strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// normalizeTarget converts percentage-style weights to fractions and
// rescales the vector to sum to 1.
func normalizeTarget(target domain.Allocation) (domain.Allocation, error) {
	if len(target) == 0 {
		return nil, domain.NewValidationError("target_allocation", "allocation is empty")
	}

	fractions := make(domain.Allocation, len(target))
	for ac, w := range target {
		if !ac.IsValid() {
			return nil, domain.NewValidationError(string(ac), "unknown asset class")
		}
		fractions[ac] = domain.NormalizeFraction(w)
	}
	return fractions.Normalized()
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
