// Package alignment scores how closely a set of holdings tracks a
// target allocation.
package alignment

import (
	"math"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/universe"
)

// Message thresholds. Scores at or above WellAligned need no action,
// the band down to MinorDrift is worth watching, anything below calls
// for a rebalance.
const (
	WellAlignedThreshold = 0.9
	MinorDriftThreshold  = 0.7
)

const (
	MessageWellAligned = "Portfolio is well aligned with the target allocation"
	MessageMinorDrift  = "Minor drift from the target allocation"
	MessageRebalance   = "Rebalancing recommended to restore the target allocation"
	MessageNoHoldings  = "No holdings to score against the target allocation"
)

// Result is an alignment score with its diagnostic message and the
// per-class gaps behind it.
type Result struct {
	Score   float64                       `json:"alignment_score"`
	Message string                        `json:"alignment_message"`
	Gaps    map[domain.AssetClass]float64 `json:"gaps,omitempty"` // actual − target per class
}

// Score compares an actual allocation against a target.
// alignment = 1 − L1/2: half the total absolute deviation, since the
// maximum L1 distance between two points on a simplex is 2. Clamped
// to [0,1].
func Score(actual, target domain.Allocation) Result {
	gaps := make(map[domain.AssetClass]float64)
	for _, ac := range domain.AllAssetClasses {
		gap := actual[ac] - target[ac]
		if gap != 0 {
			gaps[ac] = gap
		}
	}

	score := 1.0 - actual.L1Distance(target)/2.0
	score = math.Max(0, math.Min(1, score))

	return Result{
		Score:   score,
		Message: messageFor(score),
		Gaps:    gaps,
	}
}

// ScoreHoldings resolves holdings against a universe snapshot (units
// valued at units × NAV when no market value was sent, asset classes
// filled from the fund record), derives the actual allocation from the
// resolved market values, and scores it against the target. Zero-value
// holdings yield score 0 with a distinct message rather than a
// division by zero.
func ScoreHoldings(holdings []domain.Holding, funds []universe.Fund, target domain.Allocation) Result {
	resolved := universe.ResolveHoldings(holdings, funds)
	actual, ok := domain.HoldingsAllocation(resolved)
	if !ok {
		return Result{Score: 0, Message: MessageNoHoldings}
	}
	return Score(actual, target)
}

func messageFor(score float64) string {
	switch {
	case score >= WellAlignedThreshold:
		return MessageWellAligned
	case score >= MinorDriftThreshold:
		return MessageMinorDrift
	default:
		return MessageRebalance
	}
}
