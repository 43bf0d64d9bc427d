package optimization

import (
	"github.com/wealthnest/engine/internal/domain"
)

// Action directions. Classes within tolerance emit no action at all,
// so "hold" never appears in a plan.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// Constraints bound the shape of a rebalance plan.
type Constraints struct {
	// Tolerance is the acceptable per-class weight gap. Zero means
	// use the service default.
	Tolerance float64 `json:"tolerance"`

	// MaxTurnoverActions caps the total number of actions in the
	// plan. Zero means unlimited.
	MaxTurnoverActions int `json:"max_turnover_actions"`

	// MinInvestmentAmount is the smallest buy worth placing.
	// Smaller buys are rounded up to this amount. Zero means use
	// the service default.
	MinInvestmentAmount float64 `json:"min_investment_amount"`

	// MaxFundsPerAssetClass caps distinct funds touched per class.
	// Zero means unlimited.
	MaxFundsPerAssetClass int `json:"max_funds_per_asset_class"`

	ExcludeFunds []int `json:"exclude_funds"`
}

// RebalanceAction is a single proposed trade.
type RebalanceAction struct {
	SchemeCode int               `json:"scheme_code"`
	SchemeName string            `json:"scheme_name"`
	AssetClass domain.AssetClass `json:"asset_class"`
	Direction  string            `json:"direction"`
	Amount     float64           `json:"amount"`

	// Deviation is the class weight gap that motivated the action.
	Deviation float64 `json:"deviation"`

	// Priority orders execution, 1 is most urgent.
	Priority int `json:"priority"`
}

// Plan is the result of an optimization run.
type Plan struct {
	Actions                 []RebalanceAction `json:"actions"`
	ResultingAlignmentScore float64           `json:"resulting_alignment_score"`
}
