// Package optimization proposes rebalance plans that move a portfolio
// toward a target allocation under turnover and sizing constraints.
package optimization

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/alignment"
	"github.com/wealthnest/engine/internal/modules/recommendation"
	"github.com/wealthnest/engine/internal/modules/universe"
)

// FundSource provides the universe snapshot used to resolve holdings
// and size buys.
type FundSource interface {
	All() ([]universe.Fund, error)
}

// Service builds rebalance plans.
type Service struct {
	funds            FundSource
	defaultTolerance float64
	defaultMinInvest float64
	log              zerolog.Logger
}

// NewService creates a new optimization service. defaultMinInvest is
// the per-action floor applied when the request carries no minimum of
// its own.
func NewService(funds FundSource, defaultTolerance, defaultMinInvest float64, log zerolog.Logger) *Service {
	return &Service{
		funds:            funds,
		defaultTolerance: defaultTolerance,
		defaultMinInvest: defaultMinInvest,
		log:              log.With().Str("service", "optimization").Logger(),
	}
}

// classGap tracks one asset class's drift from target.
type classGap struct {
	class     domain.AssetClass
	deviation float64 // actual - target, positive means overweight
	amount    float64 // absolute currency amount to move
}

// Optimize compares holdings against the target allocation and emits
// sell actions for overweight classes and buy actions for underweight
// ones. Holdings are resolved against a single universe snapshot, so
// units-only positions are valued at units × NAV and asset classes
// come from the fund record. A portfolio already within tolerance
// yields an empty plan.
func (s *Service) Optimize(holdings []domain.Holding, target domain.Allocation, c Constraints) (*Plan, error) {
	tolerance := c.Tolerance
	if tolerance <= 0 {
		tolerance = s.defaultTolerance
	}
	minInvest := c.MinInvestmentAmount
	if minInvest <= 0 {
		minInvest = s.defaultMinInvest
	}

	normalized := make(domain.Allocation, len(target))
	for ac, w := range target {
		normalized[ac] = domain.NormalizeFraction(w)
	}
	normalized, err := normalized.Normalized()
	if err != nil {
		return nil, err
	}

	funds, err := s.funds.All()
	if err != nil {
		return nil, err
	}
	holdings = universe.ResolveHoldings(holdings, funds)

	total := domain.HoldingsTotal(holdings)
	if total <= 0 {
		return nil, domain.NewValidationError("holdings", "portfolio has no market value to rebalance")
	}
	actual, _ := domain.HoldingsAllocation(holdings)

	gaps := s.computeGaps(actual, normalized, total, tolerance)
	if len(gaps) == 0 {
		score := alignment.Score(actual, normalized)
		return &Plan{Actions: []RebalanceAction{}, ResultingAlignmentScore: score.Score}, nil
	}

	excluded := make(map[int]bool, len(c.ExcludeFunds))
	for _, code := range c.ExcludeFunds {
		excluded[code] = true
	}

	byClass := make(map[domain.AssetClass][]universe.Fund)
	for _, f := range funds {
		byClass[f.AssetClass] = append(byClass[f.AssetClass], f)
	}

	var actions []RebalanceAction
	for _, gap := range gaps {
		if gap.deviation > 0 {
			actions = append(actions, s.sellActions(holdings, gap, c)...)
		} else {
			buys, err := s.buyActions(gap, byClass[gap.class], c, minInvest, excluded)
			if err != nil {
				return nil, err
			}
			actions = append(actions, buys...)
		}
	}

	actions = applyTurnoverCap(actions, c.MaxTurnoverActions)

	sort.SliceStable(actions, func(i, j int) bool {
		di, dj := absFloat(actions[i].Deviation), absFloat(actions[j].Deviation)
		if di != dj {
			return di > dj
		}
		return actions[i].Amount > actions[j].Amount
	})
	for i := range actions {
		actions[i].Priority = i + 1
	}

	resulting := s.simulate(holdings, actions, normalized)
	return &Plan{Actions: actions, ResultingAlignmentScore: resulting}, nil
}

// computeGaps returns the classes drifted beyond tolerance, largest
// deviation first. Classes absent from the target count as fully
// overweight.
func (s *Service) computeGaps(actual, target domain.Allocation, total, tolerance float64) []classGap {
	classes := make(map[domain.AssetClass]bool, len(actual)+len(target))
	for ac := range actual {
		classes[ac] = true
	}
	for ac := range target {
		classes[ac] = true
	}

	var gaps []classGap
	for ac := range classes {
		dev := actual[ac] - target[ac]
		if absFloat(dev) <= tolerance {
			continue
		}
		gaps = append(gaps, classGap{
			class:     ac,
			deviation: dev,
			amount:    roundCurrency(absFloat(dev) * total),
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		di, dj := absFloat(gaps[i].deviation), absFloat(gaps[j].deviation)
		if di != dj {
			return di > dj
		}
		return gaps[i].class < gaps[j].class
	})
	return gaps
}

// sellActions liquidates the overweight amount from the class's
// largest holdings first.
func (s *Service) sellActions(holdings []domain.Holding, gap classGap, c Constraints) []RebalanceAction {
	var inClass []domain.Holding
	for _, h := range holdings {
		if h.AssetClass == gap.class && h.CurrentValue > 0 {
			inClass = append(inClass, h)
		}
	}
	sort.Slice(inClass, func(i, j int) bool {
		if inClass[i].CurrentValue != inClass[j].CurrentValue {
			return inClass[i].CurrentValue > inClass[j].CurrentValue
		}
		return inClass[i].SchemeCode < inClass[j].SchemeCode
	})

	if c.MaxFundsPerAssetClass > 0 && len(inClass) > c.MaxFundsPerAssetClass {
		inClass = inClass[:c.MaxFundsPerAssetClass]
	}

	var actions []RebalanceAction
	remaining := gap.amount
	for _, h := range inClass {
		if remaining <= 0 {
			break
		}
		amount := roundCurrency(minFloat(remaining, h.CurrentValue))
		if amount <= 0 {
			continue
		}
		actions = append(actions, RebalanceAction{
			SchemeCode: h.SchemeCode,
			SchemeName: h.SchemeName,
			AssetClass: gap.class,
			Direction:  DirectionSell,
			Amount:     amount,
			Deviation:  gap.deviation,
		})
		remaining -= amount
	}
	return actions
}

// buyActions fills an underweight class from the top-scored eligible
// funds, splitting proportional to score. Per-fund slices below the
// minimum investment fold into the top pick instead of producing dust
// orders.
func (s *Service) buyActions(gap classGap, bucket []universe.Fund, c Constraints, minInvest float64, excluded map[int]bool) ([]RebalanceAction, error) {
	eligible := bucket[:0:0]
	for _, f := range bucket {
		if !excluded[f.SchemeCode] {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		return nil, domain.NewInfeasibleConstraintsError(gap.class, "no eligible funds to buy")
	}

	scored := recommendation.ScoreBucket(eligible)
	picks := scored
	if c.MaxFundsPerAssetClass > 0 && len(picks) > c.MaxFundsPerAssetClass {
		picks = picks[:c.MaxFundsPerAssetClass]
	}

	scoreSum := 0.0
	for _, sf := range picks {
		scoreSum += sf.Score
	}

	amounts := make([]float64, len(picks))
	allocated := 0.0
	for i, sf := range picks {
		share := 1.0 / float64(len(picks))
		if scoreSum > 0 {
			share = sf.Score / scoreSum
		}
		amounts[i] = roundCurrency(gap.amount * share)
		allocated += amounts[i]
	}
	amounts[0] += gap.amount - allocated

	// Fold sub-minimum slices into the top pick.
	if minInvest > 0 {
		for i := len(amounts) - 1; i >= 1; i-- {
			if amounts[i] > 0 && amounts[i] < minInvest {
				amounts[0] += amounts[i]
				amounts[i] = 0
			}
		}
		if amounts[0] > 0 && amounts[0] < minInvest {
			amounts[0] = minInvest
		}
	}

	var actions []RebalanceAction
	for i, sf := range picks {
		if amounts[i] <= 0 {
			continue
		}
		actions = append(actions, RebalanceAction{
			SchemeCode: sf.Fund.SchemeCode,
			SchemeName: sf.Fund.SchemeName,
			AssetClass: gap.class,
			Direction:  DirectionBuy,
			Amount:     amounts[i],
			Deviation:  gap.deviation,
		})
	}
	return actions, nil
}

// applyTurnoverCap shrinks the plan to at most maxActions by removing
// the action addressing the smallest drift (ties broken by smaller
// amount) and merging its amount into the largest same-class
// same-direction action. When no merge target exists the amount is
// taken back out of the opposite side, largest actions first, so buy
// and sell totals stay balanced.
func applyTurnoverCap(actions []RebalanceAction, maxActions int) []RebalanceAction {
	if maxActions <= 0 || len(actions) <= maxActions {
		return actions
	}

	for len(actions) > maxActions {
		victim := 0
		for i, a := range actions {
			dv, dw := absFloat(a.Deviation), absFloat(actions[victim].Deviation)
			if dv < dw || (dv == dw && a.Amount < actions[victim].Amount) {
				victim = i
			}
		}

		merge := -1
		for i, a := range actions {
			if i == victim {
				continue
			}
			if a.AssetClass != actions[victim].AssetClass || a.Direction != actions[victim].Direction {
				continue
			}
			if merge < 0 || a.Amount > actions[merge].Amount {
				merge = i
			}
		}

		dropped := actions[victim]
		actions = append(actions[:victim], actions[victim+1:]...)
		if merge >= 0 {
			if merge > victim {
				merge--
			}
			actions[merge].Amount += dropped.Amount
			continue
		}

		// No merge target: shrink the opposite side by the dropped
		// amount, largest actions first, removing any that hit zero.
		remaining := dropped.Amount
		for remaining > 0 {
			offset := -1
			for i, a := range actions {
				if a.Direction == dropped.Direction {
					continue
				}
				if offset < 0 || a.Amount > actions[offset].Amount {
					offset = i
				}
			}
			if offset < 0 {
				break
			}
			cut := minFloat(remaining, actions[offset].Amount)
			actions[offset].Amount -= cut
			remaining -= cut
			if actions[offset].Amount <= 0 {
				actions = append(actions[:offset], actions[offset+1:]...)
			}
		}
	}
	return actions
}

// simulate applies the plan to per-class values and scores the result.
func (s *Service) simulate(holdings []domain.Holding, actions []RebalanceAction, target domain.Allocation) float64 {
	values := make(map[domain.AssetClass]float64)
	total := 0.0
	for _, h := range holdings {
		values[h.AssetClass] += h.CurrentValue
		total += h.CurrentValue
	}
	for _, a := range actions {
		switch a.Direction {
		case DirectionBuy:
			values[a.AssetClass] += a.Amount
			total += a.Amount
		case DirectionSell:
			values[a.AssetClass] -= a.Amount
			total -= a.Amount
		}
	}
	if total <= 0 {
		return 0
	}

	actual := make(domain.Allocation, len(values))
	for ac, v := range values {
		if v > 0 {
			actual[ac] = v / total
		}
	}
	return alignment.Score(actual, target).Score
}

func roundCurrency(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
