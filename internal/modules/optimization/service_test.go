package optimization

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/universe"
)

type staticFundSource struct {
	funds []universe.Fund
}

func (s *staticFundSource) All() ([]universe.Fund, error) {
	return s.funds, nil
}

func ptr(v float64) *float64 { return &v }

func testFundSource() *staticFundSource {
	return &staticFundSource{funds: []universe.Fund{
		{SchemeCode: 101, SchemeName: "Alpha Large Cap", AssetClass: domain.AssetClassEquity, NAV: 100,
			SharpeRatio: ptr(1.2), Return3Y: ptr(15.0), ExpenseRatio: ptr(0.5)},
		{SchemeCode: 102, SchemeName: "Beta Flexi Cap", AssetClass: domain.AssetClassEquity, NAV: 50,
			SharpeRatio: ptr(0.9), Return3Y: ptr(12.0), ExpenseRatio: ptr(0.8)},
		{SchemeCode: 201, SchemeName: "Secure Bond", AssetClass: domain.AssetClassDebt, NAV: 25,
			SharpeRatio: ptr(0.8), Return3Y: ptr(7.0), ExpenseRatio: ptr(0.3)},
	}}
}

func newTestService() *Service {
	return NewService(testFundSource(), 0.02, 0, zerolog.Nop())
}

func balancedTarget() domain.Allocation {
	return domain.Allocation{
		domain.AssetClassEquity: 0.6,
		domain.AssetClassDebt:   0.4,
	}
}

func TestOptimizeNoDriftIsEmpty(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 101, SchemeName: "Alpha Large Cap", AssetClass: domain.AssetClassEquity, CurrentValue: 60000},
		{SchemeCode: 201, SchemeName: "Secure Bond", AssetClass: domain.AssetClassDebt, CurrentValue: 40000},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)
	assert.Empty(t, plan.Actions)
	assert.InDelta(t, 1.0, plan.ResultingAlignmentScore, 1e-9)
}

func TestOptimizeSellsOverweightBuysUnderweight(t *testing.T) {
	svc := newTestService()

	// 80/20 against a 60/40 target
	holdings := []domain.Holding{
		{SchemeCode: 101, SchemeName: "Alpha Large Cap", AssetClass: domain.AssetClassEquity, CurrentValue: 80000},
		{SchemeCode: 201, SchemeName: "Secure Bond", AssetClass: domain.AssetClassDebt, CurrentValue: 20000},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Actions)

	var sellTotal, buyTotal float64
	for _, a := range plan.Actions {
		switch a.Direction {
		case DirectionSell:
			assert.Equal(t, domain.AssetClassEquity, a.AssetClass)
			sellTotal += a.Amount
		case DirectionBuy:
			assert.Equal(t, domain.AssetClassDebt, a.AssetClass)
			buyTotal += a.Amount
		}
	}
	assert.InDelta(t, 20000, sellTotal, 1.0)
	assert.InDelta(t, 20000, buyTotal, 1.0)

	// A plan that closes both gaps should score near perfect
	assert.Greater(t, plan.ResultingAlignmentScore, 0.99)
}

func TestOptimizeSellsLargestHoldingFirst(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 101, SchemeName: "Alpha Large Cap", AssetClass: domain.AssetClassEquity, CurrentValue: 50000},
		{SchemeCode: 102, SchemeName: "Beta Flexi Cap", AssetClass: domain.AssetClassEquity, CurrentValue: 30000},
		{SchemeCode: 201, SchemeName: "Secure Bond", AssetClass: domain.AssetClassDebt, CurrentValue: 20000},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)

	var firstSell *RebalanceAction
	for i := range plan.Actions {
		if plan.Actions[i].Direction == DirectionSell {
			firstSell = &plan.Actions[i]
			break
		}
	}
	require.NotNil(t, firstSell)
	assert.Equal(t, 101, firstSell.SchemeCode)
}

func TestOptimizeTurnoverCap(t *testing.T) {
	svc := newTestService()

	// Equity overweight by 35000, which spans two sell actions plus a
	// debt buy: three actions unconstrained.
	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 32000},
		{SchemeCode: 102, AssetClass: domain.AssetClassEquity, CurrentValue: 32000},
		{SchemeCode: 103, AssetClass: domain.AssetClassEquity, CurrentValue: 31000},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, CurrentValue: 5000},
	}

	unconstrained, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)

	capped, err := svc.Optimize(holdings, balancedTarget(), Constraints{MaxTurnoverActions: 2})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(capped.Actions), 2)
	assert.Less(t, len(capped.Actions), len(unconstrained.Actions)+1)

	// Merging preserves the total amount moved per direction
	totalFor := func(plan *Plan, direction string) float64 {
		total := 0.0
		for _, a := range plan.Actions {
			if a.Direction == direction {
				total += a.Amount
			}
		}
		return total
	}
	assert.InDelta(t, totalFor(unconstrained, DirectionSell), totalFor(capped, DirectionSell), 1.0)
}

func TestOptimizeMinInvestmentRoundsUp(t *testing.T) {
	svc := newTestService()

	// Debt is underweight by only 300 against a 500 minimum
	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 6300},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, CurrentValue: 3700},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{MinInvestmentAmount: 500})
	require.NoError(t, err)

	for _, a := range plan.Actions {
		if a.Direction == DirectionBuy {
			assert.GreaterOrEqual(t, a.Amount, 500.0)
		}
	}
}

func TestOptimizeMaxFundsPerClass(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 30000},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, CurrentValue: 70000},
	}

	// Equity needs buying; cap to one fund per class
	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{MaxFundsPerAssetClass: 1})
	require.NoError(t, err)

	touched := make(map[domain.AssetClass]map[int]bool)
	for _, a := range plan.Actions {
		if touched[a.AssetClass] == nil {
			touched[a.AssetClass] = make(map[int]bool)
		}
		touched[a.AssetClass][a.SchemeCode] = true
	}
	for _, funds := range touched {
		assert.LessOrEqual(t, len(funds), 1)
	}
}

func TestOptimizeInfeasibleWhenNoEligibleFunds(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 100000},
	}
	target := domain.Allocation{
		domain.AssetClassEquity: 0.5,
		domain.AssetClassGold:   0.5,
	}

	_, err := svc.Optimize(holdings, target, Constraints{})
	require.Error(t, err)
	assert.True(t, domain.IsInfeasibleConstraintsError(err))
	assert.Contains(t, err.Error(), "gold")
}

func TestOptimizeExclusionsCauseInfeasibility(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 100000},
	}

	_, err := svc.Optimize(holdings, balancedTarget(), Constraints{ExcludeFunds: []int{201}})
	require.Error(t, err)
	assert.True(t, domain.IsInfeasibleConstraintsError(err))
}

func TestOptimizeEmptyHoldings(t *testing.T) {
	svc := newTestService()

	_, err := svc.Optimize(nil, balancedTarget(), Constraints{})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestOptimizeValuesUnitsFromUniverse(t *testing.T) {
	svc := newTestService()

	// Units-only equity position valued at units × NAV (800 × 100)
	holdings := []domain.Holding{
		{SchemeCode: 101, Units: 800},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, CurrentValue: 20000},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Actions)

	var sellTotal float64
	for _, a := range plan.Actions {
		if a.Direction == DirectionSell {
			assert.Equal(t, domain.AssetClassEquity, a.AssetClass)
			sellTotal += a.Amount
		}
	}
	// 80000/20000 against 60/40 means 20000 of equity to sell
	assert.InDelta(t, 20000, sellTotal, 1.0)
}

func TestOptimizeDefaultMinimumInvestment(t *testing.T) {
	svc := NewService(testFundSource(), 0.02, 500, zerolog.Nop())

	// Debt underweight by 300; the service floor lifts the buy to 500
	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 6300},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, CurrentValue: 3700},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)

	var buys int
	for _, a := range plan.Actions {
		if a.Direction == DirectionBuy {
			buys++
			assert.GreaterOrEqual(t, a.Amount, 500.0)
		}
	}
	assert.Positive(t, buys)
}

func TestApplyTurnoverCapDropsSmallestDeviation(t *testing.T) {
	actions := []RebalanceAction{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, Direction: DirectionSell, Amount: 1000, Deviation: 0.3},
		{SchemeCode: 102, AssetClass: domain.AssetClassEquity, Direction: DirectionSell, Amount: 9000, Deviation: 0.3},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, Direction: DirectionBuy, Amount: 6000, Deviation: -0.25},
		{SchemeCode: 301, AssetClass: domain.AssetClassGold, Direction: DirectionBuy, Amount: 4000, Deviation: -0.05},
	}

	capped := applyTurnoverCap(actions, 3)
	require.Len(t, capped, 3)

	// The gold buy addresses the smallest drift and is removed, even
	// though the 1000 equity sell is the smallest amount.
	var sellTotal, buyTotal float64
	for _, a := range capped {
		assert.NotEqual(t, domain.AssetClassGold, a.AssetClass)
		switch a.Direction {
		case DirectionSell:
			sellTotal += a.Amount
		case DirectionBuy:
			buyTotal += a.Amount
		}
	}
	assert.InDelta(t, sellTotal, buyTotal, 1e-9)
	assert.InDelta(t, 6000, buyTotal, 1e-9)
}

func TestApplyTurnoverCapMergesSameClassActions(t *testing.T) {
	actions := []RebalanceAction{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, Direction: DirectionSell, Amount: 10000, Deviation: 0.2},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, Direction: DirectionBuy, Amount: 7000, Deviation: -0.1},
		{SchemeCode: 202, AssetClass: domain.AssetClassDebt, Direction: DirectionBuy, Amount: 3000, Deviation: -0.1},
	}

	capped := applyTurnoverCap(actions, 2)
	require.Len(t, capped, 2)

	var sellTotal, buyTotal float64
	for _, a := range capped {
		switch a.Direction {
		case DirectionSell:
			sellTotal += a.Amount
		case DirectionBuy:
			buyTotal += a.Amount
		}
	}
	// The small debt buy merges into the larger one
	assert.InDelta(t, 10000, buyTotal, 1e-9)
	assert.InDelta(t, sellTotal, buyTotal, 1e-9)
}

func TestOptimizePriorityOrdering(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 101, AssetClass: domain.AssetClassEquity, CurrentValue: 90000},
		{SchemeCode: 201, AssetClass: domain.AssetClassDebt, CurrentValue: 10000},
	}

	plan, err := svc.Optimize(holdings, balancedTarget(), Constraints{})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Actions)

	for i, a := range plan.Actions {
		assert.Equal(t, i+1, a.Priority)
	}
}
