package recommendation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthnest/engine/internal/domain"
	"github.com/wealthnest/engine/internal/modules/universe"
)

type staticFundSource struct {
	funds map[domain.AssetClass][]universe.Fund
}

func (s *staticFundSource) ByAssetClass(ac domain.AssetClass) ([]universe.Fund, error) {
	return s.funds[ac], nil
}

func ptr(v float64) *float64 { return &v }

func equityFunds() []universe.Fund {
	return []universe.Fund{
		{
			SchemeCode: 101, SchemeName: "Alpha Large Cap", Category: "Large Cap Fund", AssetClass: domain.AssetClassEquity,
			NAV: 50, SharpeRatio: ptr(1.2), Return3Y: ptr(15.0), ExpenseRatio: ptr(0.5),
		},
		{
			SchemeCode: 102, SchemeName: "Beta Flexi Cap", Category: "Flexi Cap Fund", AssetClass: domain.AssetClassEquity,
			NAV: 40, SharpeRatio: ptr(0.9), Return3Y: ptr(12.0), ExpenseRatio: ptr(0.8),
		},
		{
			SchemeCode: 103, SchemeName: "Gamma Mid Cap", Category: "Mid Cap Fund", AssetClass: domain.AssetClassEquity,
			NAV: 30, SharpeRatio: ptr(1.0), Return3Y: ptr(18.0), ExpenseRatio: ptr(1.1),
		},
		{
			SchemeCode: 104, SchemeName: "Delta Small Cap", Category: "Small Cap Fund", AssetClass: domain.AssetClassEquity,
			NAV: 20, SharpeRatio: ptr(0.6), Return3Y: ptr(10.0), ExpenseRatio: ptr(1.5),
		},
	}
}

func debtFunds() []universe.Fund {
	return []universe.Fund{
		{
			SchemeCode: 201, SchemeName: "Secure Bond", Category: "Corporate Bond Fund", AssetClass: domain.AssetClassDebt,
			NAV: 25, SharpeRatio: ptr(0.8), Return3Y: ptr(7.0), ExpenseRatio: ptr(0.3),
		},
		{
			SchemeCode: 202, SchemeName: "Gilt Edge", Category: "Gilt Fund", AssetClass: domain.AssetClassDebt,
			NAV: 28, SharpeRatio: ptr(0.7), Return3Y: ptr(6.5), ExpenseRatio: ptr(0.4),
		},
	}
}

func newTestService() *Service {
	return NewService(&staticFundSource{funds: map[domain.AssetClass][]universe.Fund{
		domain.AssetClassEquity: equityFunds(),
		domain.AssetClassDebt:   debtFunds(),
	}}, zerolog.Nop())
}

func TestRecommendReconcilesExactly(t *testing.T) {
	svc := newTestService()

	target := domain.Allocation{
		domain.AssetClassEquity: 0.70,
		domain.AssetClassDebt:   0.30,
	}

	recs, breakdown, err := svc.Recommend(target, 100000, 3, nil, nil)
	require.NoError(t, err)

	total := 0.0
	for _, r := range recs {
		total += r.SuggestedAmount
	}
	assert.InDelta(t, 100000, total, 1e-9)

	// Class shares track the target weights
	byClass := make(map[domain.AssetClass]float64)
	for _, b := range breakdown {
		byClass[b.AssetClass] = b.TotalAmount
	}
	assert.InDelta(t, 70000, byClass[domain.AssetClassEquity], 1.0)
	assert.InDelta(t, 30000, byClass[domain.AssetClassDebt], 1.0)
}

func TestRecommendOrdering(t *testing.T) {
	svc := newTestService()

	target := domain.Allocation{
		domain.AssetClassEquity: 0.7,
		domain.AssetClassDebt:   0.3,
	}

	recs, _, err := svc.Recommend(target, 100000, 3, nil, nil)
	require.NoError(t, err)
	require.Len(t, recs, 5) // 3 equity + 2 debt

	// Grouped by descending class weight, equity first
	assert.Equal(t, domain.AssetClassEquity, recs[0].AssetClass)
	assert.Equal(t, domain.AssetClassEquity, recs[2].AssetClass)
	assert.Equal(t, domain.AssetClassDebt, recs[3].AssetClass)

	// Descending score within each class
	assert.GreaterOrEqual(t, recs[0].Score, recs[1].Score)
	assert.GreaterOrEqual(t, recs[1].Score, recs[2].Score)
	assert.GreaterOrEqual(t, recs[3].Score, recs[4].Score)
}

func TestRecommendTopNCapsBucket(t *testing.T) {
	svc := newTestService()

	recs, _, err := svc.Recommend(domain.Allocation{domain.AssetClassEquity: 1.0}, 50000, 2, nil, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// Smaller bucket than topN returns what exists, never fabricates
	recs, _, err = svc.Recommend(domain.Allocation{domain.AssetClassDebt: 1.0}, 50000, 5, nil, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecommendEmptyUniverse(t *testing.T) {
	svc := newTestService()

	target := domain.Allocation{
		domain.AssetClassEquity: 0.7,
		domain.AssetClassGold:   0.3,
	}

	_, _, err := svc.Recommend(target, 100000, 3, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsEmptyUniverseError(err))
	assert.Contains(t, err.Error(), "gold")
}

func TestRecommendExclusionsCanEmptyABucket(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Recommend(
		domain.Allocation{domain.AssetClassDebt: 1.0},
		50000, 3, nil,
		[]int{201, 202},
	)
	require.Error(t, err)
	assert.True(t, domain.IsEmptyUniverseError(err))
}

func TestRecommendCategoryFilters(t *testing.T) {
	svc := newTestService()
	target := domain.Allocation{domain.AssetClassEquity: 1.0}

	recs, _, err := svc.Recommend(target, 50000, 3, []string{"large cap"}, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 101, recs[0].SchemeCode)

	_, _, err = svc.Recommend(target, 50000, 3, []string{"Sectoral"}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsEmptyUniverseError(err))
}

func TestRecommendNormalizesPercentageInputs(t *testing.T) {
	svc := newTestService()

	// Percent-style weights (70/30) behave like fractions
	recs, breakdown, err := svc.Recommend(domain.Allocation{
		domain.AssetClassEquity: 70,
		domain.AssetClassDebt:   30,
	}, 100000, 3, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	for _, b := range breakdown {
		if b.AssetClass == domain.AssetClassEquity {
			assert.InDelta(t, 0.7, b.TargetAllocation, 1e-9)
		}
	}
}

func TestRecommendValidation(t *testing.T) {
	svc := newTestService()
	target := domain.Allocation{domain.AssetClassEquity: 1.0}

	_, _, err := svc.Recommend(target, 0, 3, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, _, err = svc.Recommend(target, 10000, 0, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, _, err = svc.Recommend(domain.Allocation{}, 10000, 3, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestScoreBucketNormalization(t *testing.T) {
	scored := ScoreBucket(equityFunds())
	require.Len(t, scored, 4)

	// Alpha has the best sharpe and expense, second-best return
	assert.Equal(t, 101, scored[0].Fund.SchemeCode)
	// Delta is worst on every metric
	assert.Equal(t, 104, scored[3].Fund.SchemeCode)

	for _, sf := range scored {
		assert.GreaterOrEqual(t, sf.Score, 0.0)
		assert.LessOrEqual(t, sf.Score, 1.0)
	}
}

func TestScoreBucketMissingMetrics(t *testing.T) {
	funds := []universe.Fund{
		{SchemeCode: 1, SharpeRatio: ptr(1.5), Return3Y: ptr(15), ExpenseRatio: ptr(0.5)},
		{SchemeCode: 2}, // no history at all
	}

	scored := ScoreBucket(funds)
	require.Len(t, scored, 2)

	// The unknown fund sits mid-bucket, it neither wins nor disappears
	for _, sf := range scored {
		assert.GreaterOrEqual(t, sf.Score, 0.0)
	}
}

func TestBuildReasoningMentionsMetrics(t *testing.T) {
	f := equityFunds()[0]
	reasoning := buildReasoning(f, 1)

	assert.Contains(t, reasoning, "sharpe ratio 1.20")
	assert.Contains(t, reasoning, "3y return 15.0%")
	assert.Contains(t, reasoning, "expense ratio 0.50%")
	assert.Contains(t, reasoning, "#1")
}
