package risk

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthnest/engine/internal/domain"
)

func newTestService() *Service {
	return NewService(zerolog.Nop())
}

func TestAssessDiversifiedDefensivePortfolioIsLow(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 1, AssetClass: domain.AssetClassEquity, CurrentValue: 30000},
		{SchemeCode: 2, AssetClass: domain.AssetClassDebt, CurrentValue: 35000},
		{SchemeCode: 3, AssetClass: domain.AssetClassDebt, CurrentValue: 20000},
		{SchemeCode: 4, AssetClass: domain.AssetClassLiquid, CurrentValue: 15000},
	}
	target := domain.Allocation{
		domain.AssetClassEquity: 0.3,
		domain.AssetClassDebt:   0.55,
		domain.AssetClassLiquid: 0.15,
	}

	a, err := svc.Assess(holdings, nil, target)
	require.NoError(t, err)
	assert.Equal(t, LevelLow, a.RiskLevel)
	assert.Empty(t, a.RiskFactors)
	assert.InDelta(t, 1.0, a.PersonaAlignment, 1e-9)
}

func TestAssessConcentratedEquityIsHigh(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 1, AssetClass: domain.AssetClassEquity, CurrentValue: 90000},
		{SchemeCode: 2, AssetClass: domain.AssetClassDebt, CurrentValue: 10000},
	}
	target := domain.Allocation{
		domain.AssetClassEquity: 0.4,
		domain.AssetClassDebt:   0.6,
	}

	a, err := svc.Assess(holdings, nil, target)
	require.NoError(t, err)
	assert.Equal(t, LevelHigh, a.RiskLevel)
	assert.NotEmpty(t, a.RiskFactors)
	assert.NotEmpty(t, a.Recommendations)
	assert.Less(t, a.PersonaAlignment, 1.0)
}

func TestAssessFlagsSingleFundConcentration(t *testing.T) {
	svc := newTestService()

	holdings := []domain.Holding{
		{SchemeCode: 1, AssetClass: domain.AssetClassDebt, CurrentValue: 60000},
		{SchemeCode: 2, AssetClass: domain.AssetClassDebt, CurrentValue: 40000},
	}

	a, err := svc.Assess(holdings, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, a.RiskFactors)
	assert.Contains(t, a.RiskFactors[0], "60% of the portfolio")
}

func TestAssessProposedPortfolioWins(t *testing.T) {
	svc := newTestService()

	current := []domain.Holding{
		{SchemeCode: 1, AssetClass: domain.AssetClassDebt, CurrentValue: 50000},
		{SchemeCode: 2, AssetClass: domain.AssetClassLiquid, CurrentValue: 50000},
	}
	proposed := []domain.Holding{
		{SchemeCode: 3, AssetClass: domain.AssetClassEquity, CurrentValue: 60000},
		{SchemeCode: 4, AssetClass: domain.AssetClassEquity, CurrentValue: 40000},
	}

	a, err := svc.Assess(current, proposed, nil)
	require.NoError(t, err)

	// All-equity proposal against an all-defensive book: the shift in
	// volatile exposure is called out.
	found := false
	for _, f := range a.RiskFactors {
		if strings.Contains(f, "volatile exposure") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssessEmptyPortfolio(t *testing.T) {
	svc := newTestService()

	_, err := svc.Assess(nil, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, LevelLow, levelFor(0.34))
	assert.Equal(t, LevelModerate, levelFor(0.35))
	assert.Equal(t, LevelModerate, levelFor(0.64))
	assert.Equal(t, LevelHigh, levelFor(0.65))
}
