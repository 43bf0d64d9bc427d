package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthnest/engine/internal/domain"
)

func testVectors() map[string]domain.Allocation {
	return map[string]domain.Allocation{
		"accelerated-builder": {
			domain.AssetClassEquity:        0.75,
			domain.AssetClassDebt:          0.10,
			domain.AssetClassHybrid:        0.08,
			domain.AssetClassGold:          0.02,
			domain.AssetClassInternational: 0.05,
		},
		"balanced-voyager": {
			domain.AssetClassEquity:        0.50,
			domain.AssetClassDebt:          0.28,
			domain.AssetClassHybrid:        0.12,
			domain.AssetClassGold:          0.03,
			domain.AssetClassInternational: 0.04,
			domain.AssetClassLiquid:        0.03,
		},
	}
}

func TestBlendWeightedAverage(t *testing.T) {
	distribution := map[string]float64{
		"accelerated-builder": 0.8,
		"balanced-voyager":    0.2,
	}

	blended, err := Blend(distribution, testVectors())
	require.NoError(t, err)

	assert.InDelta(t, 0.70, blended[domain.AssetClassEquity], 1e-9)
	assert.InDelta(t, 0.136, blended[domain.AssetClassDebt], 1e-9)
	assert.InDelta(t, 1.0, blended.Sum(), domain.SumTolerance)
}

func TestBlendOutputSumsToOne(t *testing.T) {
	distributions := []map[string]float64{
		{"accelerated-builder": 1.0},
		{"accelerated-builder": 0.5, "balanced-voyager": 0.5},
		{"accelerated-builder": 0.33, "balanced-voyager": 0.67},
		// Drifted inputs get rescaled, not rejected
		{"accelerated-builder": 0.4, "balanced-voyager": 0.61},
	}

	for _, dist := range distributions {
		blended, err := Blend(dist, testVectors())
		require.NoError(t, err)
		assert.InDelta(t, 1.0, blended.Sum(), domain.SumTolerance)
	}
}

func TestBlendIsIdempotent(t *testing.T) {
	distribution := map[string]float64{
		"accelerated-builder": 0.6,
		"balanced-voyager":    0.4,
	}

	first, err := Blend(distribution, testVectors())
	require.NoError(t, err)
	second, err := Blend(distribution, testVectors())
	require.NoError(t, err)

	assert.InDelta(t, 0.0, first.L1Distance(second), 1e-12)
}

func TestBlendClampsNegativeWeights(t *testing.T) {
	distribution := map[string]float64{
		"accelerated-builder": 1.0,
		"balanced-voyager":    -0.2,
	}

	blended, err := Blend(distribution, testVectors())
	require.NoError(t, err)

	// The negative weight is clamped, leaving a pure builder allocation
	assert.InDelta(t, 0.75, blended[domain.AssetClassEquity], 1e-9)
}

func TestBlendErrors(t *testing.T) {
	vectors := testVectors()

	_, err := Blend(nil, vectors)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, err = Blend(map[string]float64{"accelerated-builder": 0}, vectors)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, err = Blend(map[string]float64{"unknown-persona": 1.0}, vectors)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}
