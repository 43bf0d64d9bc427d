package personas

import (
	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
)

// DefaultPersonas returns the three stock archetypes the engine ships
// with. Admin tooling can edit or extend them later; the engine only
// needs at least one active persona to classify against.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Slug:        "capital-guardian",
			Name:        "Capital Guardian",
			Description: "Shorter horizon with higher liquidity needs. Focused on capital stability and drawdown protection.",
			RiskBand:    RiskBandCapitalProtection,
			TargetAllocation: domain.Allocation{
				domain.AssetClassEquity: 0.30,
				domain.AssetClassDebt:   0.55,
				domain.AssetClassHybrid: 0.10,
				domain.AssetClassGold:   0.03,
				domain.AssetClassLiquid: 0.02,
			},
			ExpectedReturnMin: 0.06,
			ExpectedReturnMax: 0.09,
			VolatilityBand:    "low",
			RebalanceFreq:     "quarterly",
			DisplayOrder:      1,
			IsActive:          true,
		},
		{
			Slug:        "balanced-voyager",
			Name:        "Balanced Voyager",
			Description: "Mid-term goals with steady cash flow. Balanced across equity and debt to smooth volatility.",
			RiskBand:    RiskBandBalancedGrowth,
			TargetAllocation: domain.Allocation{
				domain.AssetClassEquity:        0.50,
				domain.AssetClassDebt:          0.28,
				domain.AssetClassHybrid:        0.12,
				domain.AssetClassGold:          0.03,
				domain.AssetClassInternational: 0.04,
				domain.AssetClassLiquid:        0.03,
			},
			ExpectedReturnMin: 0.09,
			ExpectedReturnMax: 0.12,
			VolatilityBand:    "medium",
			RebalanceFreq:     "quarterly",
			DisplayOrder:      2,
			IsActive:          true,
		},
		{
			Slug:        "accelerated-builder",
			Name:        "Accelerated Builder",
			Description: "Long horizon, high income stability, and strong volatility tolerance place this investor in an aggressive growth band with equity-heavy bias.",
			RiskBand:    RiskBandAcceleratedGrowth,
			TargetAllocation: domain.Allocation{
				domain.AssetClassEquity:        0.75,
				domain.AssetClassDebt:          0.10,
				domain.AssetClassHybrid:        0.08,
				domain.AssetClassGold:          0.02,
				domain.AssetClassInternational: 0.05,
			},
			ExpectedReturnMin: 0.12,
			ExpectedReturnMax: 0.16,
			VolatilityBand:    "high",
			RebalanceFreq:     "semi-annual",
			DisplayOrder:      3,
			IsActive:          true,
		},
	}
}

// SeedDefaults writes the stock personas into an empty catalog.
// A catalog that already has personas is left untouched, so admin
// edits survive restarts.
func SeedDefaults(repo *Repository, log zerolog.Logger) error {
	count, err := repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range DefaultPersonas() {
		if err := repo.Upsert(p); err != nil {
			return err
		}
	}

	log.Info().Int("count", len(DefaultPersonas())).Msg("Seeded default personas")
	return nil
}
