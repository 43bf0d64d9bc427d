// Package personas provides the persona catalog: named investor
// archetypes, each carrying a canonical target allocation over asset
// classes. The catalog is read-mostly; admin tooling owns CRUD.
package personas

import (
	"time"

	"github.com/wealthnest/engine/internal/domain"
)

// RiskBand groups personas by how much drawdown their allocation accepts.
type RiskBand string

const (
	RiskBandCapitalProtection RiskBand = "CapitalProtection"
	RiskBandBalancedGrowth    RiskBand = "BalancedGrowth"
	RiskBandAcceleratedGrowth RiskBand = "AcceleratedGrowth"
)

// Persona is one investor archetype from the catalog.
type Persona struct {
	Slug              string            `json:"slug"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	RiskBand          RiskBand          `json:"risk_band"`
	TargetAllocation  domain.Allocation `json:"target_allocation"`
	ExpectedReturnMin float64           `json:"expected_return_min"`
	ExpectedReturnMax float64           `json:"expected_return_max"`
	VolatilityBand    string            `json:"volatility_band"`
	RebalanceFreq     string            `json:"rebalance_frequency"`
	DisplayOrder      int               `json:"display_order"`
	IsActive          bool              `json:"is_active"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Validate checks the persona is usable by the classifier and blender.
func (p *Persona) Validate() error {
	if p.Slug == "" {
		return domain.NewValidationError("slug", "persona slug is required")
	}
	if _, err := p.TargetAllocation.Normalized(); err != nil {
		return err
	}
	if !p.TargetAllocation.IsNormalized() {
		return domain.NewValidationError(p.Slug, "target allocation does not sum to 1")
	}
	return nil
}
