package universe

import (
	"github.com/wealthnest/engine/internal/domain"
)

// ResolveHoldings enriches caller-supplied holdings against a universe
// snapshot. A holding that arrives with units but no market value is
// valued at units × NAV; asset class and scheme name come from the
// fund record. Schemes missing from the universe keep whatever the
// caller sent, defaulting to equity the way the category mapper does.
func ResolveHoldings(holdings []domain.Holding, funds []Fund) []domain.Holding {
	byCode := make(map[int]Fund, len(funds))
	for _, f := range funds {
		byCode[f.SchemeCode] = f
	}

	resolved := make([]domain.Holding, 0, len(holdings))
	for _, h := range holdings {
		if f, ok := byCode[h.SchemeCode]; ok {
			if h.CurrentValue <= 0 && h.Units > 0 && f.NAV > 0 {
				h.CurrentValue = h.Units * f.NAV
			}
			ac := f.AssetClass
			if ac == "" {
				ac = domain.AssetClassForCategory(f.Category)
			}
			h.AssetClass = ac
			if h.SchemeName == "" {
				h.SchemeName = f.SchemeName
			}
		} else if h.AssetClass == "" {
			h.AssetClass = domain.AssetClassEquity
		}
		resolved = append(resolved, h)
	}
	return resolved
}
