package domain

// Holding is one position in an investor's current portfolio, owned by
// the external portfolio ledger. The engine only reads it.
type Holding struct {
	SchemeCode   int        `json:"scheme_code"`
	SchemeName   string     `json:"scheme_name,omitempty"`
	AssetClass   AssetClass `json:"asset_class,omitempty"`
	Units        float64    `json:"units"`
	CurrentValue float64    `json:"current_value"`
}

// HoldingsTotal sums the market value across holdings.
func HoldingsTotal(holdings []Holding) float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.CurrentValue
	}
	return total
}

// HoldingsAllocation computes the actual allocation vector from
// holdings' market values. Returns a zero-value allocation and false
// when total value is zero, so callers can report "no holdings"
// instead of dividing by zero.
func HoldingsAllocation(holdings []Holding) (Allocation, bool) {
	total := HoldingsTotal(holdings)
	if total <= 0 {
		return Allocation{}, false
	}

	actual := make(Allocation)
	for _, h := range holdings {
		actual[h.AssetClass] += h.CurrentValue / total
	}
	return actual, true
}
