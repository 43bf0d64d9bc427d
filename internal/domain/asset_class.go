// Package domain holds the types shared by every engine module: asset
// classes, allocation vectors, and the error taxonomy surfaced to callers.
package domain

import (
	"fmt"
	"strings"
)

// AssetClass identifies one of the closed set of asset buckets
// every allocation vector is keyed by.
type AssetClass string

const (
	AssetClassEquity        AssetClass = "equity"
	AssetClassDebt          AssetClass = "debt"
	AssetClassHybrid        AssetClass = "hybrid"
	AssetClassGold          AssetClass = "gold"
	AssetClassInternational AssetClass = "international"
	AssetClassLiquid        AssetClass = "liquid"
)

// AllAssetClasses lists every asset class in canonical display order.
var AllAssetClasses = []AssetClass{
	AssetClassEquity,
	AssetClassDebt,
	AssetClassHybrid,
	AssetClassGold,
	AssetClassInternational,
	AssetClassLiquid,
}

// ParseAssetClass converts a string into an AssetClass.
// Returns an error for anything outside the closed set.
func ParseAssetClass(s string) (AssetClass, error) {
	ac := AssetClass(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllAssetClasses {
		if ac == known {
			return ac, nil
		}
	}
	return "", fmt.Errorf("unknown asset class: %q", s)
}

// IsValid reports whether the asset class belongs to the closed set.
func (a AssetClass) IsValid() bool {
	_, err := ParseAssetClass(string(a))
	return err == nil
}

func (a AssetClass) String() string {
	return string(a)
}

// categoryAssetClass maps SEBI scheme categories to asset classes.
var categoryAssetClass = map[string]AssetClass{
	// Equity
	"Large Cap Fund":       AssetClassEquity,
	"Large & Mid Cap Fund": AssetClassEquity,
	"Mid Cap Fund":         AssetClassEquity,
	"Small Cap Fund":       AssetClassEquity,
	"Multi Cap Fund":       AssetClassEquity,
	"Flexi Cap Fund":       AssetClassEquity,
	"Focused Fund":         AssetClassEquity,
	"ELSS":                 AssetClassEquity,
	"Value Fund":           AssetClassEquity,
	"Contra Fund":          AssetClassEquity,
	"Dividend Yield Fund":  AssetClassEquity,
	"Sectoral/Thematic":    AssetClassEquity,
	// Debt
	"Liquid Fund":                              AssetClassLiquid,
	"Ultra Short Duration Fund":                AssetClassDebt,
	"Low Duration Fund":                        AssetClassDebt,
	"Short Duration Fund":                      AssetClassDebt,
	"Medium Duration Fund":                     AssetClassDebt,
	"Medium to Long Duration Fund":             AssetClassDebt,
	"Long Duration Fund":                       AssetClassDebt,
	"Dynamic Bond Fund":                        AssetClassDebt,
	"Corporate Bond Fund":                      AssetClassDebt,
	"Credit Risk Fund":                         AssetClassDebt,
	"Banking and PSU Fund":                     AssetClassDebt,
	"Gilt Fund":                                AssetClassDebt,
	"Gilt Fund with 10 year constant duration": AssetClassDebt,
	"Floater Fund":                             AssetClassDebt,
	"Money Market Fund":                        AssetClassLiquid,
	"Overnight Fund":                           AssetClassLiquid,
	// Hybrid
	"Aggressive Hybrid Fund":      AssetClassHybrid,
	"Conservative Hybrid Fund":    AssetClassHybrid,
	"Balanced Advantage Fund":     AssetClassHybrid,
	"Multi Asset Allocation Fund": AssetClassHybrid,
	"Arbitrage Fund":              AssetClassHybrid,
	"Equity Savings Fund":         AssetClassHybrid,
	// Gold
	"Gold":     AssetClassGold,
	"Gold ETF": AssetClassGold,
	// International
	"International":            AssetClassInternational,
	"Fund of Funds (Overseas)": AssetClassInternational,
}

// AssetClassForCategory resolves a scheme category to an asset class.
// Exact match first, then substring match against known categories,
// then keyword fallback. Unrecognized categories default to equity,
// matching how the upstream feed tags them.
func AssetClassForCategory(category string) AssetClass {
	if ac, ok := categoryAssetClass[category]; ok {
		return ac
	}

	lower := strings.ToLower(category)
	for key, ac := range categoryAssetClass {
		if strings.Contains(lower, strings.ToLower(key)) {
			return ac
		}
	}

	switch {
	case strings.Contains(lower, "liquid"), strings.Contains(lower, "money"), strings.Contains(lower, "overnight"):
		return AssetClassLiquid
	case strings.Contains(lower, "equity"), strings.Contains(lower, "cap"):
		return AssetClassEquity
	case strings.Contains(lower, "debt"), strings.Contains(lower, "bond"), strings.Contains(lower, "gilt"):
		return AssetClassDebt
	case strings.Contains(lower, "hybrid"), strings.Contains(lower, "balanced"):
		return AssetClassHybrid
	case strings.Contains(lower, "gold"):
		return AssetClassGold
	case strings.Contains(lower, "international"), strings.Contains(lower, "overseas"), strings.Contains(lower, "global"):
		return AssetClassInternational
	}

	return AssetClassEquity
}
