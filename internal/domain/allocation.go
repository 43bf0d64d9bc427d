package domain

import (
	"math"
	"sort"
)

// SumTolerance is the slack allowed when checking that an allocation
// sums to 1. Vectors further out than this must be normalized (or
// rejected) before use.
const SumTolerance = 1e-6

// Allocation is a weight vector over asset classes.
// Missing keys are treated as zero weight.
type Allocation map[AssetClass]float64

// Sum returns the total weight across all asset classes.
func (a Allocation) Sum() float64 {
	total := 0.0
	for _, w := range a {
		total += w
	}
	return total
}

// IsNormalized reports whether the weights sum to 1 within SumTolerance.
func (a Allocation) IsNormalized() bool {
	return math.Abs(a.Sum()-1.0) <= SumTolerance
}

// Normalized returns a copy rescaled so the weights sum to exactly 1.
// Returns a ValidationError for negative weights or a zero-sum vector,
// since neither can represent a portfolio.
func (a Allocation) Normalized() (Allocation, error) {
	total := 0.0
	for ac, w := range a {
		if w < 0 {
			return nil, NewValidationError(ac.String(), "allocation weight is negative")
		}
		total += w
	}
	if total <= 0 {
		return nil, NewValidationError("", "allocation weights sum to zero")
	}

	out := make(Allocation, len(a))
	for ac, w := range a {
		out[ac] = w / total
	}
	return out, nil
}

// Clone returns an independent copy of the allocation.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for ac, w := range a {
		out[ac] = w
	}
	return out
}

// L1Distance returns the total absolute difference between two
// allocations across the union of their asset classes.
func (a Allocation) L1Distance(b Allocation) float64 {
	total := 0.0
	for _, ac := range AllAssetClasses {
		total += math.Abs(a[ac] - b[ac])
	}
	return total
}

// SortedClasses returns the asset classes with non-zero weight,
// ordered by descending weight. Ties break on canonical class order
// so output is deterministic.
func (a Allocation) SortedClasses() []AssetClass {
	rank := make(map[AssetClass]int, len(AllAssetClasses))
	for i, ac := range AllAssetClasses {
		rank[ac] = i
	}

	var classes []AssetClass
	for _, ac := range AllAssetClasses {
		if a[ac] > 0 {
			classes = append(classes, ac)
		}
	}
	sort.SliceStable(classes, func(i, j int) bool {
		if a[classes[i]] != a[classes[j]] {
			return a[classes[i]] > a[classes[j]]
		}
		return rank[classes[i]] < rank[classes[j]]
	})
	return classes
}

// NormalizeFraction converts percentage-style inputs to fractions.
// Upstream collaborators send allocation weights both as fractions
// (0.75) and as percentages (75); anything above 1 is treated as a
// percentage and divided by 100.
func NormalizeFraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}
