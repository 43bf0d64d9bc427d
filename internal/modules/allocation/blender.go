// Package allocation blends persona target allocations into a single
// target vector using classification probabilities as weights.
package allocation

import (
	"math"

	"github.com/wealthnest/engine/internal/domain"
)

// Blend computes the weighted average of persona allocation vectors:
// blended[class] = Σ distribution[slug] × vectors[slug][class].
//
// The distribution is clamped (negative weights to zero) and rescaled
// before use so floating drift never surfaces as an error; truly bad
// inputs (all-zero distribution, unknown persona slugs) do.
// Pure and order-independent: the same inputs always give the same vector.
func Blend(distribution map[string]float64, vectors map[string]domain.Allocation) (domain.Allocation, error) {
	if len(distribution) == 0 {
		return nil, domain.NewValidationError("distribution", "persona distribution is empty")
	}

	// Clamp negatives, then rescale to sum 1
	total := 0.0
	for _, w := range distribution {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return nil, domain.NewValidationError("distribution", "persona weights sum to zero")
	}

	blended := make(domain.Allocation)
	for slug, weight := range distribution {
		if weight <= 0 {
			continue
		}
		vector, ok := vectors[slug]
		if !ok {
			return nil, domain.NewValidationError(slug, "no allocation vector for persona")
		}
		w := weight / total
		for ac, classWeight := range vector {
			blended[ac] += w * classWeight
		}
	}

	// Persona vectors are normalized, so the blend should already sum
	// to 1. Rescale anyway to absorb accumulated floating error.
	if math.Abs(blended.Sum()-1.0) > domain.SumTolerance {
		normalized, err := blended.Normalized()
		if err != nil {
			return nil, err
		}
		blended = normalized
	}

	return blended, nil
}
