// Package recommendation turns a blended target allocation and the
// fund universe into ranked, amount-weighted fund recommendations.
package recommendation

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/wealthnest/engine/internal/modules/universe"
)

// Composite score weights. Sharpe carries the most signal for
// risk-adjusted quality, the 3y return rewards consistency, and the
// expense ratio penalizes cost drag.
const (
	weightSharpe   = 0.40
	weightReturn3Y = 0.35
	weightExpense  = 0.25
)

// missingMetricScore is the normalized value assigned to funds without
// history for a metric: the bucket midpoint, so unknown funds neither
// dominate nor vanish.
const missingMetricScore = 0.5

// ScoredFund pairs a fund with its composite quality score.
type ScoredFund struct {
	Fund  universe.Fund
	Score float64
}

// ScoreBucket computes composite scores for one asset-class bucket.
// Metrics are min-max normalized to [0,1] within the bucket, so scores
// are comparable across asset classes with different raw scales.
// Result is sorted by descending score, ties broken by scheme code.
func ScoreBucket(funds []universe.Fund) []ScoredFund {
	if len(funds) == 0 {
		return nil
	}

	sharpe := normalizeMetric(funds, func(f universe.Fund) *float64 { return f.SharpeRatio })
	return3y := normalizeMetric(funds, func(f universe.Fund) *float64 { return f.Return3Y })
	expense := normalizeMetric(funds, func(f universe.Fund) *float64 { return f.ExpenseRatio })

	scored := make([]ScoredFund, len(funds))
	for i, f := range funds {
		score := weightSharpe*sharpe[i] + weightReturn3Y*return3y[i] - weightExpense*expense[i]
		if score < 0 {
			score = 0
		}
		scored[i] = ScoredFund{Fund: f, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Fund.SchemeCode < scored[j].Fund.SchemeCode
	})

	return scored
}

// normalizeMetric min-max normalizes one metric across the bucket.
// Funds missing the metric get the bucket midpoint.
func normalizeMetric(funds []universe.Fund, metric func(universe.Fund) *float64) []float64 {
	var present []float64
	for _, f := range funds {
		if v := metric(f); v != nil {
			present = append(present, *v)
		}
	}

	out := make([]float64, len(funds))
	if len(present) == 0 {
		for i := range out {
			out[i] = missingMetricScore
		}
		return out
	}

	min := floats.Min(present)
	max := floats.Max(present)
	span := max - min

	for i, f := range funds {
		v := metric(f)
		switch {
		case v == nil:
			out[i] = missingMetricScore
		case span == 0:
			// Every fund has the same value, metric carries no signal
			out[i] = missingMetricScore
		default:
			out[i] = (*v - min) / span
		}
	}
	return out
}

// buildReasoning assembles the human-readable justification string
// from whichever metrics the fund actually has.
func buildReasoning(f universe.Fund, rank int) string {
	var parts []string

	if f.SharpeRatio != nil {
		parts = append(parts, fmt.Sprintf("sharpe ratio %.2f", *f.SharpeRatio))
	}
	if f.Return3Y != nil {
		parts = append(parts, fmt.Sprintf("3y return %.1f%%", *f.Return3Y))
	}
	if f.ExpenseRatio != nil {
		parts = append(parts, fmt.Sprintf("expense ratio %.2f%%", *f.ExpenseRatio))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Ranked #%d in %s by composite quality score", rank, f.AssetClass)
	}
	return fmt.Sprintf("Ranked #%d in %s: %s", rank, f.AssetClass, strings.Join(parts, ", "))
}
