// Package risk scores portfolios for concentration, volatility and
// drift from the investor's target allocation.
package risk

// ModelVersion tags risk responses so admin tooling can correlate
// output with the scoring recipe that produced it.
const ModelVersion = "risk-profile-1.0.0"

// Risk levels, ordered from calmest to most aggressive.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
)

// Assessment is the result of scoring one portfolio.
type Assessment struct {
	RiskLevel        string   `json:"risk_level"`
	RiskScore        float64  `json:"risk_score"`
	RiskFactors      []string `json:"risk_factors"`
	Recommendations  []string `json:"recommendations"`
	PersonaAlignment float64  `json:"persona_alignment"`
}
