// Package classifier maps investor feature vectors to a probability
// distribution over the persona catalog. Rules are data, not code: a
// declarative rule table scores each persona, and a smoothing term
// keeps the distribution away from hard 0/1 lock-in.
package classifier

import "github.com/wealthnest/engine/internal/domain"

// InvestorProfile is the fixed-shape feature vector the external
// onboarding collaborator produces. Scales: risk_tolerance,
// liquidity_need, volatility_comfort and knowledge_level are 1-10.
type InvestorProfile struct {
	HorizonYears      float64 `json:"horizon_years" validate:"required,gt=0,lte=60"`
	RiskTolerance     float64 `json:"risk_tolerance" validate:"required,gte=1,lte=10"`
	LiquidityNeed     float64 `json:"liquidity_need" validate:"gte=0,lte=10"`
	VolatilityComfort float64 `json:"volatility_comfort" validate:"gte=0,lte=10"`
	KnowledgeLevel    float64 `json:"knowledge_level" validate:"gte=0,lte=10"`
	Age               float64 `json:"age" validate:"omitempty,gte=18,lte=100"`
	MonthlySIP        float64 `json:"monthly_sip" validate:"gte=0"`
}

// fieldValue resolves a rule's field name against the profile.
// Unknown fields return false so a bad rule row can never panic.
func (p *InvestorProfile) fieldValue(field string) (float64, bool) {
	switch field {
	case "horizon_years":
		return p.HorizonYears, true
	case "risk_tolerance":
		return p.RiskTolerance, true
	case "liquidity_need":
		return p.LiquidityNeed, true
	case "volatility_comfort":
		return p.VolatilityComfort, true
	case "knowledge_level":
		return p.KnowledgeLevel, true
	case "age":
		return p.Age, true
	case "monthly_sip":
		return p.MonthlySIP, true
	}
	return 0, false
}

// ClassificationResult is the output of a classify call.
type ClassificationResult struct {
	PersonaID    string             `json:"personaId"`
	PersonaSlug  string             `json:"personaSlug"`
	RiskBand     string             `json:"riskBand"`
	Distribution map[string]float64 `json:"distribution"`
	Confidence   float64            `json:"confidence"`
	LatencyMs    float64            `json:"latencyMs"`
}

// BlendedClassification extends the classification with the blended
// target allocation derived from the distribution.
type BlendedClassification struct {
	ClassificationResult
	BlendedAllocation domain.Allocation `json:"blended_allocation"`
}
