package classifier

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Rule is one row of the declarative classifier rule table.
// A rule contributes its weight to a persona's raw score when the
// profile field satisfies the predicate.
type Rule struct {
	ID            int64   `json:"id"`
	PersonaSlug   string  `json:"persona_slug"`
	Field         string  `json:"field"`
	Op            string  `json:"op"` // lt, lte, gt, gte, eq, between
	Threshold     float64 `json:"threshold"`
	ThresholdHigh float64 `json:"threshold_high,omitempty"`
	Weight        float64 `json:"weight"`
}

// Matches evaluates the rule's predicate against a profile.
func (r Rule) Matches(profile *InvestorProfile) bool {
	value, ok := profile.fieldValue(r.Field)
	if !ok {
		return false
	}

	switch r.Op {
	case "lt":
		return value < r.Threshold
	case "lte":
		return value <= r.Threshold
	case "gt":
		return value > r.Threshold
	case "gte":
		return value >= r.Threshold
	case "eq":
		return value == r.Threshold
	case "between":
		return value >= r.Threshold && value <= r.ThresholdHigh
	}
	return false
}

// DefaultRules returns the stock rule table, seeded into catalog.db
// on first start. Thresholds follow the routing heuristics the advisory
// team uses: short horizons and high liquidity need route conservative,
// long horizons with drawdown comfort route aggressive.
func DefaultRules() []Rule {
	return []Rule{
		// capital-guardian: short horizon, low risk appetite, high liquidity need
		{PersonaSlug: "capital-guardian", Field: "horizon_years", Op: "lt", Threshold: 5, Weight: 2.0},
		{PersonaSlug: "capital-guardian", Field: "risk_tolerance", Op: "lte", Threshold: 3, Weight: 2.0},
		{PersonaSlug: "capital-guardian", Field: "liquidity_need", Op: "gte", Threshold: 7, Weight: 1.5},
		{PersonaSlug: "capital-guardian", Field: "volatility_comfort", Op: "lte", Threshold: 3, Weight: 1.0},
		{PersonaSlug: "capital-guardian", Field: "age", Op: "gte", Threshold: 55, Weight: 1.0},

		// balanced-voyager: mid-term goals, moderate everything
		{PersonaSlug: "balanced-voyager", Field: "horizon_years", Op: "between", Threshold: 5, ThresholdHigh: 9, Weight: 2.0},
		{PersonaSlug: "balanced-voyager", Field: "risk_tolerance", Op: "between", Threshold: 4, ThresholdHigh: 6, Weight: 2.0},
		{PersonaSlug: "balanced-voyager", Field: "volatility_comfort", Op: "between", Threshold: 4, ThresholdHigh: 6, Weight: 1.0},
		{PersonaSlug: "balanced-voyager", Field: "liquidity_need", Op: "between", Threshold: 4, ThresholdHigh: 6, Weight: 0.5},

		// accelerated-builder: long horizon, drawdown comfort, young
		{PersonaSlug: "accelerated-builder", Field: "horizon_years", Op: "gte", Threshold: 10, Weight: 2.0},
		{PersonaSlug: "accelerated-builder", Field: "risk_tolerance", Op: "gte", Threshold: 7, Weight: 2.0},
		{PersonaSlug: "accelerated-builder", Field: "volatility_comfort", Op: "gte", Threshold: 7, Weight: 1.5},
		{PersonaSlug: "accelerated-builder", Field: "age", Op: "lte", Threshold: 32, Weight: 1.0},
		{PersonaSlug: "accelerated-builder", Field: "knowledge_level", Op: "gte", Threshold: 7, Weight: 0.5},
	}
}

// RuleRepository reads and writes the classifier rule table in catalog.db.
type RuleRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, log zerolog.Logger) *RuleRepository {
	return &RuleRepository{
		db:  db,
		log: log.With().Str("repository", "classifier_rules").Logger(),
	}
}

// ListActive returns all active rules.
func (r *RuleRepository) ListActive() ([]Rule, error) {
	rows, err := r.db.Query(`
		SELECT id, persona_slug, field, op, threshold, threshold_high, weight
		FROM classifier_rules
		WHERE is_active = 1
		ORDER BY persona_slug, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifier rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		var high sql.NullFloat64
		if err := rows.Scan(&rule.ID, &rule.PersonaSlug, &rule.Field, &rule.Op,
			&rule.Threshold, &high, &rule.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan classifier rule: %w", err)
		}
		if high.Valid {
			rule.ThresholdHigh = high.Float64
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Insert adds a rule to the table.
func (r *RuleRepository) Insert(rule Rule) error {
	var high interface{}
	if rule.Op == "between" {
		high = rule.ThresholdHigh
	}
	_, err := r.db.Exec(`
		INSERT INTO classifier_rules (persona_slug, field, op, threshold, threshold_high, weight, is_active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		rule.PersonaSlug, rule.Field, rule.Op, rule.Threshold, high, rule.Weight)
	if err != nil {
		return fmt.Errorf("failed to insert classifier rule: %w", err)
	}
	return nil
}

// Count returns the number of rules in the table.
func (r *RuleRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM classifier_rules").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count classifier rules: %w", err)
	}
	return count, nil
}

// SeedDefaults writes the stock rule table into an empty catalog.
func (r *RuleRepository) SeedDefaults() error {
	count, err := r.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, rule := range DefaultRules() {
		if err := r.Insert(rule); err != nil {
			return err
		}
	}

	r.log.Info().Int("count", len(DefaultRules())).Msg("Seeded default classifier rules")
	return nil
}
