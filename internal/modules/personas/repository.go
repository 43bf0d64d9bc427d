package personas

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/domain"
)

// Repository handles persona storage in catalog.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new persona repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "personas").Logger(),
	}
}

const personaColumns = `slug, name, description, risk_band, target_allocation,
	expected_return_min, expected_return_max, volatility_band,
	rebalance_frequency, display_order, is_active, updated_at`

// ListActive returns active personas ordered by display_order.
// The classifier requires at least one; callers decide how to react to none.
func (r *Repository) ListActive() ([]Persona, error) {
	return r.list(true)
}

// ListAll returns every persona in the catalog, active or not.
func (r *Repository) ListAll() ([]Persona, error) {
	return r.list(false)
}

func (r *Repository) list(activeOnly bool) ([]Persona, error) {
	query := fmt.Sprintf("SELECT %s FROM personas", personaColumns)
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY display_order, slug"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	defer rows.Close()

	var personas []Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

// GetBySlug returns a persona by slug, or nil if not found.
func (r *Repository) GetBySlug(slug string) (*Persona, error) {
	query := fmt.Sprintf("SELECT %s FROM personas WHERE slug = ?", personaColumns)
	row := r.db.QueryRow(query, slug)

	p, err := scanPersona(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get persona %s: %w", slug, err)
	}
	return &p, nil
}

// Upsert inserts or replaces a persona.
func (r *Repository) Upsert(p Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	allocation, err := json.Marshal(p.TargetAllocation)
	if err != nil {
		return fmt.Errorf("failed to marshal allocation for %s: %w", p.Slug, err)
	}

	isActive := 0
	if p.IsActive {
		isActive = 1
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO personas
			(slug, name, description, risk_band, target_allocation,
			 expected_return_min, expected_return_max, volatility_band,
			 rebalance_frequency, display_order, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Name, p.Description, string(p.RiskBand), string(allocation),
		p.ExpectedReturnMin, p.ExpectedReturnMax, p.VolatilityBand,
		p.RebalanceFreq, p.DisplayOrder, isActive, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert persona %s: %w", p.Slug, err)
	}

	r.log.Debug().Str("slug", p.Slug).Msg("Persona upserted")
	return nil
}

// Count returns the number of personas in the catalog.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM personas").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count personas: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPersona(s scanner) (Persona, error) {
	var p Persona
	var riskBand, allocationJSON string
	var isActive int
	var updatedAt int64

	err := s.Scan(
		&p.Slug, &p.Name, &p.Description, &riskBand, &allocationJSON,
		&p.ExpectedReturnMin, &p.ExpectedReturnMax, &p.VolatilityBand,
		&p.RebalanceFreq, &p.DisplayOrder, &isActive, &updatedAt,
	)
	if err != nil {
		return Persona{}, err
	}

	p.RiskBand = RiskBand(riskBand)
	p.IsActive = isActive == 1
	p.UpdatedAt = time.Unix(updatedAt, 0)

	p.TargetAllocation = make(domain.Allocation)
	if err := json.Unmarshal([]byte(allocationJSON), &p.TargetAllocation); err != nil {
		return Persona{}, fmt.Errorf("failed to unmarshal allocation for %s: %w", p.Slug, err)
	}

	return p, nil
}
