package personas

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthnest/engine/internal/database"
	"github.com/wealthnest/engine/internal/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Profile: database.ProfileCatalog,
		Name:    "catalog",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE personas (
			slug TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			risk_band TEXT NOT NULL,
			target_allocation TEXT NOT NULL,
			expected_return_min REAL NOT NULL DEFAULT 0,
			expected_return_max REAL NOT NULL DEFAULT 0,
			volatility_band TEXT NOT NULL DEFAULT '',
			rebalance_frequency TEXT NOT NULL DEFAULT 'quarterly',
			display_order INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			updated_at INTEGER NOT NULL DEFAULT 0
		)`)
	require.NoError(t, err)

	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestUpsertAndGetBySlug(t *testing.T) {
	repo := setupTestRepo(t)

	persona := Persona{
		Slug:     "balanced-voyager",
		Name:     "Balanced Voyager",
		RiskBand: RiskBandBalancedGrowth,
		TargetAllocation: domain.Allocation{
			domain.AssetClassEquity: 0.5,
			domain.AssetClassDebt:   0.5,
		},
		DisplayOrder: 2,
		IsActive:     true,
	}
	require.NoError(t, repo.Upsert(persona))

	got, err := repo.GetBySlug("balanced-voyager")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Balanced Voyager", got.Name)
	assert.Equal(t, RiskBandBalancedGrowth, got.RiskBand)
	assert.InDelta(t, 0.5, got.TargetAllocation[domain.AssetClassEquity], 1e-9)
	assert.True(t, got.IsActive)
}

func TestGetBySlugNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.GetBySlug("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertRejectsUnnormalizedAllocation(t *testing.T) {
	repo := setupTestRepo(t)

	persona := Persona{
		Slug:     "broken",
		Name:     "Broken",
		RiskBand: RiskBandBalancedGrowth,
		TargetAllocation: domain.Allocation{
			domain.AssetClassEquity: 0.5,
			domain.AssetClassDebt:   0.2,
		},
		IsActive: true,
	}

	err := repo.Upsert(persona)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestListActiveOrdersByDisplayOrder(t *testing.T) {
	repo := setupTestRepo(t)

	for _, p := range DefaultPersonas() {
		require.NoError(t, repo.Upsert(p))
	}

	// Deactivate one
	inactive := DefaultPersonas()[0]
	inactive.IsActive = false
	require.NoError(t, repo.Upsert(inactive))

	active, err := repo.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "balanced-voyager", active[0].Slug)
	assert.Equal(t, "accelerated-builder", active[1].Slug)

	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, SeedDefaults(repo, zerolog.Nop()))
	require.NoError(t, SeedDefaults(repo, zerolog.Nop()))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDefaultPersonaAllocationsAreNormalized(t *testing.T) {
	for _, p := range DefaultPersonas() {
		t.Run(p.Slug, func(t *testing.T) {
			assert.True(t, p.TargetAllocation.IsNormalized(),
				"allocation sums to %f", p.TargetAllocation.Sum())
			require.NoError(t, p.Validate())
		})
	}
}
