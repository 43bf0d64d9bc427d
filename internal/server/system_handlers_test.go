package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthnest/engine/internal/database"
)

func setupSystemHandlers(t *testing.T) (*SystemHandlers, *database.DB) {
	t.Helper()

	catalogDB, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "-catalog?mode=memory&cache=shared",
		Profile: database.ProfileCatalog,
		Name:    "catalog",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalogDB.Close() })

	universeDB, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "-universe?mode=memory&cache=shared",
		Profile: database.ProfileCache,
		Name:    "universe",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = universeDB.Close() })

	_, err = catalogDB.Exec(`
		CREATE TABLE personas (
			id INTEGER PRIMARY KEY,
			is_active INTEGER NOT NULL DEFAULT 1
		);
		INSERT INTO personas (id, is_active) VALUES (1, 1), (2, 1), (3, 0);`)
	require.NoError(t, err)

	_, err = universeDB.Exec(`
		CREATE TABLE funds (scheme_code INTEGER PRIMARY KEY);
		CREATE TABLE sync_runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			fund_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'running',
			error TEXT
		);
		INSERT INTO funds (scheme_code) VALUES (120503), (118989);`)
	require.NoError(t, err)

	return NewSystemHandlers(zerolog.Nop(), t.TempDir(), catalogDB, universeDB, nil), universeDB
}

func TestHandleSystemStatusCounts(t *testing.T) {
	h, _ := setupSystemHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleSystemStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.PersonaCount)
	assert.Equal(t, 2, resp.FundCount)
	assert.Empty(t, resp.LastSync)
}

func TestHandleSystemStatusFormatsLastSync(t *testing.T) {
	h, universeDB := setupSystemHandlers(t)

	finished := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	_, err := universeDB.Exec(`
		INSERT INTO sync_runs (id, started_at, finished_at, fund_count, status)
		VALUES ('run-1', ?, ?, 42, 'completed'),
		       ('run-2', ?, NULL, 0, 'failed')`,
		finished.Add(-time.Minute).Unix(), finished.Unix(), finished.Unix())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleSystemStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The stored Unix timestamp renders as a readable local time, not
	// raw epoch digits.
	assert.Equal(t, "2026-03-14 09:30", resp.LastSync)
}
