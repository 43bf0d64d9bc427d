package universe

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthnest/engine/internal/database"
	"github.com/wealthnest/engine/internal/domain"
)

// Repository handles fund storage in universe.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new fund repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "universe").Logger(),
	}
}

const fundColumns = `scheme_code, scheme_name, fund_house, category, asset_class,
	nav, expense_ratio, aum, return_1y, return_3y, return_5y,
	sharpe_ratio, volatility, risk_grade, updated_at`

// ReplaceAll swaps the entire universe for a new fund set in one
// transaction, giving readers snapshot semantics during a sync.
func (r *Repository) ReplaceAll(funds []Fund) error {
	now := time.Now().Unix()

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM funds"); err != nil {
			return fmt.Errorf("failed to clear funds: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO funds (scheme_code, scheme_name, fund_house, category, asset_class,
				nav, expense_ratio, aum, return_1y, return_3y, return_5y,
				sharpe_ratio, volatility, risk_grade, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare fund insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range funds {
			_, err := stmt.Exec(
				f.SchemeCode, f.SchemeName, f.FundHouse, f.Category, string(f.AssetClass),
				f.NAV, nullable(f.ExpenseRatio), nullable(f.AUM),
				nullable(f.Return1Y), nullable(f.Return3Y), nullable(f.Return5Y),
				nullable(f.SharpeRatio), nullable(f.Volatility), f.RiskGrade, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert fund %d: %w", f.SchemeCode, err)
			}
		}
		return nil
	})
}

// All returns every fund in the universe.
func (r *Repository) All() ([]Fund, error) {
	query := fmt.Sprintf("SELECT %s FROM funds ORDER BY scheme_code", fundColumns)
	return r.queryFunds(query)
}

// ByAssetClass returns the funds in one asset class.
func (r *Repository) ByAssetClass(ac domain.AssetClass) ([]Fund, error) {
	query := fmt.Sprintf("SELECT %s FROM funds WHERE asset_class = ? ORDER BY scheme_code", fundColumns)
	return r.queryFunds(query, string(ac))
}

// GetBySchemeCode returns one fund, or nil if not in the universe.
func (r *Repository) GetBySchemeCode(code int) (*Fund, error) {
	query := fmt.Sprintf("SELECT %s FROM funds WHERE scheme_code = ?", fundColumns)
	funds, err := r.queryFunds(query, code)
	if err != nil {
		return nil, err
	}
	if len(funds) == 0 {
		return nil, nil
	}
	return &funds[0], nil
}

// Count returns the number of funds in the universe.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM funds").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count funds: %w", err)
	}
	return count, nil
}

// Stats computes universe statistics. staleAfter controls when the
// index is flagged stale relative to the last completed sync.
func (r *Repository) Stats(staleAfter time.Duration) (*Stats, error) {
	stats := &Stats{ByAssetClass: make(map[domain.AssetClass]int)}

	rows, err := r.db.Query("SELECT asset_class, COUNT(*) FROM funds GROUP BY asset_class")
	if err != nil {
		return nil, fmt.Errorf("failed to get asset class counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ac string
		var count int
		if err := rows.Scan(&ac, &count); err != nil {
			return nil, err
		}
		stats.ByAssetClass[domain.AssetClass(ac)] = count
		stats.TotalFunds += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var avgExpense sql.NullFloat64
	if err := r.db.QueryRow("SELECT AVG(expense_ratio) FROM funds").Scan(&avgExpense); err != nil {
		return nil, fmt.Errorf("failed to get average expense ratio: %w", err)
	}
	if avgExpense.Valid {
		stats.AvgExpenseRatio = avgExpense.Float64
	}

	var lastSynced sql.NullInt64
	err = r.db.QueryRow(
		"SELECT MAX(finished_at) FROM sync_runs WHERE status = 'completed'").Scan(&lastSynced)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync time: %w", err)
	}
	if lastSynced.Valid {
		t := time.Unix(lastSynced.Int64, 0)
		stats.LastSyncedAt = &t
		stats.Stale = time.Since(t) > staleAfter
	} else {
		stats.Stale = true
	}

	return stats, nil
}

// RecordSyncStart inserts a running sync_runs row.
func (r *Repository) RecordSyncStart(run SyncRun) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_runs (id, started_at, status) VALUES (?, ?, 'running')`,
		run.ID, run.StartedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record sync start: %w", err)
	}
	return nil
}

// RecordSyncFinish closes out a sync_runs row.
func (r *Repository) RecordSyncFinish(id string, fundCount int, syncErr error) error {
	status := "completed"
	errMsg := ""
	if syncErr != nil {
		status = "failed"
		errMsg = syncErr.Error()
	}

	_, err := r.db.Exec(`
		UPDATE sync_runs SET finished_at = ?, fund_count = ?, status = ?, error = ?
		WHERE id = ?`,
		time.Now().Unix(), fundCount, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to record sync finish: %w", err)
	}
	return nil
}

func (r *Repository) queryFunds(query string, args ...interface{}) ([]Fund, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	var funds []Fund
	for rows.Next() {
		var f Fund
		var assetClass string
		var expense, aum, r1y, r3y, r5y, sharpe, vol sql.NullFloat64
		var updatedAt int64

		err := rows.Scan(
			&f.SchemeCode, &f.SchemeName, &f.FundHouse, &f.Category, &assetClass,
			&f.NAV, &expense, &aum, &r1y, &r3y, &r5y, &sharpe, &vol,
			&f.RiskGrade, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}

		f.AssetClass = domain.AssetClass(assetClass)
		f.ExpenseRatio = fromNullable(expense)
		f.AUM = fromNullable(aum)
		f.Return1Y = fromNullable(r1y)
		f.Return3Y = fromNullable(r3y)
		f.Return5Y = fromNullable(r5y)
		f.SharpeRatio = fromNullable(sharpe)
		f.Volatility = fromNullable(vol)
		f.UpdatedAt = time.Unix(updatedAt, 0)

		funds = append(funds, f)
	}
	return funds, rows.Err()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
