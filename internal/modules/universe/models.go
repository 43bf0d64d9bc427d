// Package universe maintains the fund universe index: every fund the
// engine can recommend, tagged by asset class and carrying the quality
// metrics the scorer consumes. The index is a cache over the upstream
// feed, refreshed by a background sync job.
package universe

import (
	"time"

	"github.com/wealthnest/engine/internal/domain"
)

// Fund is one scheme in the universe. Metric pointers are nil when the
// feed has no history for the fund yet; the scorer treats nil as
// "unknown", not zero.
type Fund struct {
	SchemeCode   int               `json:"scheme_code"`
	SchemeName   string            `json:"scheme_name"`
	FundHouse    string            `json:"fund_house"`
	Category     string            `json:"category"`
	AssetClass   domain.AssetClass `json:"asset_class"`
	NAV          float64           `json:"nav"`
	ExpenseRatio *float64          `json:"expense_ratio"`
	AUM          *float64          `json:"aum"`
	Return1Y     *float64          `json:"return_1y"`
	Return3Y     *float64          `json:"return_3y"`
	Return5Y     *float64          `json:"return_5y"`
	SharpeRatio  *float64          `json:"sharpe_ratio"`
	Volatility   *float64          `json:"volatility"`
	RiskGrade    string            `json:"risk_grade"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Stats summarizes the state of the universe index.
type Stats struct {
	TotalFunds      int                       `json:"total_funds"`
	ByAssetClass    map[domain.AssetClass]int `json:"by_asset_class"`
	AvgExpenseRatio float64                   `json:"avg_expense_ratio"`
	LastSyncedAt    *time.Time                `json:"last_synced_at"`
	Stale           bool                      `json:"stale"`
}

// SyncRun records one refresh of the universe from the feed.
type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	FundCount  int        `json:"fund_count"`
	Status     string     `json:"status"` // running, completed, failed
	Error      string     `json:"error,omitempty"`
}
