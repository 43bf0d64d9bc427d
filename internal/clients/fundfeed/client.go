// Package fundfeed provides the HTTP client for the upstream fund data feed.
package fundfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// FeedFund is one fund row as the upstream feed serves it.
// Metric pointers are nil when the feed has no history for the fund yet.
type FeedFund struct {
	SchemeCode   int      `json:"scheme_code"`
	SchemeName   string   `json:"scheme_name"`
	FundHouse    string   `json:"fund_house"`
	Category     string   `json:"category"`
	AssetClass   string   `json:"asset_class"`
	NAV          float64  `json:"nav"`
	ExpenseRatio *float64 `json:"expense_ratio"`
	AUM          *float64 `json:"aum"`
	Return1Y     *float64 `json:"return_1y"`
	Return3Y     *float64 `json:"return_3y"`
	Return5Y     *float64 `json:"return_5y"`
	SharpeRatio  *float64 `json:"sharpe_ratio"`
	Volatility   *float64 `json:"volatility"`
	RiskGrade    string   `json:"risk_grade"`
}

type fundsResponse struct {
	Funds []FeedFund `json:"funds"`
	Count int        `json:"count"`
}

// Client fetches the fund universe from the feed service.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new fund feed client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "fundfeed").Logger(),
	}
}

// GetFunds fetches the full fund list from the feed.
// The feed serves the complete universe in one response, there is no paging.
func (c *Client) GetFunds(ctx context.Context) ([]FeedFund, error) {
	url := c.baseURL + "/api/v1/funds/live/ml/funds"
	c.log.Debug().Str("url", url).Msg("Fetching fund universe")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var body fundsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}

	// Rows without a scheme code can't be stored or recommended
	funds := make([]FeedFund, 0, len(body.Funds))
	for _, f := range body.Funds {
		if f.SchemeCode <= 0 {
			c.log.Warn().Str("scheme_name", f.SchemeName).Msg("Skipping fund without scheme code")
			continue
		}
		funds = append(funds, f)
	}

	c.log.Info().Int("count", len(funds)).Msg("Fetched fund universe")
	return funds, nil
}
