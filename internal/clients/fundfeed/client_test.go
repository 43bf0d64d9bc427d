package fundfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFunds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/funds/live/ml/funds", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"funds": [
				{
					"scheme_code": 120503,
					"scheme_name": "Axis Bluechip Fund",
					"fund_house": "Axis Mutual Fund",
					"category": "Large Cap Fund",
					"asset_class": "equity",
					"nav": 52.31,
					"expense_ratio": 0.55,
					"return_3y": 14.2,
					"sharpe_ratio": 1.1
				},
				{
					"scheme_code": 0,
					"scheme_name": "Broken Row"
				}
			],
			"count": 2
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	funds, err := client.GetFunds(context.Background())
	require.NoError(t, err)

	// The row without a scheme code is dropped
	require.Len(t, funds, 1)
	assert.Equal(t, 120503, funds[0].SchemeCode)
	assert.Equal(t, "Axis Bluechip Fund", funds[0].SchemeName)
	assert.Equal(t, "equity", funds[0].AssetClass)
	require.NotNil(t, funds[0].Return3Y)
	assert.InDelta(t, 14.2, *funds[0].Return3Y, 1e-9)
	assert.Nil(t, funds[0].Volatility)
}

func TestGetFundsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	_, err := client.GetFunds(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetFundsRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.GetFunds(ctx)
	require.Error(t, err)
}
