package oracle_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chainflow/token-relay/config"
	"github.com/chainflow/token-relay/oracle"
)

func newTestOracle(url string) *oracle.Oracle {
	return oracle.NewOracle(&config.OracleConfig{
		URL:      url,
		AssetID:  "arbitrum",
		Currency: "usd",
		Timeout:  config.Duration(time.Second),
	})
}

func TestOracleFetchPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"arbitrum":{"usd":0.531954}}`))
	}))
	defer srv.Close()

	price, err := newTestOracle(srv.URL).FetchPrice(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("0.531954")), "got %s", price)
}

func TestOracleFetchPriceErrors(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name   string
		Status int
		Body   string
	}{
		{Name: "http error", Status: http.StatusBadGateway, Body: `{}`},
		{Name: "garbage body", Status: http.StatusOK, Body: `ok`},
		{Name: "missing asset", Status: http.StatusOK, Body: `{"ethereum":{"usd":1}}`},
		{Name: "missing currency", Status: http.StatusOK, Body: `{"arbitrum":{"eur":1}}`},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.Status)
				_, _ = w.Write([]byte(test.Body))
			}))
			defer srv.Close()

			_, err := newTestOracle(srv.URL).FetchPrice(context.Background())
			require.Error(t, err)
		})
	}
}

func TestOracleUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	_, err := newTestOracle("http://127.0.0.1:1").FetchPrice(context.Background())
	require.Error(t, err)
}
