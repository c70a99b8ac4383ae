// Package oracle fetches the current destination asset price from an
// external HTTP quote endpoint (simple-price shaped JSON, no auth).
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainflow/token-relay/config"
)

type Oracle struct {
	url      string
	assetID  string
	currency string
	client   *http.Client
}

func NewOracle(cfg *config.OracleConfig) *Oracle {
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Oracle{
		url:      cfg.URL,
		assetID:  cfg.AssetID,
		currency: cfg.Currency,
		client:   &http.Client{Timeout: timeout},
	}
}

// FetchPrice returns the destination asset price in the reference currency.
// The endpoint is trusted as configured, the quote itself is not verified.
func (o *Oracle) FetchPrice(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("can't build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("can't read price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("price endpoint returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err = json.Unmarshal(body, &payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("can't parse price response: %w", err)
	}
	price, ok := payload[o.assetID][o.currency]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("price response misses %s.%s field", o.assetID, o.currency)
	}
	return price, nil
}
