package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gsr_go/internal/domain"
)

// CoinGecko asset IDs. The metals quotes are token-backed index prices:
// tether-gold and kinesis-silver track one troy ounce each.
const (
	cgBitcoinID = "bitcoin"
	cgGoldID    = "tether-gold"
	cgSilverID  = "kinesis-silver"
)

// CoinGeckoClient fetches USD prices from the CoinGecko simple/price API.
// It is the only BTC source and the primary metals source. Works keyless
// on the free tier; a pro or demo key is sent as a header when configured.
type CoinGeckoClient struct {
	baseURL    string
	proAPIKey  string
	demoAPIKey string
	httpClient *http.Client
}

// NewCoinGeckoClient creates a client from configuration.
func NewCoinGeckoClient(cfg *Config) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    cfg.API.CoinGecko.BaseURL,
		proAPIKey:  cfg.API.CoinGecko.ProAPIKey,
		demoAPIKey: cfg.API.CoinGecko.DemoAPIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.CoinGecko.TimeoutSec) * time.Second,
		},
	}
}

// Name identifies this source in tagged diagnostics.
func (c *CoinGeckoClient) Name() string { return "coingecko" }

// BtcUsd returns the current BTC/USD spot price.
func (c *CoinGeckoClient) BtcUsd(ctx context.Context) (float64, error) {
	prices, err := c.simplePrice(ctx, cgBitcoinID)
	if err != nil {
		return 0, domain.NewSourceError(c.Name(), err)
	}

	usd, ok := prices[cgBitcoinID]["usd"]
	if !ok || usd <= 0 {
		return 0, domain.NewSourceError(c.Name(), fmt.Errorf("btc: %w", domain.ErrPriceMissing))
	}
	return usd, nil
}

// GoldSilverUsd returns the token-backed gold and silver USD quotes.
func (c *CoinGeckoClient) GoldSilverUsd(ctx context.Context) (*domain.MetalsQuote, error) {
	prices, err := c.simplePrice(ctx, cgGoldID+","+cgSilverID)
	if err != nil {
		return nil, domain.NewSourceError(c.Name(), err)
	}

	gold, goldOK := prices[cgGoldID]["usd"]
	silver, silverOK := prices[cgSilverID]["usd"]
	if !goldOK || !silverOK || gold <= 0 || silver <= 0 {
		return nil, domain.NewSourceError(c.Name(), fmt.Errorf("gold or silver: %w", domain.ErrPriceMissing))
	}

	return &domain.MetalsQuote{GoldUsd: gold, SilverUsd: silver}, nil
}

// simplePrice calls GET /simple/price for the given comma-separated IDs.
// Response shape: {"<id>": {"usd": <price>}, ...}
func (c *CoinGeckoClient) simplePrice(ctx context.Context, ids string) (map[string]map[string]float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, ids)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.proAPIKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.proAPIKey)
	} else if c.demoAPIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.demoAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var prices map[string]map[string]float64
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}
