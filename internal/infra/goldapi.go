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

// goldAPIResponse is the subset of the GoldAPI quote payload we read.
type goldAPIResponse struct {
	Metal     string  `json:"metal"`
	Currency  string  `json:"currency"`
	Price     float64 `json:"price"`
	Ask       float64 `json:"ask"`
	Bid       float64 `json:"bid"`
	Timestamp int64   `json:"timestamp"`
}

// GoldAPIClient fetches direct XAU/XAG spot quotes from goldapi.io, the
// secondary metals source. Without an API key it reports ErrUnconfigured
// and the resolver falls through to the manual override.
type GoldAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoldAPIClient creates a client from configuration.
func NewGoldAPIClient(cfg *Config) *GoldAPIClient {
	return &GoldAPIClient{
		baseURL: cfg.API.GoldAPI.BaseURL,
		apiKey:  cfg.API.GoldAPI.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.GoldAPI.TimeoutSec) * time.Second,
		},
	}
}

// Name identifies this source in tagged diagnostics.
func (c *GoldAPIClient) Name() string { return "goldapi" }

// GoldSilverUsd returns spot gold and silver, USD per troy ounce.
func (c *GoldAPIClient) GoldSilverUsd(ctx context.Context) (*domain.MetalsQuote, error) {
	if c.apiKey == "" {
		return nil, domain.ErrUnconfigured
	}

	gold, err := c.spot(ctx, "XAU")
	if err != nil {
		return nil, domain.NewSourceError(c.Name(), err)
	}
	silver, err := c.spot(ctx, "XAG")
	if err != nil {
		return nil, domain.NewSourceError(c.Name(), err)
	}

	return &domain.MetalsQuote{GoldUsd: gold, SilverUsd: silver}, nil
}

// spot calls GET /{symbol}/USD and returns the quoted price.
func (c *GoldAPIClient) spot(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/%s/USD", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("x-access-token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var quote goldAPIResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return 0, err
	}
	if quote.Price <= 0 {
		return 0, fmt.Errorf("%s: %w", symbol, domain.ErrPriceMissing)
	}
	return quote.Price, nil
}
