package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/cache"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	priceCacheTTL    = 24 * time.Hour

	// absentMarker caches the fact that no quote exists, so repeated
	// lookups for dead assets do not hit the API again.
	absentMarker = "absent"
)

// coingeckoIDs maps ticker symbols to CoinGecko coin identifiers.
// Symbols not listed fall back to their lowercase form.
var coingeckoIDs = map[string]string{
	"SOL":   "solana",
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"BNB":   "binancecoin",
	"ADA":   "cardano",
	"DOT":   "polkadot",
}

// CoinGeckoClient fetches historical daily prices from the CoinGecko
// public API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	logger     *log.Logger
}

// CoinGeckoOption configures a CoinGeckoClient.
type CoinGeckoOption func(*CoinGeckoClient)

// WithGeckoBaseURL overrides the API base URL, mainly for tests.
func WithGeckoBaseURL(u string) CoinGeckoOption {
	return func(c *CoinGeckoClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithGeckoHTTPClient sets a custom HTTP client.
func WithGeckoHTTPClient(hc *http.Client) CoinGeckoOption {
	return func(c *CoinGeckoClient) { c.httpClient = hc }
}

// WithGeckoCache sets the response cache.
func WithGeckoCache(cc cache.Cache) CoinGeckoOption {
	return func(c *CoinGeckoClient) { c.cache = cc }
}

// NewCoinGeckoClient creates a price source backed by CoinGecko.
func NewCoinGeckoClient(logger *log.Logger, opts ...CoinGeckoOption) *CoinGeckoClient {
	if logger == nil {
		logger = log.Default()
	}
	c := &CoinGeckoClient{
		baseURL:    coingeckoBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache.NoOp{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geckoHistoryResponse struct {
	MarketData *struct {
		CurrentPrice map[string]decimal.Decimal `json:"current_price"`
	} `json:"market_data"`
}

// UnitPrice returns the asset's price in the given currency on the day
// of at. CoinGecko's history endpoint has daily granularity, so the
// timestamp is truncated to its date. A nil result means no quote.
func (c *CoinGeckoClient) UnitPrice(ctx context.Context, symbol string, at time.Time, currency string) (*decimal.Decimal, error) {
	coinID := coingeckoIDs[strings.ToUpper(symbol)]
	if coinID == "" {
		coinID = strings.ToLower(symbol)
	}
	day := at.UTC().Format("02-01-2006")
	cur := strings.ToLower(currency)

	key := cache.Key("price", coinID, day, cur)
	if cached, ok := c.cache.Get(ctx, key); ok {
		if cached == absentMarker {
			return nil, nil
		}
		if d, err := decimal.NewFromString(cached); err == nil {
			return &d, nil
		}
	}

	endpoint := fmt.Sprintf("%s/coins/%s/history?date=%s", c.baseURL, url.PathEscape(coinID), day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch price for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// CoinGecko does not know this asset; a permanent absence.
		c.cache.Set(ctx, key, absentMarker, priceCacheTTL)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch price for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var body geckoHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode price response for %s: %w", symbol, err)
	}

	if body.MarketData == nil {
		// The coin exists but had no market data on that date.
		c.cache.Set(ctx, key, absentMarker, priceCacheTTL)
		return nil, nil
	}
	price, ok := body.MarketData.CurrentPrice[cur]
	if !ok {
		c.cache.Set(ctx, key, absentMarker, priceCacheTTL)
		return nil, nil
	}

	c.cache.Set(ctx, key, price.String(), priceCacheTTL)
	c.logger.Printf("[pricing] %s on %s: %s %s", symbol, day, price, cur)
	return &price, nil
}

var _ PriceSource = (*CoinGeckoClient)(nil)
