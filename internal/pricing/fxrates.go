package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/cache"
)

const (
	fxBaseURL = "https://api.frankfurter.app"

	// Historical fiat rates never change once published.
	fxCacheTTL = 365 * 24 * time.Hour
)

// FXClient converts fiat amounts using historical exchange rates from a
// frankfurter-compatible API.
type FXClient struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	logger     *log.Logger
}

// FXOption configures an FXClient.
type FXOption func(*FXClient)

// WithFXBaseURL overrides the API base URL, mainly for tests.
func WithFXBaseURL(u string) FXOption {
	return func(c *FXClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithFXHTTPClient sets a custom HTTP client.
func WithFXHTTPClient(hc *http.Client) FXOption {
	return func(c *FXClient) { c.httpClient = hc }
}

// WithFXCache sets the response cache.
func WithFXCache(cc cache.Cache) FXOption {
	return func(c *FXClient) { c.cache = cc }
}

// NewFXClient creates a currency converter backed by a historical
// exchange-rate API.
func NewFXClient(logger *log.Logger, opts ...FXOption) *FXClient {
	if logger == nil {
		logger = log.Default()
	}
	c := &FXClient{
		baseURL:    fxBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache.NoOp{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fxResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Convert converts amount from one fiat currency to another at the
// given date. Same-currency conversion is exact and makes no call.
func (c *FXClient) Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	rate, err := c.rate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// rate fetches the from->to rate for the given date, using USD-based
// quotes so any currency pair the API covers can be derived.
func (c *FXClient) rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	day := asOf.UTC().Format("2006-01-02")

	key := cache.Key("fx", from, to, day)
	if cached, ok := c.cache.Get(ctx, key); ok {
		if d, err := decimal.NewFromString(cached); err == nil {
			return d, nil
		}
	}

	endpoint := fmt.Sprintf("%s/%s?from=USD", c.baseURL, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build fx request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch fx rates for %s: %w", day, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch fx rates for %s: unexpected status %d", day, resp.StatusCode)
	}

	var body fxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode fx response: %w", err)
	}

	fromRate, err := c.usdRate(body.Rates, from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := c.usdRate(body.Rates, to)
	if err != nil {
		return decimal.Zero, err
	}
	if fromRate.IsZero() {
		return decimal.Zero, fmt.Errorf("fx rate for %s on %s is zero", from, day)
	}

	rate := toRate.Div(fromRate)
	c.cache.Set(ctx, key, rate.String(), fxCacheTTL)
	c.logger.Printf("[pricing] fx %s->%s on %s: %s", from, to, day, rate)
	return rate, nil
}

func (c *FXClient) usdRate(rates map[string]decimal.Decimal, currency string) (decimal.Decimal, error) {
	if currency == "USD" {
		return decimal.NewFromInt(1), nil
	}
	r, ok := rates[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("no fx rate for currency %s", currency)
	}
	return r, nil
}

var _ CurrencyConverter = (*FXClient)(nil)
