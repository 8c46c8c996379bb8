package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const bodyReadLimit int64 = 1024

// fallbackRates are approximate USD rates used when the upstream API is
// unconfigured or unreachable. Updated periodically by hand.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.5,
	"CNY": 7.24,
	"INR": 83.12,
	"KRW": 1319.5,
	"BRL": 4.97,
	"CAD": 1.36,
	"AUD": 1.53,
	"CHF": 0.88,
	"SEK": 10.63,
	"NOK": 10.87,
	"DKK": 6.86,
	"PLN": 4.02,
	"RUB": 92.5,
	"TRY": 32.15,
	"ZAR": 18.45,
	"MXN": 17.12,
	"SGD": 1.34,
	"HKD": 7.83,
	"NZD": 1.67,
	"GEL": 2.68,
}

// Conversion is the result of a currency conversion. Rates are quoted
// against USD, so cross-currency conversions route through it.
type Conversion struct {
	From      string
	To        string
	Amount    decimal.Decimal
	Converted decimal.Decimal
	Rate      decimal.Decimal
}

// Client fetches USD-based exchange rates with a single in-process cache
// entry. The whole rate table refreshes together, so one timestamp guards
// the entire snapshot.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cacheTTL   time.Duration
	now        func() time.Time

	mu        sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source, used by tests to force expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the exchange-rate client. An empty API key is allowed;
// the client then serves fallback rates only.
func NewClient(cfg config.ExchangeConfig, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		cacheTTL:   cfg.CacheTTL,
		now:        time.Now,
	}
	if c.cacheTTL <= 0 {
		c.cacheTTL = time.Hour
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Convert converts amount between two ISO currency codes, routing through
// USD. Identical codes short-circuit with rate 1 and never touch the cache.
func (c *Client) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from and to currencies are required")
	}
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	if from == to {
		return &Conversion{
			From:      from,
			To:        to,
			Amount:    amount,
			Converted: amount,
			Rate:      decimal.NewFromInt(1),
		}, nil
	}

	rates := c.snapshot(ctx)

	fromRate, ok := rates[from]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency: %s", from))
	}
	toRate, ok := rates[to]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency: %s", to))
	}

	fromDec := decimal.NewFromFloat(fromRate)
	toDec := decimal.NewFromFloat(toRate)

	rate := toDec.DivRound(fromDec, 6)
	converted := amount.Div(fromDec).Mul(toDec).Round(2)

	return &Conversion{
		From:      from,
		To:        to,
		Amount:    amount,
		Converted: converted,
		Rate:      rate,
	}, nil
}

// ToUSD converts an amount in the given currency to US dollars.
func (c *Client) ToUSD(ctx context.Context, currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	conv, err := c.Convert(ctx, currency, "USD", amount)
	if err != nil {
		return decimal.Zero, err
	}
	return conv.Converted, nil
}

// snapshot returns the current rate table, refreshing it when the cache is
// stale. A failed refresh falls back to static rates rather than erroring:
// conversions degrade in accuracy, not availability.
func (c *Client) snapshot(ctx context.Context) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates != nil && c.now().Sub(c.fetchedAt) < c.cacheTTL {
		return c.rates
	}

	if c.apiKey != "" {
		if rates, err := c.fetch(ctx); err == nil {
			c.rates = rates
			c.fetchedAt = c.now()
			return c.rates
		}
	}

	c.rates = fallbackRates
	c.fetchedAt = c.now()
	return c.rates
}

func (c *Client) fetch(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s/latest/USD", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, bodyReadLimit))
		return nil, fmt.Errorf("rates status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload struct {
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	if len(payload.ConversionRates) == 0 {
		return nil, fmt.Errorf("rates response empty")
	}
	return payload.ConversionRates, nil
}
