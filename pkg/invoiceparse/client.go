package invoiceparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

// AllowedContentTypes are the invoice formats the parser accepts.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// ParsedItem is one line item extracted from an invoice.
type ParsedItem struct {
	Name     string          `json:"item_name"`
	Cost     decimal.Decimal `json:"item_cost"`
	Quantity int             `json:"item_quantity"`
	Currency string          `json:"item_currency"`
	Symbol   string          `json:"currency_symbol"`
}

// Result is the parser verdict for an uploaded document. A non-nil Failure
// means the document was readable but is not a parseable invoice; that is a
// user-facing outcome, not a transport error.
type Result struct {
	SellerName string
	Items      []ParsedItem
	Failure    *Failure
}

// Failure describes an unparseable document.
type Failure struct {
	Message      string
	DocumentType string
	Confidence   float64
}

// Client forwards invoice documents to the parsing webhook.
type Client struct {
	httpClient *http.Client
	webhookURL string
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

// NewClient builds the invoice parsing client.
func NewClient(cfg config.InvoiceConfig, opts ...Option) *Client {
	c := &Client{
		// Document parsing regularly takes tens of seconds.
		httpClient: &http.Client{Timeout: 60 * time.Second},
		webhookURL: cfg.WebhookURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.webhookURL) != ""
}

// Parse sends the raw document to the webhook and decodes the verdict.
func (c *Client) Parse(ctx context.Context, fileName, contentType string, data []byte) (*Result, error) {
	if !c.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoice processing is not configured")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no file provided")
	}
	if !AllowedContentTypes[contentType] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid file type, only JPEG, PNG, and PDF are allowed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build invoice parse request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fileName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "invoice processor unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "invoice processor error")
	}

	var payload struct {
		Success      bool         `json:"success"`
		SellerName   string       `json:"seller_name"`
		Items        []ParsedItem `json:"items"`
		Message      string       `json:"message"`
		DocumentType string       `json:"document_type"`
		Confidence   float64      `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode invoice parse response")
	}

	if !payload.Success {
		msg := payload.Message
		if msg == "" {
			msg = "Failed to parse invoice"
		}
		return &Result{Failure: &Failure{
			Message:      msg,
			DocumentType: payload.DocumentType,
			Confidence:   payload.Confidence,
		}}, nil
	}

	if strings.TrimSpace(payload.SellerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "invoice parse response missing seller name")
	}

	return &Result{
		SellerName: strings.TrimSpace(payload.SellerName),
		Items:      payload.Items,
	}, nil
}

// CurrencySymbol maps an ISO code to its display symbol, preferring an
// explicit symbol from the parser when present.
func CurrencySymbol(currency, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}

	symbols := map[string]string{
		"USD": "$",
		"EUR": "€",
		"GBP": "£",
		"JPY": "¥",
		"CNY": "¥",
		"INR": "₹",
		"KRW": "₩",
		"BRL": "R$",
		"CAD": "CA$",
		"AUD": "A$",
		"CHF": "CHF",
		"SEK": "kr",
		"NOK": "kr",
		"DKK": "kr",
		"PLN": "zł",
		"RUB": "₽",
		"TRY": "₺",
		"ZAR": "R",
		"MXN": "MX$",
		"SGD": "S$",
		"HKD": "HK$",
		"NZD": "NZ$",
		"GEL": "₾",
	}
	if s, ok := symbols[currency]; ok {
		return s
	}
	return currency
}
