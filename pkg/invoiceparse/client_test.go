package invoiceparse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

func TestParseSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/pdf" {
			t.Errorf("unexpected content type %q", got)
		}
		if got := r.Header.Get("Content-Disposition"); got != "receipt.pdf" {
			t.Errorf("unexpected disposition %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"seller_name": " Zara ",
			"items": []map[string]any{
				{
					"item_name":       "Linen Shirt",
					"item_cost":       49.90,
					"item_quantity":   2,
					"item_currency":   "EUR",
					"currency_symbol": "€",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.InvoiceConfig{WebhookURL: srv.URL})

	result, err := c.Parse(context.Background(), "receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Failure != nil {
		t.Fatalf("unexpected failure: %+v", result.Failure)
	}
	if result.SellerName != "Zara" {
		t.Fatalf("expected trimmed seller name, got %q", result.SellerName)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	item := result.Items[0]
	if item.Quantity != 2 {
		t.Fatalf("unexpected quantity %d", item.Quantity)
	}
	if !item.Cost.Equal(decimal.NewFromFloat(49.90)) {
		t.Fatalf("unexpected cost %s", item.Cost)
	}
}

func TestParseUnparseableDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       false,
			"error":         true,
			"message":       "document is a bank statement",
			"document_type": "bank_statement",
			"confidence":    0.93,
		})
	}))
	defer srv.Close()

	c := NewClient(config.InvoiceConfig{WebhookURL: srv.URL})

	result, err := c.Parse(context.Background(), "doc.png", "image/png", []byte{0x89})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Failure == nil {
		t.Fatal("expected parse failure result")
	}
	if result.Failure.DocumentType != "bank_statement" {
		t.Fatalf("unexpected document type %q", result.Failure.DocumentType)
	}
}

func TestParseRejectsBadContentType(t *testing.T) {
	c := NewClient(config.InvoiceConfig{WebhookURL: "http://localhost:1"})

	_, err := c.Parse(context.Background(), "x.gif", "image/gif", []byte{1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUnconfigured(t *testing.T) {
	c := NewClient(config.InvoiceConfig{})

	_, err := c.Parse(context.Background(), "x.pdf", "application/pdf", []byte{1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestParseUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow crashed", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.InvoiceConfig{WebhookURL: srv.URL})

	_, err := c.Parse(context.Background(), "x.pdf", "application/pdf", []byte{1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCurrencySymbol(t *testing.T) {
	cases := []struct {
		name     string
		currency string
		provided string
		want     string
	}{
		{"provided wins", "USD", "US$", "US$"},
		{"known code", "EUR", "", "€"},
		{"unknown code falls back", "ZZZ", "", "ZZZ"},
		{"blank provided ignored", "GBP", "  ", "£"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrencySymbol(tc.currency, tc.provided); got != tc.want {
				t.Fatalf("CurrencySymbol(%q, %q) = %q, want %q", tc.currency, tc.provided, got, tc.want)
			}
		})
	}
}
