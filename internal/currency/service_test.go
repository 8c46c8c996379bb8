package currency

import (
	"context"
	"testing"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/exchange"
)

func buildCurrencyService(t *testing.T) Service {
	t.Helper()
	// No API key configured, so the client serves its built-in rates.
	svc, err := NewService(ServiceParams{Exchange: exchange.NewClient(config.ExchangeConfig{})})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestConvertBetweenCurrencies(t *testing.T) {
	svc := buildCurrencyService(t)

	conv, err := svc.Convert(context.Background(), "eur", "USD", 92)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if conv.From != "EUR" || conv.To != "USD" {
		t.Fatalf("expected normalized codes, got %s -> %s", conv.From, conv.To)
	}
	if conv.Converted != 100.0 {
		t.Fatalf("expected 100 USD, got %v", conv.Converted)
	}
}

func TestConvertSameCurrency(t *testing.T) {
	svc := buildCurrencyService(t)

	conv, err := svc.Convert(context.Background(), "USD", "USD", 42.5)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if conv.Converted != 42.5 || conv.Rate != 1.0 {
		t.Fatalf("expected identity conversion, got %+v", conv)
	}
}

func TestConvertUnsupportedCurrency(t *testing.T) {
	svc := buildCurrencyService(t)

	_, err := svc.Convert(context.Background(), "XXX", "USD", 10)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
