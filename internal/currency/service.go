// Package currency exposes on-demand conversions between the supported
// ISO currency codes.
package currency

import (
	"context"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/exchange"
)

// ConversionDTO is the convert endpoint payload.
type ConversionDTO struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Converted float64 `json:"converted"`
	Rate      float64 `json:"rate"`
}

// Service converts amounts between currencies.
type Service interface {
	Convert(ctx context.Context, from, to string, amount float64) (*ConversionDTO, error)
}

type converter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*exchange.Conversion, error)
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Exchange converter
}

type service struct {
	exchange converter
}

// NewService builds the currency service.
func NewService(params ServiceParams) (Service, error) {
	if params.Exchange == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "currency service requires an exchange client")
	}
	return &service{exchange: params.Exchange}, nil
}

func (s *service) Convert(ctx context.Context, from, to string, amount float64) (*ConversionDTO, error) {
	conv, err := s.exchange.Convert(ctx, from, to, decimal.NewFromFloat(amount))
	if err != nil {
		return nil, err
	}
	return &ConversionDTO{
		From:      conv.From,
		To:        conv.To,
		Amount:    conv.Amount.InexactFloat64(),
		Converted: conv.Converted.InexactFloat64(),
		Rate:      conv.Rate.InexactFloat64(),
	}, nil
}
