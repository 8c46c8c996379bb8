// Package invoices turns uploaded receipts into tracked return items. The
// document goes to the parsing webhook, the seller name resolves to a
// retailer policy, and each extracted line item becomes a return item with
// a computed deadline.
package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retoro-app/retoro-backend/internal/returns"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/invoiceparse"
)

// MaxUploadBytes caps invoice uploads at 10MB.
const MaxUploadBytes = 10 << 20

// Upload is a received invoice document.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult reports what an invoice produced. A failed parse is a
// successful request with Success false; transport and storage problems are
// returned as errors instead.
type UploadResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	RetailerName string   `json:"retailer_name,omitempty"`
	ItemsCreated int      `json:"items_created"`
	Errors       []string `json:"errors,omitempty"`
}

// Service processes invoice uploads.
type Service interface {
	Process(ctx context.Context, userID uuid.UUID, upload Upload) (*UploadResult, error)
}

type parser interface {
	Parse(ctx context.Context, fileName, contentType string, data []byte) (*invoiceparse.Result, error)
}

type retailerResolver interface {
	FindOrCreateByName(ctx context.Context, userID uuid.UUID, name string) (*models.RetailerPolicy, error)
}

type itemCreator interface {
	Create(ctx context.Context, item *models.ReturnItem) error
}

type usdConverter interface {
	ToUSD(ctx context.Context, currency string, amount decimal.Decimal) (decimal.Decimal, error)
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	Parser    parser
	Retailers retailerResolver
	Items     itemCreator
	Exchange  usdConverter
	Now       func() time.Time
}

type service struct {
	parser    parser
	retailers retailerResolver
	items     itemCreator
	exchange  usdConverter
	now       func() time.Time
}

// NewService constructs the invoice processing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Parser == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice parser is required")
	}
	if params.Retailers == nil || params.Items == nil || params.Exchange == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "retailers, items, and exchange dependencies are required")
	}
	s := &service{
		parser:    params.Parser,
		retailers: params.Retailers,
		items:     params.Items,
		exchange:  params.Exchange,
		now:       params.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *service) Process(ctx context.Context, userID uuid.UUID, upload Upload) (*UploadResult, error) {
	if len(upload.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no file provided")
	}
	if len(upload.Data) > MaxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the 10MB limit")
	}

	parsed, err := s.parser.Parse(ctx, upload.Filename, upload.ContentType, upload.Data)
	if err != nil {
		return nil, err
	}
	if parsed.Failure != nil {
		msg := parsed.Failure.Message
		if msg == "" {
			msg = "this document does not look like an invoice"
		}
		return &UploadResult{Success: false, Message: msg}, nil
	}
	if len(parsed.Items) == 0 {
		return &UploadResult{Success: false, Message: "no items found on the invoice"}, nil
	}

	retailer, err := s.retailers.FindOrCreateByName(ctx, userID, parsed.SellerName)
	if err != nil {
		return nil, err
	}

	purchaseDate := s.now()
	deadline := returns.Deadline(purchaseDate, retailer.ReturnWindowDays)

	result := &UploadResult{RetailerName: retailer.Name}
	for _, item := range parsed.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		for i := 0; i < quantity; i++ {
			if err := s.createItem(ctx, userID, retailer, item, purchaseDate, deadline); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Name, err))
				continue
			}
			result.ItemsCreated++
		}
	}

	result.Success = result.ItemsCreated > 0
	result.Message = fmt.Sprintf("created %d return item(s) from the invoice", result.ItemsCreated)
	if !result.Success {
		result.Message = "no return items could be created from the invoice"
	}
	return result, nil
}

func (s *service) createItem(ctx context.Context, userID uuid.UUID, retailer *models.RetailerPolicy, item invoiceparse.ParsedItem, purchaseDate, deadline time.Time) error {
	currency := strings.ToUpper(strings.TrimSpace(item.Currency))
	if currency == "" {
		currency = "USD"
	}

	price := item.Cost
	priceUSD, err := s.exchange.ToUSD(ctx, currency, price)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(item.Name)
	row := &models.ReturnItem{
		UserID:           userID,
		RetailerID:       retailer.ID,
		Price:            &price,
		PriceUSD:         &priceUSD,
		OriginalCurrency: currency,
		CurrencySymbol:   invoiceparse.CurrencySymbol(currency, item.Symbol),
		PurchaseDate:     purchaseDate,
		ReturnDeadline:   deadline,
	}
	if name != "" {
		row.Name = &name
	}
	return s.items.Create(ctx, row)
}
