package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/invoiceparse"
	"github.com/retoro-app/retoro-backend/pkg/pagination"
)

// Service defines the behavior needed by the return-items controller.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateReturnItemRequest) (*ReturnItemDTO, error)
	Get(ctx context.Context, userID, itemID uuid.UUID) (*ReturnItemDTO, error)
	List(ctx context.Context, userID uuid.UUID, status StatusFilter, params pagination.Params) (*ListResponse, error)
	Update(ctx context.Context, userID, itemID uuid.UUID, req UpdateReturnItemRequest) (*ReturnItemDTO, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
}

type repository interface {
	Create(ctx context.Context, item *models.ReturnItem) error
	FindByID(ctx context.Context, userID, itemID uuid.UUID) (*models.ReturnItem, error)
	List(ctx context.Context, q ListQuery) ([]models.ReturnItem, error)
	UpdateFields(ctx context.Context, userID, itemID uuid.UUID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) (int64, error)
}

type retailerResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.RetailerPolicy, error)
}

type usdConverter interface {
	ToUSD(ctx context.Context, currency string, amount decimal.Decimal) (decimal.Decimal, error)
}

// ServiceParams bundles the dependencies required to build a returns service.
type ServiceParams struct {
	Repo      repository
	Retailers retailerResolver
	Exchange  usdConverter
	Now       func() time.Time
}

type service struct {
	repo      repository
	retailers retailerResolver
	exchange  usdConverter
	now       func() time.Time
}

// NewService constructs a return-items service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("returns repository is required")
	}
	if params.Retailers == nil {
		return nil, fmt.Errorf("retailer resolver is required")
	}
	if params.Exchange == nil {
		return nil, fmt.Errorf("usd converter is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		retailers: params.Retailers,
		exchange:  params.Exchange,
		now:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateReturnItemRequest) (*ReturnItemDTO, error) {
	retailer, err := s.loadRetailer(ctx, req.RetailerID)
	if err != nil {
		return nil, err
	}

	currency := "USD"
	if req.OriginalCurrency != nil {
		currency = strings.ToUpper(strings.TrimSpace(*req.OriginalCurrency))
	}
	symbol := invoiceparse.CurrencySymbol(currency, deref(req.CurrencySymbol))

	item := &models.ReturnItem{
		UserID:           userID,
		RetailerID:       retailer.ID,
		Name:             req.Name,
		OriginalCurrency: currency,
		CurrencySymbol:   symbol,
		PurchaseDate:     req.PurchaseDate,
		ReturnDeadline:   Deadline(req.PurchaseDate, retailer.ReturnWindowDays),
	}

	if req.Price != nil {
		price := decimal.NewFromFloat(*req.Price)
		item.Price = &price
		usd, err := s.exchange.ToUSD(ctx, currency, price)
		if err != nil {
			return nil, err
		}
		item.PriceUSD = &usd
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create return item")
	}

	item.Retailer = retailer
	return FromModel(item, s.now()), nil
}

func (s *service) Get(ctx context.Context, userID, itemID uuid.UUID) (*ReturnItemDTO, error) {
	item, err := s.loadItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return FromModel(item, s.now()), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, status StatusFilter, params pagination.Params) (*ListResponse, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	items, err := s.repo.List(ctx, ListQuery{
		UserID: userID,
		Status: status,
		Limit:  limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list return items")
	}

	resp := &ListResponse{Items: make([]ReturnItemDTO, 0, len(items))}
	now := s.now()

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	for i := range items {
		resp.Items = append(resp.Items, *FromModel(&items[i], now))
	}
	if hasMore {
		last := items[len(items)-1]
		next := pagination.EncodeCursor(pagination.Cursor{
			Deadline: last.ReturnDeadline,
			ID:       last.ID,
		})
		resp.NextCursor = &next
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, userID, itemID uuid.UUID, req UpdateReturnItemRequest) (*ReturnItemDTO, error) {
	item, err := s.loadItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}

	retailer := item.Retailer
	if req.RetailerID != nil && *req.RetailerID != item.RetailerID {
		retailer, err = s.loadRetailer(ctx, *req.RetailerID)
		if err != nil {
			return nil, err
		}
		fields["retailer_id"] = retailer.ID
	}
	if retailer == nil {
		retailer, err = s.loadRetailer(ctx, item.RetailerID)
		if err != nil {
			return nil, err
		}
	}

	purchaseDate := item.PurchaseDate
	if req.PurchaseDate != nil {
		purchaseDate = *req.PurchaseDate
		fields["purchase_date"] = purchaseDate
	}

	// Deadline is derived. Any change to its inputs recomputes it.
	if req.PurchaseDate != nil || (req.RetailerID != nil && *req.RetailerID != item.RetailerID) {
		fields["return_deadline"] = Deadline(purchaseDate, retailer.ReturnWindowDays)
	}

	if req.Name != nil {
		fields["name"] = *req.Name
	}

	currency := item.OriginalCurrency
	if req.OriginalCurrency != nil {
		currency = strings.ToUpper(strings.TrimSpace(*req.OriginalCurrency))
		fields["original_currency"] = currency
		fields["currency_symbol"] = invoiceparse.CurrencySymbol(currency, "")
	}

	if req.Price != nil {
		price := decimal.NewFromFloat(*req.Price)
		usd, err := s.exchange.ToUSD(ctx, currency, price)
		if err != nil {
			return nil, err
		}
		fields["price"] = price
		fields["price_usd"] = usd
	}

	if req.IsReturned != nil && req.IsKept != nil && *req.IsReturned && *req.IsKept {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an item cannot be both returned and kept")
	}
	now := s.now()
	if req.IsReturned != nil {
		fields["is_returned"] = *req.IsReturned
		if *req.IsReturned {
			fields["returned_date"] = now
			fields["is_kept"] = false
			fields["kept_date"] = nil
		} else {
			fields["returned_date"] = nil
		}
	}
	if req.IsKept != nil {
		fields["is_kept"] = *req.IsKept
		if *req.IsKept {
			fields["kept_date"] = now
			fields["is_returned"] = false
			fields["returned_date"] = nil
		} else {
			fields["kept_date"] = nil
		}
	}

	if len(fields) > 0 {
		affected, err := s.repo.UpdateFields(ctx, userID, itemID, fields)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update return item")
		}
		if affected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return item not found")
		}
	}

	return s.Get(ctx, userID, itemID)
}

func (s *service) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete return item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "return item not found")
	}
	return nil
}

func (s *service) loadItem(ctx context.Context, userID, itemID uuid.UUID) (*models.ReturnItem, error) {
	item, err := s.repo.FindByID(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load return item")
	}
	return item, nil
}

func (s *service) loadRetailer(ctx context.Context, id uuid.UUID) (*models.RetailerPolicy, error) {
	retailer, err := s.retailers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load retailer")
	}
	return retailer, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
