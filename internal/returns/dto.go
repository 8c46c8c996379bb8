package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

// ReturnItemDTO is the transport shape for a tracked purchase. Deadline
// presentation fields are computed at read time against the request clock.
type ReturnItemDTO struct {
	ID               uuid.UUID  `json:"id"`
	RetailerID       uuid.UUID  `json:"retailer_id"`
	RetailerName     string     `json:"retailer_name,omitempty"`
	Name             *string    `json:"name"`
	Price            *float64   `json:"price"`
	PriceUSD         *float64   `json:"price_usd"`
	OriginalCurrency string     `json:"original_currency"`
	CurrencySymbol   string     `json:"currency_symbol"`
	PurchaseDate     time.Time  `json:"purchase_date"`
	ReturnDeadline   time.Time  `json:"return_deadline"`
	DaysRemaining    int        `json:"days_remaining"`
	Urgency          Urgency    `json:"urgency"`
	DaysLabel        string     `json:"days_label"`
	IsReturned       bool       `json:"is_returned"`
	IsKept           bool       `json:"is_kept"`
	ReturnedDate     *time.Time `json:"returned_date,omitempty"`
	KeptDate         *time.Time `json:"kept_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ListResponse is a page of items plus the cursor for the next one.
type ListResponse struct {
	Items      []ReturnItemDTO `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// CreateReturnItemRequest is the payload for tracking a new purchase.
type CreateReturnItemRequest struct {
	RetailerID       uuid.UUID `json:"retailer_id" validate:"required"`
	Name             *string   `json:"name" validate:"omitempty,max=300"`
	Price            *float64  `json:"price" validate:"omitempty,gte=0"`
	OriginalCurrency *string   `json:"original_currency" validate:"omitempty,len=3,alpha"`
	CurrencySymbol   *string   `json:"currency_symbol" validate:"omitempty,max=8"`
	PurchaseDate     time.Time `json:"purchase_date" validate:"required"`
}

// UpdateReturnItemRequest carries a partial update. Nil fields are left
// unchanged. Changing PurchaseDate or RetailerID recomputes the deadline.
type UpdateReturnItemRequest struct {
	RetailerID       *uuid.UUID `json:"retailer_id"`
	Name             *string    `json:"name" validate:"omitempty,max=300"`
	Price            *float64   `json:"price" validate:"omitempty,gte=0"`
	OriginalCurrency *string    `json:"original_currency" validate:"omitempty,len=3,alpha"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	IsReturned       *bool      `json:"is_returned"`
	IsKept           *bool      `json:"is_kept"`
}

// FromModel maps a row to its DTO, computing urgency against now.
func FromModel(item *models.ReturnItem, now time.Time) *ReturnItemDTO {
	if item == nil {
		return nil
	}

	days := DaysRemaining(item.ReturnDeadline, now)

	dto := &ReturnItemDTO{
		ID:               item.ID,
		RetailerID:       item.RetailerID,
		Name:             item.Name,
		Price:            decimalToFloat(item.Price),
		PriceUSD:         decimalToFloat(item.PriceUSD),
		OriginalCurrency: item.OriginalCurrency,
		CurrencySymbol:   item.CurrencySymbol,
		PurchaseDate:     item.PurchaseDate,
		ReturnDeadline:   item.ReturnDeadline,
		DaysRemaining:    days,
		Urgency:          UrgencyFor(days),
		DaysLabel:        FormatDaysRemaining(days),
		IsReturned:       item.IsReturned,
		IsKept:           item.IsKept,
		ReturnedDate:     item.ReturnedDate,
		KeptDate:         item.KeptDate,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
	if item.Retailer != nil {
		dto.RetailerName = item.Retailer.Name
	}
	return dto
}

func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
