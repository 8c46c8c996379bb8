package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnItem is a tracked purchase. ReturnDeadline is derived from the
// purchase date and the retailer's window; it is recomputed whenever either
// input changes and never edited directly.
type ReturnItem struct {
	ID               uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	RetailerID       uuid.UUID            `gorm:"column:retailer_id;type:uuid;not null;index"`
	Name             *string              `gorm:"column:name"`
	Price            *decimal.Decimal     `gorm:"column:price;type:numeric(10,2)"`
	OriginalCurrency string               `gorm:"column:original_currency;not null;default:USD"`
	PriceUSD         *decimal.Decimal     `gorm:"column:price_usd;type:numeric(10,2)"`
	CurrencySymbol   string               `gorm:"column:currency_symbol;not null;default:$"`
	PurchaseDate     time.Time            `gorm:"column:purchase_date;not null"`
	ReturnDeadline   time.Time            `gorm:"column:return_deadline;not null;index"`
	IsReturned       bool                 `gorm:"column:is_returned;not null;default:false;index"`
	IsKept           bool                 `gorm:"column:is_kept;not null;default:false"`
	ReturnedDate     *time.Time           `gorm:"column:returned_date"`
	KeptDate         *time.Time           `gorm:"column:kept_date"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	User     *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Retailer *RetailerPolicy `gorm:"foreignKey:RetailerID"`
}

func (ReturnItem) TableName() string { return "return_items" }
