package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
	"github.com/retoro-app/retoro-backend/pkg/pagination"
)

// StatusFilter narrows a listing to one lifecycle state.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusReturned StatusFilter = "returned"
	StatusKept     StatusFilter = "kept"
)

// ListQuery bundles the filters for a return-item listing.
type ListQuery struct {
	UserID uuid.UUID
	Status StatusFilter
	Limit  int
	Cursor *pagination.Cursor
}

// Repository exposes return-item persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a returns repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new return item.
func (r *Repository) Create(ctx context.Context, item *models.ReturnItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID loads an item scoped to its owner. Other users' items read as
// not found rather than forbidden.
func (r *Repository) FindByID(ctx context.Context, userID, itemID uuid.UUID) (*models.ReturnItem, error) {
	var item models.ReturnItem
	err := r.db.WithContext(ctx).
		Preload("Retailer").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns the user's items ordered by deadline then id, one row past
// the limit so the caller can detect another page.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.ReturnItem, error) {
	tx := r.db.WithContext(ctx).
		Preload("Retailer").
		Where("user_id = ?", q.UserID).
		Order("return_deadline ASC, id ASC").
		Limit(pagination.LimitWithBuffer(q.Limit))

	switch q.Status {
	case StatusActive:
		tx = tx.Where("is_returned = ? AND is_kept = ?", false, false)
	case StatusReturned:
		tx = tx.Where("is_returned = ?", true)
	case StatusKept:
		tx = tx.Where("is_kept = ?", true)
	}

	if q.Cursor != nil {
		tx = tx.Where(
			"(return_deadline > ?) OR (return_deadline = ? AND id > ?)",
			q.Cursor.Deadline, q.Cursor.Deadline, q.Cursor.ID,
		)
	}

	var items []models.ReturnItem
	if err := tx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateFields applies a partial column update scoped to the owner.
func (r *Repository) UpdateFields(ctx context.Context, userID, itemID uuid.UUID, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ReturnItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// Delete removes an item scoped to the owner.
func (r *Repository) Delete(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Delete(&models.ReturnItem{}, "id = ? AND user_id = ?", itemID, userID)
	return res.RowsAffected, res.Error
}

// ReassignOwner moves every item from one owner to another. Used by the
// anonymous-data merge.
func (r *Repository) ReassignOwner(ctx context.Context, fromUserID, toUserID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ReturnItem{}).
		Where("user_id = ?", fromUserID).
		Update("user_id", toUserID)
	return res.RowsAffected, res.Error
}

// CountForUser reports how many items the user owns.
func (r *Repository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReturnItem{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
