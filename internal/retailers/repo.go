package retailers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

// Repository exposes retailer-policy persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a retailers repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns retailer policies ordered by name. A non-empty search term
// narrows the listing to case-insensitive substring matches.
func (r *Repository) List(ctx context.Context, search string) ([]models.RetailerPolicy, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}

	var policies []models.RetailerPolicy
	if err := query.Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// FindByID loads a retailer policy by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RetailerPolicy, error) {
	var policy models.RetailerPolicy
	if err := r.db.WithContext(ctx).First(&policy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

// FindByName does a case-insensitive exact-name lookup.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.RetailerPolicy, error) {
	var policy models.RetailerPolicy
	trimmed := strings.TrimSpace(name)
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", trimmed).
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// Create inserts a new retailer policy.
func (r *Repository) Create(ctx context.Context, policy *models.RetailerPolicy) error {
	if policy.ID == uuid.Nil {
		policy.ID = uuid.New()
	}
	policy.Name = strings.TrimSpace(policy.Name)
	return r.db.WithContext(ctx).Create(policy).Error
}
