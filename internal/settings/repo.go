package settings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

// Repository exposes user-settings persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a settings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateDefaults inserts the default settings row for a new user.
func (r *Repository) CreateDefaults(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	row := &models.UserSettings{
		ID:                        uuid.New(),
		UserID:                    userID,
		PreferredCurrency:         "USD",
		NotificationsEnabled:      true,
		EmailNotificationsEnabled: true,
		PushNotificationsEnabled:  true,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByUserID loads the settings row for a user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	var row models.UserSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateFields applies a partial column update to the settings row.
func (r *Repository) UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}
