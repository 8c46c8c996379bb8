package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

// SettingsDTO is the transport shape for user preferences.
type SettingsDTO struct {
	PreferredCurrency         string    `json:"preferred_currency"`
	NotificationsEnabled      bool      `json:"notifications_enabled"`
	EmailNotificationsEnabled bool      `json:"email_notifications_enabled"`
	PushNotificationsEnabled  bool      `json:"push_notifications_enabled"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// UpdateSettingsRequest carries a partial settings update. Nil fields are
// left unchanged.
type UpdateSettingsRequest struct {
	PreferredCurrency         *string `json:"preferred_currency" validate:"omitempty,len=3,alpha"`
	NotificationsEnabled      *bool   `json:"notifications_enabled"`
	EmailNotificationsEnabled *bool   `json:"email_notifications_enabled"`
	PushNotificationsEnabled  *bool   `json:"push_notifications_enabled"`
}

// Service defines the behavior needed by the settings controller.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*SettingsDTO, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*SettingsDTO, error)
}

type repository interface {
	CreateDefaults(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]any) error
}

type service struct {
	repo repository
}

// NewService constructs a settings service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository is required")
	}
	return &service{repo: repo}, nil
}

// Get loads the user's settings, creating the default row lazily for
// accounts that predate it.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*SettingsDTO, error) {
	row, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row, err = s.repo.CreateDefaults(ctx, userID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create default settings")
			}
			return fromModel(row), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settings")
	}
	return fromModel(row), nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*SettingsDTO, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.PreferredCurrency != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.PreferredCurrency))
		if len(code) != 3 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferred currency must be a 3-letter code")
		}
		fields["preferred_currency"] = code
	}
	if req.NotificationsEnabled != nil {
		fields["notifications_enabled"] = *req.NotificationsEnabled
	}
	if req.EmailNotificationsEnabled != nil {
		fields["email_notifications_enabled"] = *req.EmailNotificationsEnabled
	}
	if req.PushNotificationsEnabled != nil {
		fields["push_notifications_enabled"] = *req.PushNotificationsEnabled
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update settings")
		}
	}

	return s.Get(ctx, userID)
}

func fromModel(row *models.UserSettings) *SettingsDTO {
	return &SettingsDTO{
		PreferredCurrency:         row.PreferredCurrency,
		NotificationsEnabled:      row.NotificationsEnabled,
		EmailNotificationsEnabled: row.EmailNotificationsEnabled,
		PushNotificationsEnabled:  row.PushNotificationsEnabled,
		UpdatedAt:                 row.UpdatedAt,
	}
}
