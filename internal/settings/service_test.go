package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

type fakeRepo struct {
	rows map[uuid.UUID]*models.UserSettings
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*models.UserSettings{}}
}

func (f *fakeRepo) CreateDefaults(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	row := &models.UserSettings{
		ID:                        uuid.New(),
		UserID:                    userID,
		PreferredCurrency:         "USD",
		NotificationsEnabled:      true,
		EmailNotificationsEnabled: true,
		PushNotificationsEnabled:  true,
	}
	f.rows[userID] = row
	return row, nil
}

func (f *fakeRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	if row, ok := f.rows[userID]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateFields(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	row, ok := f.rows[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["preferred_currency"]; ok {
		row.PreferredCurrency = v.(string)
	}
	if v, ok := fields["notifications_enabled"]; ok {
		row.NotificationsEnabled = v.(bool)
	}
	if v, ok := fields["email_notifications_enabled"]; ok {
		row.EmailNotificationsEnabled = v.(bool)
	}
	if v, ok := fields["push_notifications_enabled"]; ok {
		row.PushNotificationsEnabled = v.(bool)
	}
	return nil
}

func TestGetCreatesDefaultsLazily(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	userID := uuid.New()

	dto, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if dto.PreferredCurrency != "USD" {
		t.Fatalf("expected USD default, got %q", dto.PreferredCurrency)
	}
	if !dto.NotificationsEnabled || !dto.EmailNotificationsEnabled || !dto.PushNotificationsEnabled {
		t.Fatal("expected all notification flags enabled by default")
	}
	if _, ok := repo.rows[userID]; !ok {
		t.Fatal("expected default row persisted")
	}
}

func TestUpdatePreferredCurrencyNormalizes(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := NewService(repo)
	userID := uuid.New()

	code := " eur "
	dto, err := svc.Update(context.Background(), userID, UpdateSettingsRequest{PreferredCurrency: &code})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if dto.PreferredCurrency != "EUR" {
		t.Fatalf("expected EUR, got %q", dto.PreferredCurrency)
	}
}

func TestUpdateRejectsBadCurrencyCode(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := NewService(repo)

	code := "EURO"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateSettingsRequest{PreferredCurrency: &code})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdatePartialFlagChange(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := NewService(repo)
	userID := uuid.New()

	off := false
	dto, err := svc.Update(context.Background(), userID, UpdateSettingsRequest{PushNotificationsEnabled: &off})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if dto.PushNotificationsEnabled {
		t.Fatal("expected push notifications disabled")
	}
	if !dto.EmailNotificationsEnabled {
		t.Fatal("expected email notifications untouched")
	}
}
