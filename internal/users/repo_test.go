package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/retoro-app/retoro-backend/pkg/db"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT,
  name TEXT,
  apple_user_id TEXT UNIQUE,
  google_user_id TEXT UNIQUE,
  email_verified INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func strPtr(v string) *string { return &v }

func TestCreateAndFindByEmailNormalizes(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Shopper@Example.COM ",
		PasswordHash: strPtr("hash"),
	})
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", created.Email)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByEmail(ctx, "SHOPPER@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "dup@example.com"})
	require.Error(t, err)
	assert.True(t, pkgdb.IsUniqueViolation(err))
}

func TestFindByProviderSubjects(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:         "oauth@example.com",
		AppleUserID:   strPtr("apple-sub"),
		GoogleUserID:  strPtr("google-sub"),
		EmailVerified: true,
	})
	require.NoError(t, err)

	byApple, err := repo.FindByAppleID(ctx, "apple-sub")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byApple.ID)

	byGoogle, err := repo.FindByGoogleID(ctx, "google-sub")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byGoogle.ID)

	_, err = repo.FindByAppleID(ctx, "unknown")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdateFieldsLinksProvider(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Email: "link@example.com"})
	require.NoError(t, err)

	err = repo.UpdateFields(ctx, created.ID, map[string]any{
		"apple_user_id":  "apple-123",
		"email_verified": true,
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.AppleUserID)
	assert.Equal(t, "apple-123", *reloaded.AppleUserID)
	assert.True(t, reloaded.EmailVerified)
}

func TestDeleteRemovesUser(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Email: "gone@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.FindByID(ctx, created.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
