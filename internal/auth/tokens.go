package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

const linkTokenBytes = 32

// NewLinkToken returns a random opaque magic-link token.
func NewLinkToken() (string, error) {
	buf := make([]byte, linkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate link token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenRepository persists magic-link tokens.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository builds a token repository over the given connection.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *TokenRepository) WithTx(tx *gorm.DB) *TokenRepository {
	return &TokenRepository{db: tx}
}

// Create stores a fresh single-use token for the email.
func (r *TokenRepository) Create(ctx context.Context, email, token string, expiresAt time.Time) (*models.MagicLinkToken, error) {
	row := &models.MagicLinkToken{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByToken loads a token row regardless of state; the caller decides
// whether it is still redeemable.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*models.MagicLinkToken, error) {
	var row models.MagicLinkToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkUsed flips an unused token to used. The affected count is zero when a
// concurrent redemption won, which the caller must treat as already spent.
func (r *TokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MagicLinkToken{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	return res.RowsAffected, res.Error
}
