package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

const tokenBytes = 32

// NewToken generates an opaque session token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Repository exposes session persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sessions repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repo bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create issues a fresh session for the user. anonymousID, when non-nil,
// records where the session came from so the merge step can find it later.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, anonymousID *string, expiresAt time.Time) (*models.Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:              uuid.New(),
		UserID:          userID,
		AnonymousUserID: anonymousID,
		Token:           token,
		ExpiresAt:       expiresAt,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindValidByToken loads a session by token, rejecting expired ones.
// Expired rows stay in the table; they are invalid on lookup, not purged.
func (r *Repository) FindValidByToken(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByToken removes the session matching the token, if any.
func (r *Repository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&models.Session{}, "token = ?", token).Error
}

// DeleteForUser removes every session owned by the user.
func (r *Repository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Session{}, "user_id = ?", userID).Error
}

// ReassignAnonymous moves sessions created under an anonymous identifier to
// the resolved user. Returns the number of rows moved.
func (r *Repository) ReassignAnonymous(ctx context.Context, anonymousID string, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("anonymous_user_id = ?", anonymousID).
		Update("user_id", userID)
	return res.RowsAffected, res.Error
}
