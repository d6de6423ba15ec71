package repository

import (
	"context"
	"errors"
	"time"

	"accountly/internal/models"

	"gorm.io/gorm"
)

// TokenRepository defines persistence operations for verification tokens.
// Consumed rows are kept so a replayed token is distinguishable from an
// unknown one.
type TokenRepository interface {
	Create(ctx context.Context, token *models.VerificationToken) error
	// GetByToken returns (nil, nil) when the token was never issued.
	GetByToken(ctx context.Context, token string) (*models.VerificationToken, error)
	MarkConsumed(ctx context.Context, token string, at time.Time) error
	DeleteByUserID(ctx context.Context, userID string) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a new TokenRepository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.VerificationToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	var row models.VerificationToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &row, nil
}

func (r *tokenRepository) MarkConsumed(ctx context.Context, token string, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.VerificationToken{}).
		Where("token = ?", token).
		Update("consumed_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at IS NULL", userID).
		Delete(&models.VerificationToken{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
