// Package service holds the business logic between HTTP handlers and repositories.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"accountly/internal/models"
	"accountly/internal/observability"
	"accountly/internal/repository"
)

// VerificationService issues and consumes time-bound email verification
// tokens. Tokens are 32 random bytes, hex-encoded; nothing about them is
// derivable from the user id or a server secret.
type VerificationService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	ttl    time.Duration
	now    func() time.Time
}

// NewVerificationService returns a VerificationService with the given token lifetime.
func NewVerificationService(users repository.UserRepository, tokens repository.TokenRepository, ttl time.Duration) *VerificationService {
	return &VerificationService{
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a fresh token for the user, invalidating any outstanding
// unconsumed one, and persists it both in the token table and on the user row.
func (s *VerificationService) Issue(ctx context.Context, user *models.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", models.NewInternalError(err)
	}
	token := hex.EncodeToString(buf)
	expiry := s.now().Add(s.ttl).UTC()

	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		return "", err
	}
	if err := s.tokens.Create(ctx, &models.VerificationToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expiry,
	}); err != nil {
		return "", err
	}

	user.VerificationToken = &token
	user.TokenExpiry = &expiry
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}

	observability.VerificationTokens.WithLabelValues("issued").Inc()
	return token, nil
}

// Consume validates the token and marks the owning account verified.
// Each token is usable once: replaying a consumed token fails with
// ALREADY_VERIFIED rather than succeeding as a no-op.
func (s *VerificationService) Consume(ctx context.Context, token string) error {
	if token == "" {
		return models.NewValidationError("Verification token is required")
	}

	row, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if row == nil {
		observability.VerificationTokens.WithLabelValues("unknown").Inc()
		return models.NewNotFoundError("Verification token")
	}

	user, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		return err
	}
	if row.ConsumedAt != nil || user.IsVerified {
		observability.VerificationTokens.WithLabelValues("replayed").Inc()
		return models.NewAlreadyVerifiedError()
	}
	if s.now().After(row.ExpiresAt) {
		observability.VerificationTokens.WithLabelValues("expired").Inc()
		return models.NewExpiredError("Verification token has expired")
	}

	now := s.now().UTC()
	user.IsVerified = true
	user.VerificationToken = nil
	user.TokenExpiry = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.tokens.MarkConsumed(ctx, token, now); err != nil {
		return err
	}

	observability.VerificationTokens.WithLabelValues("consumed").Inc()
	return nil
}
