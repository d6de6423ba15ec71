package service

import (
	"context"
	"log/slog"

	"accountly/internal/middleware"
	"accountly/internal/models"
	"accountly/internal/notifications"
	"accountly/internal/repository"
	"accountly/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService owns the user record lifecycle: registration, authentication
// and self-service profile updates.
type UserService struct {
	users    repository.UserRepository
	verifier *VerificationService
	notifier *notifications.Notifier
	baseURL  string
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateProfileInput carries a partial self-update. Empty fields are left
// unchanged; supplied fields are validated.
type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Password  string
}

// NewUserService returns a UserService. notifier may be nil.
func NewUserService(users repository.UserRepository, verifier *VerificationService, notifier *notifications.Notifier, baseURL string) *UserService {
	return &UserService{
		users:    users,
		verifier: verifier,
		notifier: notifier,
		baseURL:  baseURL,
	}
}

// Register validates the input, creates the user with a hashed password,
// issues a verification token and publishes a user.created event.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !validation.ValidName(in.FirstName) {
		return nil, models.NewValidationError("First name must contain only letters")
	}
	if !validation.ValidName(in.LastName) {
		return nil, models.NewValidationError("Last name must contain only letters")
	}
	if !validation.ValidEmail(in.Email) {
		return nil, models.NewValidationError("Invalid email address")
	}
	if !validation.ValidPassword(in.Password) {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
	}

	// The repository maps a unique violation to a conflict; the GetByEmail
	// pre-check above is not a race-free guarantee.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.verifier.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	link := s.baseURL + "/v1/user/verify?token=" + token
	if err := s.notifier.PublishUserCreated(ctx, user.ID, user.Email, link); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to publish user.created event",
			slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}

	return user, nil
}

// Authenticate maps (email, password) to a user. Unknown email and wrong
// password produce the same error so the result never reveals which one failed.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" || !validation.ValidEmail(email) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !VerifyPassword(user, password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's own record. Only
// supplied fields are validated and changed; email is immutable.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, in UpdateProfileInput) (*models.User, error) {
	if in.FirstName == "" && in.LastName == "" && in.Password == "" {
		return nil, models.NewValidationError("No fields to update")
	}

	if in.FirstName != "" {
		if !validation.ValidName(in.FirstName) {
			return nil, models.NewValidationError("First name must contain only letters")
		}
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		if !validation.ValidName(in.LastName) {
			return nil, models.NewValidationError("Last name must contain only letters")
		}
		user.LastName = in.LastName
	}
	if in.Password != "" {
		if !validation.ValidPassword(in.Password) {
			return nil, models.NewValidationError("Password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyPassword compares a candidate password against the stored hash.
func VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
