package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"accountly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserServiceForTest(users *userRepoStub, tokens *tokenRepoStub) *UserService {
	verifier := NewVerificationService(users, tokens, 2*time.Minute)
	return NewUserService(users, verifier, nil, "http://localhost:8080")
}

func TestUserService_Register_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"Empty first name", RegisterInput{FirstName: "", LastName: "Doe", Email: "jane@example.com", Password: "longenough"}},
		{"Digits in first name", RegisterInput{FirstName: "Jane2", LastName: "Doe", Email: "jane@example.com", Password: "longenough"}},
		{"Digits in last name", RegisterInput{FirstName: "Jane", LastName: "D0e", Email: "jane@example.com", Password: "longenough"}},
		{"Bad email", RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "jane-at-example.com", Password: "longenough"}},
		{"Short password", RegisterInput{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			users := noopUserRepo()
			users.createFn = func(_ context.Context, _ *models.User) error {
				t.Fatal("Create must not be called for invalid input")
				return nil
			}
			svc := newUserServiceForTest(users, noopTokenRepo())

			_, err := svc.Register(context.Background(), tt.input)
			assertAppErrorCode(t, err, models.CodeValidation)
		})
	}
}

func TestUserService_Register_Success(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	var created *models.User
	users.createFn = func(_ context.Context, u *models.User) error {
		u.ID = "new-user-id"
		created = u
		return nil
	}
	var issued *models.VerificationToken
	tokens := noopTokenRepo()
	tokens.createFn = func(_ context.Context, row *models.VerificationToken) error {
		issued = row
		return nil
	}
	svc := newUserServiceForTest(users, tokens)

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "longenough",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.False(t, user.IsVerified)

	// The password is stored hashed, never in the clear.
	assert.NotEqual(t, "longenough", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))

	require.NotNil(t, issued, "registration must issue a verification token")
	assert.Equal(t, "new-user-id", issued.UserID)
	require.NotNil(t, user.VerificationToken)
	assert.Equal(t, issued.Token, *user.VerificationToken)
	assert.False(t, strings.Contains(issued.Token, user.ID), "token must not embed the user id")
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	t.Run("caught by pre-check", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
			return &models.User{ID: "existing", Email: email}, nil
		}
		svc := newUserServiceForTest(users, noopTokenRepo())

		_, err := svc.Register(context.Background(), RegisterInput{
			FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "longenough",
		})
		assertAppErrorCode(t, err, models.CodeConflict)
	})

	t.Run("caught by unique index", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.createFn = func(_ context.Context, _ *models.User) error {
			return models.NewConflictError("Email already registered")
		}
		svc := newUserServiceForTest(users, noopTokenRepo())

		_, err := svc.Register(context.Background(), RegisterInput{
			FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Password: "longenough",
		})
		assertAppErrorCode(t, err, models.CodeConflict)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("longenough"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: "u1", Email: "jane@example.com", PasswordHash: string(hash)}

	users := noopUserRepo()
	users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == stored.Email {
			return stored, nil
		}
		return nil, nil
	}
	svc := newUserServiceForTest(users, noopTokenRepo())

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "jane@example.com", "longenough")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	// Unknown email and wrong password must be indistinguishable.
	failures := []struct {
		name     string
		email    string
		password string
	}{
		{"Wrong password", "jane@example.com", "not-the-password"},
		{"Unknown email", "nobody@example.com", "longenough"},
		{"Malformed email", "not-an-email", "longenough"},
		{"Empty email", "", "longenough"},
		{"Empty password", "jane@example.com", ""},
	}
	var messages []string
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			assertAppErrorCode(t, err, models.CodeUnauthorized)
			messages = append(messages, err.Error())
		})
	}
	for _, msg := range messages {
		assert.Equal(t, messages[0], msg, "failure messages must not leak which check failed")
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	newUser := func() *models.User {
		return &models.User{
			ID:           "u1",
			FirstName:    "Jane",
			LastName:     "Doe",
			Email:        "jane@example.com",
			PasswordHash: "old-hash",
		}
	}

	t.Run("no fields", func(t *testing.T) {
		t.Parallel()
		svc := newUserServiceForTest(noopUserRepo(), noopTokenRepo())
		_, err := svc.UpdateProfile(context.Background(), newUser(), UpdateProfileInput{})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		var saved *models.User
		users.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := newUserServiceForTest(users, noopTokenRepo())

		user, err := svc.UpdateProfile(context.Background(), newUser(), UpdateProfileInput{FirstName: "Janet"})
		require.NoError(t, err)
		assert.Equal(t, "Janet", user.FirstName)
		assert.Equal(t, "Doe", user.LastName)
		assert.Equal(t, "old-hash", user.PasswordHash)
		require.NotNil(t, saved)
	})

	t.Run("password change rehashes", func(t *testing.T) {
		t.Parallel()
		svc := newUserServiceForTest(noopUserRepo(), noopTokenRepo())

		user, err := svc.UpdateProfile(context.Background(), newUser(), UpdateProfileInput{Password: "brand-new-pass"})
		require.NoError(t, err)
		assert.NotEqual(t, "old-hash", user.PasswordHash)
		assert.True(t, VerifyPassword(user, "brand-new-pass"))
		assert.False(t, VerifyPassword(user, "old-hash"))
	})

	t.Run("invalid field rejected", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.updateFn = func(_ context.Context, _ *models.User) error {
			t.Fatal("Update must not be called for invalid input")
			return nil
		}
		svc := newUserServiceForTest(users, noopTokenRepo())

		_, err := svc.UpdateProfile(context.Background(), newUser(), UpdateProfileInput{LastName: "D0e"})
		assertAppErrorCode(t, err, models.CodeValidation)

		_, err = svc.UpdateProfile(context.Background(), newUser(), UpdateProfileInput{Password: "short"})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("repo error propagates", func(t *testing.T) {
		t.Parallel()
		repoErr := errors.New("update failed")
		users := noopUserRepo()
		users.updateFn = func(_ context.Context, _ *models.User) error { return repoErr }
		svc := newUserServiceForTest(users, noopTokenRepo())

		_, err := svc.UpdateProfile(context.Background(), newUser(), UpdateProfileInput{FirstName: "Janet"})
		assert.ErrorIs(t, err, repoErr)
	})
}
