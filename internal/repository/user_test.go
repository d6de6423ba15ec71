package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"accountly/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        string
		mockBehavior  func()
		expectedEmail string
		expectedCode  string
	}{
		{
			name:   "Success",
			userID: "11111111-1111-1111-1111-111111111111",
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "is_verified"}).
					AddRow("11111111-1111-1111-1111-111111111111", "Jane", "Doe", "jane@example.com", true)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("11111111-1111-1111-1111-111111111111", 1).
					WillReturnRows(rows)
			},
			expectedEmail: "jane@example.com",
		},
		{
			name:   "Not found",
			userID: "22222222-2222-2222-2222-222222222222",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("22222222-2222-2222-2222-222222222222", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database error",
			userID: "33333333-3333-3333-3333-333333333333",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("33333333-3333-3333-3333-333333333333", 1).
					WillReturnError(errors.New("connection reset"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()

			user, err := repo.GetByID(ctx, tt.userID)
			if tt.expectedCode != "" {
				require.Error(t, err)
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.expectedCode, appErr.Code)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.expectedEmail, user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// A missing email is not an error; callers use this for uniqueness
	// checks and authentication.
	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"Postgres foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"Wrapped postgres unique violation", gormWrap(&pgconn.PgError{Code: "23505"}), true},
		{"SQLite unique message", errors.New("UNIQUE constraint failed: users.email"), true},
		{"Duplicate key message", errors.New(`duplicate key value violates unique constraint "idx_users_email"`), true},
		{"Unrelated error", errors.New("connection reset"), false},
		{"Nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

func gormWrap(err error) error {
	return &wrappedErr{err: err}
}

type wrappedErr struct {
	err error
}

func (w *wrappedErr) Error() string { return "insert failed: " + w.err.Error() }
func (w *wrappedErr) Unwrap() error { return w.err }
