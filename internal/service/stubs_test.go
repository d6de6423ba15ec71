package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"accountly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stub repositories shared by the service tests in this package. Each field
// can be overridden per test; the noop constructors return safe defaults.

type userRepoStub struct {
	getByIDFn    func(ctx context.Context, id string) (*models.User, error)
	getByEmailFn func(ctx context.Context, email string) (*models.User, error)
	createFn     func(ctx context.Context, user *models.User) error
	updateFn     func(ctx context.Context, user *models.User) error
	deleteFn     func(ctx context.Context, id string) error
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		deleteFn: func(_ context.Context, _ string) error { return nil },
	}
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type tokenRepoStub struct {
	createFn         func(ctx context.Context, token *models.VerificationToken) error
	getByTokenFn     func(ctx context.Context, token string) (*models.VerificationToken, error)
	markConsumedFn   func(ctx context.Context, token string, at time.Time) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func noopTokenRepo() *tokenRepoStub {
	return &tokenRepoStub{
		createFn: func(_ context.Context, _ *models.VerificationToken) error { return nil },
		getByTokenFn: func(_ context.Context, _ string) (*models.VerificationToken, error) {
			return nil, nil
		},
		markConsumedFn:   func(_ context.Context, _ string, _ time.Time) error { return nil },
		deleteByUserIDFn: func(_ context.Context, _ string) error { return nil },
	}
}

func (s *tokenRepoStub) Create(ctx context.Context, token *models.VerificationToken) error {
	return s.createFn(ctx, token)
}

func (s *tokenRepoStub) GetByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	return s.getByTokenFn(ctx, token)
}

func (s *tokenRepoStub) MarkConsumed(ctx context.Context, token string, at time.Time) error {
	return s.markConsumedFn(ctx, token, at)
}

func (s *tokenRepoStub) DeleteByUserID(ctx context.Context, userID string) error {
	return s.deleteByUserIDFn(ctx, userID)
}

type imageRepoStub struct {
	getByUserIDFn    func(ctx context.Context, userID string) (*models.ProfileImage, error)
	createFn         func(ctx context.Context, image *models.ProfileImage) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func noopImageRepo() *imageRepoStub {
	return &imageRepoStub{
		getByUserIDFn: func(_ context.Context, _ string) (*models.ProfileImage, error) {
			return nil, nil
		},
		createFn:         func(_ context.Context, _ *models.ProfileImage) error { return nil },
		deleteByUserIDFn: func(_ context.Context, _ string) error { return nil },
	}
}

func (s *imageRepoStub) GetByUserID(ctx context.Context, userID string) (*models.ProfileImage, error) {
	return s.getByUserIDFn(ctx, userID)
}

func (s *imageRepoStub) Create(ctx context.Context, image *models.ProfileImage) error {
	return s.createFn(ctx, image)
}

func (s *imageRepoStub) DeleteByUserID(ctx context.Context, userID string) error {
	return s.deleteByUserIDFn(ctx, userID)
}

// fakeBlobStore records puts and deletes in memory.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
	putErr  error
	delErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) URL(key string) string {
	return "test-bucket/" + key
}

func (f *fakeBlobStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
