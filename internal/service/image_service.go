package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"accountly/internal/middleware"
	"accountly/internal/models"
	"accountly/internal/observability"
	"accountly/internal/repository"
	"accountly/internal/storage"
	"accountly/internal/validation"
)

// ImageService coordinates profile picture replacement between the blob
// store and the metadata store, enforcing the one-image-per-user rule.
// Operations for the same user are serialized through a keyed mutex; the
// two stores are still not transactionally atomic, so a crash between blob
// and metadata writes can leave an orphaned blob for a later sweep.
type ImageService struct {
	images          repository.ImageRepository
	blobs           storage.BlobStore
	replaceOnUpload bool
	userLocks       sync.Map // user id -> *sync.Mutex
}

// NewImageService returns an ImageService. replaceOnUpload selects replace
// semantics (true) or reject semantics (false) for re-uploads.
func NewImageService(images repository.ImageRepository, blobs storage.BlobStore, replaceOnUpload bool) *ImageService {
	return &ImageService{
		images:          images,
		blobs:           blobs,
		replaceOnUpload: replaceOnUpload,
	}
}

func (s *ImageService) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// blobKey is the deterministic storage key for a user's profile picture.
func blobKey(userID, ext string) string {
	return userID + "/profile." + ext
}

// Upload stores a new profile picture for the user. With replace semantics an
// existing picture (blob and metadata) is removed first; with reject
// semantics an existing picture fails the upload with a conflict and nothing
// is written.
func (s *ImageService) Upload(ctx context.Context, user *models.User, filename string, content io.Reader) (*models.ProfileImage, error) {
	ext, ok := validation.ImageExt(filename)
	if !ok {
		observability.ProfileImageUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("File type not allowed; use png, jpg or jpeg")
	}

	unlock := s.lockUser(user.ID)
	defer unlock()

	existing, err := s.images.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !s.replaceOnUpload {
			observability.ProfileImageUploads.WithLabelValues("conflict").Inc()
			return nil, models.NewConflictError("A profile picture already exists")
		}
		s.deleteBlobBestEffort(ctx, existing)
		if err := s.images.DeleteByUserID(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	key := blobKey(user.ID, ext)
	start := time.Now()
	if err := s.blobs.Put(ctx, key, content, storage.ContentTypeForExt(ext)); err != nil {
		observability.BlobOpErrors.WithLabelValues("put").Inc()
		observability.ProfileImageUploads.WithLabelValues("error").Inc()
		return nil, models.NewDependencyError("Blob store", err)
	}
	observability.BlobUploadLatency.Observe(time.Since(start).Seconds())

	image := &models.ProfileImage{
		FileName: filename,
		URL:      s.blobs.URL(key),
		UserID:   user.ID,
	}
	if err := s.images.Create(ctx, image); err != nil {
		// Best-effort cleanup so a failed metadata commit does not leave
		// a blob the metadata knows nothing about.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			observability.BlobOpErrors.WithLabelValues("delete").Inc()
			middleware.Logger.ErrorContext(ctx, "failed to clean up blob after metadata failure",
				slog.String("key", key), slog.String("error", delErr.Error()))
		}
		observability.ProfileImageUploads.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.ProfileImageUploads.WithLabelValues("success").Inc()
	return image, nil
}

// Get returns the user's profile picture metadata. No blob fetch happens.
func (s *ImageService) Get(ctx context.Context, user *models.User) (*models.ProfileImage, error) {
	image, err := s.images.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, models.NewNotFoundError("Profile picture")
	}
	return image, nil
}

// Delete removes the user's profile picture. The blob delete is best-effort;
// the metadata row is removed regardless.
func (s *ImageService) Delete(ctx context.Context, user *models.User) error {
	unlock := s.lockUser(user.ID)
	defer unlock()

	existing, err := s.images.GetByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return models.NewNotFoundError("Profile picture")
	}

	s.deleteBlobBestEffort(ctx, existing)
	return s.images.DeleteByUserID(ctx, user.ID)
}

func (s *ImageService) deleteBlobBestEffort(ctx context.Context, image *models.ProfileImage) {
	ext, ok := validation.ImageExt(image.FileName)
	if !ok {
		return
	}
	key := blobKey(image.UserID, ext)
	if err := s.blobs.Delete(ctx, key); err != nil {
		observability.BlobOpErrors.WithLabelValues("delete").Inc()
		middleware.Logger.ErrorContext(ctx, "failed to delete blob",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}
