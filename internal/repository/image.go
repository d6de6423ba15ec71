package repository

import (
	"context"
	"errors"

	"accountly/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines persistence operations for profile picture metadata.
type ImageRepository interface {
	// GetByUserID returns (nil, nil) when the user has no profile picture.
	GetByUserID(ctx context.Context, userID string) (*models.ProfileImage, error)
	Create(ctx context.Context, image *models.ProfileImage) error
	DeleteByUserID(ctx context.Context, userID string) error
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a new ImageRepository implementation.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) GetByUserID(ctx context.Context, userID string) (*models.ProfileImage, error) {
	var image models.ProfileImage
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &image, nil
}

func (r *imageRepository) Create(ctx context.Context, image *models.ProfileImage) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ProfileImage{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
