package server

import (
	"errors"
	"time"

	"accountly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// mapServiceError translates an AppError code into an HTTP status.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch appErr.Code {
	case models.CodeValidation, models.CodeExpired, models.CodeAlreadyVerified:
		return fiber.StatusBadRequest
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// noQueryParams rejects any request carrying query parameters with 404,
// matching the API's strict-surface contract.
func noQueryParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Context().QueryArgs().Len() > 0 {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.Next()
	}
}

// noCache stamps every response so intermediaries never cache API payloads.
func noCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return err
	}
}

// currentUser returns the authenticated user stored by BasicAuthRequired.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// imageResponse is the API shape of profile picture metadata. The upload
// date is exposed as a date, not a timestamp.
type imageResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	URL        string `json:"url"`
	UploadDate string `json:"upload_date"`
	UserID     string `json:"user_id"`
}

func toImageResponse(image *models.ProfileImage) imageResponse {
	return imageResponse{
		ID:         image.ID,
		FileName:   image.FileName,
		URL:        image.URL,
		UploadDate: image.UploadDate.Format(time.DateOnly),
		UserID:     image.UserID,
	}
}
