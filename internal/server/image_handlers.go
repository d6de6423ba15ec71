package server

import (
	"accountly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadProfilePic handles POST /v1/user/self/pic
func (s *Server) UploadProfilePic(c *fiber.Ctx) error {
	file, err := c.FormFile("profilePic")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No profilePic file uploaded"))
	}
	if file.Filename == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file selected"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	image, err := s.imageService.Upload(c.Context(), currentUser(c), file.Filename, src)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(toImageResponse(image))
}

// GetProfilePic handles GET /v1/user/self/pic
func (s *Server) GetProfilePic(c *fiber.Ctx) error {
	if len(c.Body()) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Request body not allowed"))
	}

	image, err := s.imageService.Get(c.Context(), currentUser(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(toImageResponse(image))
}

// DeleteProfilePic handles DELETE /v1/user/self/pic
func (s *Server) DeleteProfilePic(c *fiber.Ctx) error {
	if err := s.imageService.Delete(c.Context(), currentUser(c)); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
