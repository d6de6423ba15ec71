package server

import (
	"errors"

	"accountly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// VerifyEmail handles GET /v1/user/verify?token=...
// Every token-lifecycle failure (unknown, expired, already verified) is a
// 400 so the response does not confirm whether a token ever existed.
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if err := s.verification.Consume(c.Context(), token); err != nil {
		status := mapServiceError(err)
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			status = fiber.StatusBadRequest
		}
		return models.RespondWithError(c, status, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
