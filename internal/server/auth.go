package server

import (
	"context"
	"encoding/base64"
	"strings"

	"accountly/internal/middleware"
	"accountly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// BasicAuthRequired authenticates the request with HTTP Basic credentials
// (email:password) and stores the user in locals. The 401 response never
// reveals whether the email or the password was wrong.
func (s *Server) BasicAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, password, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="Restricted"`)
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		user, err := s.userService.Authenticate(c.Context(), email, password)
		if err != nil {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="Restricted"`)
			return models.RespondWithError(c, mapServiceError(err), err)
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// VerifiedRequired rejects gated operations for accounts that have not
// completed email verification. Must run after BasicAuthRequired.
func (s *Server) VerifiedRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if !user.IsVerified {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Email verification required"))
		}
		return c.Next()
	}
}

func parseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(decoded)
	idx := strings.IndexByte(creds, ':')
	if idx < 0 {
		return "", "", false
	}
	return creds[:idx], creds[idx+1:], true
}
