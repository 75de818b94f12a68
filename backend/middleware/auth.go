package middleware

import (
	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/config"
	"habitgrowth/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// AuthMiddleware resolves the bearer token to a user id and stores it on the context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ParseUserIDFromToken(c.Get(fiber.HeaderAuthorization), cfg)
		if err != nil {
			return err
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// CurrentUserID returns the id stored by AuthMiddleware.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals(userIDKey).(uint)
	if !ok || userID == 0 {
		return 0, apperrors.Unauthorized("Unauthorized")
	}
	return userID, nil
}
