package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const CtxUserIDKey = "user_id"

// JWTMiddleware authenticates the bearer token and stores the caller's user
// id in the request locals.
func JWTMiddleware(issuer *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := issuer.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated caller. Handlers behind JWTMiddleware
// always have one.
func UserID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}
	return id, nil
}
