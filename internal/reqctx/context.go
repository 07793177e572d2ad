// Package reqctx extracts caller identity from Fiber request context.
package reqctx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserID extracts the caller's UUID, whether set by the JWT middleware
// (claims) or the API-token middleware (locals).
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals("api_user_id").(uuid.UUID); ok {
		return id, nil
	}

	claims, err := Claims(c)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// Role returns the role claim; API-token callers carry their role in
// locals.
func Role(c *fiber.Ctx) string {
	if role, ok := c.Locals("api_user_role").(string); ok {
		return role
	}
	claims, err := Claims(c)
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

func IsAdmin(c *fiber.Ctx) bool {
	return Role(c) == "admin"
}

func Claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
