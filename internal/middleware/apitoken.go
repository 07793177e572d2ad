package middleware

import (
	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

// APITokenRequired authenticates integration calls via the X-API-Token
// header and stashes the owner's identity in locals for reqctx.
func APITokenRequired(apiTokens *services.ApiTokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-API-Token")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: missing API token",
			})
		}

		user, err := apiTokens.Validate(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: invalid API token",
			})
		}

		c.Locals("api_user_id", user.ID)
		c.Locals("api_user_role", user.Role)
		return c.Next()
	}
}
