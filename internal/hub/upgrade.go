package hub

import (
	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upgrade authenticates the caller and accepts the websocket upgrade.
// Browsers cannot set Authorization headers on websocket requests, so the
// access token arrives as a "token" query parameter.
func Upgrade(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		raw := c.Query("token")
		if raw == "" {
			return fiber.ErrUnauthorized
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.ErrUnauthorized
		}
		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil || user.IsBlocked {
			return fiber.ErrUnauthorized
		}

		c.Locals("hub_user_id", user.ID)
		c.Locals("hub_user_name", user.Name)
		return c.Next()
	}
}
