package middleware

import (
	"time"

	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/revocation"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// RevocationGuard rejects access tokens issued before the user's
// revocation cutoff. Runs after JWTProtected so claims are populated.
func RevocationGuard(store revocation.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := reqctx.Claims(c)
		if err != nil {
			return c.Next()
		}

		sub, _ := claims["sub"].(string)
		if _, err := uuid.Parse(sub); err != nil {
			return c.Next()
		}

		cutoff, err := store.UserCutoff(c.Context(), sub)
		if err != nil || cutoff.IsZero() {
			return c.Next()
		}

		iat, ok := claims["iat"].(float64)
		if !ok || time.Unix(int64(iat), 0).Before(cutoff) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: token revoked",
			})
		}
		return c.Next()
	}
}
