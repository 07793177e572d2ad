package handlers

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ApiTokenHandler struct {
	apiTokens *services.ApiTokenService
}

func NewApiTokenHandler(apiTokens *services.ApiTokenService) *ApiTokenHandler {
	return &ApiTokenHandler{apiTokens: apiTokens}
}

// Create issues a new token; the plaintext value appears only in this
// response.
func (h *ApiTokenHandler) Create(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ApiTokenRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.apiTokens.Create(userID, req.Name)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *ApiTokenHandler) Get(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.apiTokens.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrApiTokenNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *ApiTokenHandler) Revoke(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.apiTokens.Revoke(userID); err != nil {
		if errors.Is(err, services.ErrApiTokenNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "API token revoked"})
}
