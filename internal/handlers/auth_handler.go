package handlers

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return errJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrUserBlocked):
			return errJSON(c, fiber.StatusForbidden, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	var req dto.GoogleSignInRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.GoogleSignIn(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			return errJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrUserBlocked):
			return errJSON(c, fiber.StatusForbidden, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			return errJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrUserBlocked):
			return errJSON(c, fiber.StatusForbidden, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.Logout(&req); err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Failed to logout")
	}

	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}
