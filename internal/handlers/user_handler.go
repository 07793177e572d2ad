package handlers

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users    *services.UserService
	settings *services.SettingsService
}

func NewUserHandler(users *services.UserService, settings *services.SettingsService) *UserHandler {
	return &UserHandler{users: users, settings: settings}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.users.Get(userID)
	if err != nil {
		return errJSON(c, fiber.StatusNotFound, err.Error())
	}
	return c.JSON(resp)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.users.UpdateProfile(userID, &req)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *UserHandler) AddContact(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ContactRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.users.AddContact(userID, &req)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *UserHandler) ListContacts(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.users.ListContacts(userID)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *UserHandler) SetPrimaryContact(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	contactID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid contact id")
	}

	if err := h.users.SetPrimaryContact(userID, contactID); err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Primary contact updated"})
}

func (h *UserHandler) DeleteContact(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	contactID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid contact id")
	}

	if err := h.users.DeleteContact(userID, contactID); err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Contact deleted"})
}

func (h *UserHandler) Subscribe(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	templateID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}

	if err := h.users.Subscribe(userID, templateID); err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Subscribed"})
}

func (h *UserHandler) Unsubscribe(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	templateID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}

	if err := h.users.Unsubscribe(userID, templateID); err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Unsubscribed"})
}

func (h *UserHandler) ListSubscriptions(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.users.ListSubscriptions(userID)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *UserHandler) GetSettings(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	settings, err := h.settings.GetUserSettings(userID)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(settings)
}

func (h *UserHandler) UpdateSettings(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UserSettingsRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	settings, err := h.settings.UpdateUserSettings(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrThemeNotFound),
			errors.Is(err, services.ErrLanguageNotFound):
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(settings)
}

func (h *UserHandler) ListThemes(c *fiber.Ctx) error {
	themes, err := h.settings.ListThemes()
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(themes)
}

func (h *UserHandler) ListLanguages(c *fiber.Ctx) error {
	languages, err := h.settings.ListLanguages()
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(languages)
}
