package handlers

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	users     *services.UserService
	templates *services.TemplateService
	tags      *services.TagService
	settings  *services.SettingsService
}

func NewAdminHandler(users *services.UserService, templates *services.TemplateService, tags *services.TagService, settings *services.SettingsService) *AdminHandler {
	return &AdminHandler{users: users, templates: templates, tags: tags, settings: settings}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, pageSize := pagination(c)
	resp, err := h.users.List(page, pageSize, c.Query("q"))
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *AdminHandler) BlockUser(c *fiber.Ctx) error {
	return h.setBlocked(c, true, "User blocked")
}

func (h *AdminHandler) UnblockUser(c *fiber.Ctx) error {
	return h.setBlocked(c, false, "User unblocked")
}

func (h *AdminHandler) setBlocked(c *fiber.Ctx, blocked bool, okMsg string) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}

	if err := h.users.SetBlocked(c.Context(), id, blocked); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: okMsg})
}

func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}
	actorID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SetRoleRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.users.SetRole(c.Context(), actorID, id, req.Role); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return errJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrSelfDemotion):
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Role updated"})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}

	if err := h.users.HardDelete(id); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "User deleted"})
}

// HardDeleteTemplates purges soft-deleted templates for good.
func (h *AdminHandler) HardDeleteTemplates(c *fiber.Ctx) error {
	var req dto.BulkTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.templates.HardDelete(req.IDs); err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Templates permanently deleted"})
}

func (h *AdminHandler) RecalculateTag(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid tag id")
	}

	count, err := h.tags.RecalculateUsageCount(id)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(fiber.Map{"tag_id": id, "usage_count": count})
}

func (h *AdminHandler) ReindexAll(c *fiber.Ctx) error {
	indexed, err := h.templates.ReindexAll(c.Context())
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Reindex failed")
	}
	return c.JSON(fiber.Map{"indexed": indexed})
}

// --- Themes and languages ---

func (h *AdminHandler) CreateTheme(c *fiber.Ctx) error {
	var req dto.ColorThemeRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	theme, err := h.settings.CreateTheme(&req)
	if err != nil {
		if errors.Is(err, services.ErrNameTaken) {
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(theme)
}

func (h *AdminHandler) SetDefaultTheme(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid theme id")
	}

	if err := h.settings.SetDefaultTheme(id); err != nil {
		if errors.Is(err, services.ErrThemeNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Default theme updated"})
}

func (h *AdminHandler) DeleteTheme(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid theme id")
	}

	if err := h.settings.DeleteTheme(id); err != nil {
		switch {
		case errors.Is(err, services.ErrThemeNotFound):
			return errJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrLastEntry):
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Theme deleted"})
}

func (h *AdminHandler) CreateLanguage(c *fiber.Ctx) error {
	var req dto.LanguageRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	lang, err := h.settings.CreateLanguage(&req)
	if err != nil {
		if errors.Is(err, services.ErrNameTaken) {
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(lang)
}

func (h *AdminHandler) SetDefaultLanguage(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid language id")
	}

	if err := h.settings.SetDefaultLanguage(id); err != nil {
		if errors.Is(err, services.ErrLanguageNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Default language updated"})
}

func (h *AdminHandler) DeleteLanguage(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid language id")
	}

	if err := h.settings.DeleteLanguage(id); err != nil {
		switch {
		case errors.Is(err, services.ErrLanguageNotFound):
			return errJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrLastEntry):
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Language deleted"})
}
