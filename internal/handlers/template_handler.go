package handlers

import (
	"errors"
	"strconv"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/question"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TemplateHandler struct {
	templates *services.TemplateService
}

func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

func templateStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrTemplateNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, question.ErrUnknownKind),
		errors.Is(err, question.ErrInvalidPayload):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

func (h *TemplateHandler) Create(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.templates.Create(userID, &req)
	if err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *TemplateHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	userID, _ := reqctx.UserID(c)

	resp, err := h.templates.Get(id, userID, reqctx.IsAdmin(c))
	if err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(resp)
}

func (h *TemplateHandler) ListPublished(c *fiber.Ctx) error {
	page, pageSize := pagination(c)
	resp, err := h.templates.ListPublished(page, pageSize)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *TemplateHandler) ListMine(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, pageSize := pagination(c)
	resp, err := h.templates.ListByAuthor(userID, page, pageSize)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.templates.Update(id, userID, reqctx.IsAdmin(c), &req)
	if err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(resp)
}

func (h *TemplateHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.templates.Delete(id, userID, reqctx.IsAdmin(c)); err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(dto.MessageResponse{Message: "Template deleted"})
}

func (h *TemplateHandler) CreateNewVersion(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.NewVersionRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.templates.CreateNewVersion(id, userID, &req)
	if err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *TemplateHandler) Publish(c *fiber.Ctx) error {
	return h.setState(c, h.templates.Publish, "Template published")
}

func (h *TemplateHandler) Unpublish(c *fiber.Ctx) error {
	return h.setState(c, h.templates.Unpublish, "Template unpublished")
}

func (h *TemplateHandler) Archive(c *fiber.Ctx) error {
	return h.setState(c, h.templates.Archive, "Template archived")
}

func (h *TemplateHandler) Unarchive(c *fiber.Ctx) error {
	return h.setState(c, h.templates.Unarchive, "Template unarchived")
}

func (h *TemplateHandler) setState(c *fiber.Ctx, op func(id, callerID uuid.UUID, callerIsAdmin bool) error, okMsg string) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := op(id, userID, reqctx.IsAdmin(c)); err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(dto.MessageResponse{Message: okMsg})
}

func (h *TemplateHandler) AddAllowedUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	callerID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.AllowedUserRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.templates.AddAllowedUser(id, callerID, req.UserID, reqctx.IsAdmin(c)); err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(dto.MessageResponse{Message: "User granted access"})
}

func (h *TemplateHandler) RemoveAllowedUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	callerID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := paramUUID(c, "userId")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid user id")
	}

	if err := h.templates.RemoveAllowedUser(id, callerID, userID, reqctx.IsAdmin(c)); err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(dto.MessageResponse{Message: "User access removed"})
}

func (h *TemplateHandler) BulkArchive(c *fiber.Ctx) error {
	return h.bulk(c, h.templates.BulkArchive, "Templates archived")
}

func (h *TemplateHandler) BulkUnarchive(c *fiber.Ctx) error {
	return h.bulk(c, h.templates.BulkUnarchive, "Templates unarchived")
}

func (h *TemplateHandler) BulkDelete(c *fiber.Ctx) error {
	return h.bulk(c, h.templates.BulkDelete, "Templates deleted")
}

func (h *TemplateHandler) bulk(c *fiber.Ctx, op func(ids []uuid.UUID, callerID uuid.UUID, callerIsAdmin bool) error, okMsg string) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.BulkTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	if err := op(req.IDs, userID, reqctx.IsAdmin(c)); err != nil {
		return errJSON(c, templateStatus(err), err.Error())
	}
	return c.JSON(dto.MessageResponse{Message: okMsg})
}

func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	return page, pageSize
}
