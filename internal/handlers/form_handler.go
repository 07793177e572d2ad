package handlers

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/question"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type FormHandler struct {
	forms *services.FormService
}

func NewFormHandler(forms *services.FormService) *FormHandler {
	return &FormHandler{forms: forms}
}

func formStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrFormNotFound),
		errors.Is(err, services.ErrTemplateNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadySubmitted):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrAccessDenied),
		errors.Is(err, services.ErrUserBlocked):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrTemplateUnavailable),
		errors.Is(err, question.ErrInvalidAnswer):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func (h *FormHandler) Submit(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SubmitFormRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.forms.Submit(userID, &req)
	if err != nil {
		return errJSON(c, formStatus(err), err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *FormHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid form id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.forms.Get(id, userID, reqctx.IsAdmin(c))
	if err != nil {
		return errJSON(c, formStatus(err), err.Error())
	}
	return c.JSON(resp)
}

func (h *FormHandler) ListMine(c *fiber.Ctx) error {
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, pageSize := pagination(c)
	resp, err := h.forms.ListMine(userID, page, pageSize)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

// ListByTemplate serves the template author's answer view.
func (h *FormHandler) ListByTemplate(c *fiber.Ctx) error {
	templateID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, pageSize := pagination(c)
	resp, err := h.forms.ListByTemplate(templateID, userID, reqctx.IsAdmin(c), page, pageSize)
	if err != nil {
		return errJSON(c, formStatus(err), err.Error())
	}
	return c.JSON(resp)
}

func (h *FormHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid form id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateFormRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.forms.Update(id, userID, &req)
	if err != nil {
		return errJSON(c, formStatus(err), err.Error())
	}
	return c.JSON(resp)
}

func (h *FormHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid form id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.forms.Delete(id, userID, reqctx.IsAdmin(c)); err != nil {
		return errJSON(c, formStatus(err), err.Error())
	}
	return c.JSON(dto.MessageResponse{Message: "Form deleted"})
}
