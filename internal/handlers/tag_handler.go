package handlers

import (
	"strconv"

	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List returns the tag cloud, most used first.
func (h *TagHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	resp, err := h.tags.List(limit)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *TagHandler) Autocomplete(c *fiber.Ctx) error {
	prefix := c.Query("q")
	if prefix == "" {
		return errJSON(c, fiber.StatusBadRequest, "Missing query")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	resp, err := h.tags.Autocomplete(prefix, limit)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}
