package handlers

import (
	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/search"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	index search.Index
}

func NewSearchHandler(index search.Index) *SearchHandler {
	return &SearchHandler{index: index}
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	text := c.Query("q")
	if text == "" {
		return errJSON(c, fiber.StatusBadRequest, "Missing query")
	}

	page, pageSize := pagination(c)
	hits, total, err := h.index.Query(c.Context(), text, page, pageSize)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Search failed")
	}

	out := make([]dto.SearchHit, 0, len(hits))
	for _, hit := range hits {
		out = append(out, dto.SearchHit{
			TemplateID: hit.TemplateID,
			Title:      hit.Title,
			Snippet:    hit.Snippet,
		})
	}
	return c.JSON(dto.SearchResponse{
		Hits: out,
		Page: dto.Page{Page: page, PageSize: pageSize, Total: total},
	})
}
