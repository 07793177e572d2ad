package handlers

import (
	"errors"
	"strconv"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/reqctx"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

// SocialHandler serves the read side of comments and likes. Mutations go
// through the websocket hub so every group member sees them live; the
// REST endpoints for those reply 400 with a pointer at the hub.
type SocialHandler struct {
	comments *services.CommentService
	likes    *services.LikeService
}

func NewSocialHandler(comments *services.CommentService, likes *services.LikeService) *SocialHandler {
	return &SocialHandler{comments: comments, likes: likes}
}

func (h *SocialHandler) ListComments(c *fiber.Ctx) error {
	templateID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	resp, err := h.comments.ListByTemplate(templateID, limit)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(resp)
}

func (h *SocialHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid comment id")
	}
	userID, err := reqctx.UserID(c)
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.comments.Delete(id, userID, reqctx.IsAdmin(c)); err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			return errJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrAccessDenied):
			return errJSON(c, fiber.StatusForbidden, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Comment deleted"})
}

func (h *SocialHandler) LikeCount(c *fiber.Ctx) error {
	templateID, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid template id")
	}

	count, err := h.likes.Count(templateID)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(fiber.Map{"template_id": templateID, "like_count": count})
}

// UseHub rejects REST mutations of comments and likes.
func (h *SocialHandler) UseHub(c *fiber.Ctx) error {
	return errJSON(c, fiber.StatusBadRequest,
		"Comments and likes are managed over the websocket hub at /ws/activity")
}
