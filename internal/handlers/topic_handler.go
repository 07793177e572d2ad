package handlers

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/services"
	"github.com/gofiber/fiber/v2"
)

type TopicHandler struct {
	topics *services.TopicService
}

func NewTopicHandler(topics *services.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

func (h *TopicHandler) Create(c *fiber.Ctx) error {
	var req dto.TopicRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	topic, err := h.topics.Create(req.Name)
	if err != nil {
		if errors.Is(err, services.ErrTopicExists) {
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(topic)
}

func (h *TopicHandler) List(c *fiber.Ctx) error {
	topics, err := h.topics.List()
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(topics)
}

func (h *TopicHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid topic id")
	}

	var req dto.TopicRequest
	if err := parseBody(c, &req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	topic, err := h.topics.Update(id, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrTopicNotFound) {
			return errJSON(c, fiber.StatusNotFound, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(topic)
}

func (h *TopicHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "Invalid topic id")
	}

	if err := h.topics.Delete(id); err != nil {
		switch {
		case errors.Is(err, services.ErrTopicNotFound):
			return errJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrTopicInUse):
			return errJSON(c, fiber.StatusConflict, err.Error())
		}
		return errJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(dto.MessageResponse{Message: "Topic deleted"})
}
