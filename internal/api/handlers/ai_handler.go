package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/velvetqueue/velvetqueue/internal/service"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

type AIHandler struct {
	s service.AssistantService
}

func NewAIHandler(s service.AssistantService) *AIHandler {
	return &AIHandler{s: s}
}

func (h *AIHandler) GenerateCaption(c *fiber.Ctx) error {
	var req transfer.CaptionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	caption, err := h.s.GenerateCaption(c.Context(), req.Prompt, req.Platform, req.Tone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"caption": caption,
	})
}

func (h *AIHandler) SuggestHashtags(c *fiber.Ctx) error {
	var req transfer.HashtagRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	hashtags, err := h.s.SuggestHashtags(c.Context(), req.Content, req.Platform, req.Count)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"hashtags": hashtags,
	})
}

func (h *AIHandler) Repurpose(c *fiber.Ctx) error {
	var req transfer.RepurposeRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	caption, err := h.s.Repurpose(c.Context(), req.Caption, req.TargetPlatform)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"caption":  caption,
		"platform": req.TargetPlatform,
	})
}
