package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/velvetqueue/velvetqueue/internal/service"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
)

type ChannelHandler struct {
	s service.ChannelService
}

func NewChannelHandler(s service.ChannelService) *ChannelHandler {
	return &ChannelHandler{s: s}
}

func (h *ChannelHandler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list channels",
		})
	}

	return c.Status(fiber.StatusOK).JSON(channels)
}

func (h *ChannelHandler) ConnectChannel(c *fiber.Ctx) error {
	var req transfer.ChannelConnect
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	channel, err := h.s.Connect(c.Context(), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(channel)
}
