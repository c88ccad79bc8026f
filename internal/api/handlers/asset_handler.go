package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/velvetqueue/velvetqueue/internal/service"
)

type AssetHandler struct {
	s service.AssetService
}

func NewAssetHandler(s service.AssetService) *AssetHandler {
	return &AssetHandler{s: s}
}

func (h *AssetHandler) UploadAsset(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	asset, err := h.s.Upload(c.Context(), fileHeader)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(asset)
}

func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list assets",
		})
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}
