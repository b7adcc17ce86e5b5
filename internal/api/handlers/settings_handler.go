package handlers

import (
	"log/slog"

	"github.com/fanpost/fanpost/internal/service"
	"github.com/fanpost/fanpost/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettingsInfo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	settings, err := h.s.GetSettingsInfo(c.Context(), userID)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) UpdateCredentials(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var cu transfer.CredentialsUpdate
	if err := c.BodyParser(&cu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.s.UpdateCredentials(c.Context(), userID, cu.Platform, cu.Fields); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Credentials saved",
	})
}

func (h *SettingsHandler) RemoveCredentials(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Query("platform")

	if err := h.s.RemoveCredentials(c.Context(), userID, platform); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Credentials removed",
	})
}
