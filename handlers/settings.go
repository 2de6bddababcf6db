package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"taskflow/middleware"
	"taskflow/models"
)

type AppSettings struct {
	SessionDurationHours int `json:"session_duration_hours"`
}

// GetSettings returns the runtime settings (superuser only)
func (h *Handler) GetSettings(c *fiber.Ctx) error {
	return c.JSON(AppSettings{
		SessionDurationHours: h.cfg.SessionHours(),
	})
}

// UpdateSettings changes the runtime settings and persists them (superuser only).
// A new session duration applies to tokens issued afterwards.
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	var input AppSettings
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	if input.SessionDurationHours < 1 || input.SessionDurationHours > 720 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed",
			"fields": fiber.Map{
				"session_duration_hours": "Session duration must be between 1 and 720 hours",
			},
		})
	}

	previous := h.cfg.SessionHours()
	h.cfg.SetSessionHours(input.SessionDurationHours)
	if err := h.cfg.Save(); err != nil {
		h.cfg.SetSessionHours(previous)
		return respondError(c, fmt.Errorf("save settings: %w", err), "")
	}

	h.svc.Audit.LogUser(c.UserContext(), middleware.GetUser(c), models.AuditActionSettingsUpdate, nil, "",
		fmt.Sprintf("session_duration_hours: %d -> %d", previous, input.SessionDurationHours), c.IP())

	return c.JSON(AppSettings{
		SessionDurationHours: h.cfg.SessionHours(),
	})
}
