package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskflow/config"
	"taskflow/services"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	cfg *config.Config
	db  *gorm.DB
	svc *services.Services
}

func New(cfg *config.Config, db *gorm.DB, svc *services.Services) *Handler {
	return &Handler{cfg: cfg, db: db, svc: svc}
}

// respondError maps a service error to its HTTP response. msgNotFound is the
// message used for a missing (or foreign) row of the resource at hand.
func respondError(c *fiber.Ctx, err error, msgNotFound string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, msgNotFound)
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid username or password",
		})
	case errors.Is(err, services.ErrAccountDisabled):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User account is disabled",
		})
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	case errors.Is(err, services.ErrSetupComplete):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Setup already complete",
		})
	}

	log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": msg,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

// pathID parses the :id route parameter. A malformed id cannot name any row,
// so it is reported like a missing one.
func pathID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// writeMode picks the field requirements from the request method.
func writeMode(c *fiber.Ctx) services.WriteMode {
	switch c.Method() {
	case fiber.MethodPost:
		return services.ModeCreate
	case fiber.MethodPatch:
		return services.ModePartialUpdate
	}
	return services.ModeUpdate
}
