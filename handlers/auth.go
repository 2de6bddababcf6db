package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"taskflow/middleware"
	"taskflow/models"
	"taskflow/services"
)

type AuthResponse struct {
	User      models.UserResponse `json:"user"`
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Message   string              `json:"message"`
}

func newAuthResponse(session *services.Session, message string) AuthResponse {
	return AuthResponse{
		User:      session.User.ToResponse(),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Message:   message,
	}
}

// CheckSetup returns whether the initial setup has been completed
func (h *Handler) CheckSetup(c *fiber.Ctx) error {
	required, err := h.svc.Auth.SetupRequired(c.UserContext())
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{
		"setup_complete": !required,
	})
}

// Setup creates the initial superuser
func (h *Handler) Setup(c *fiber.Ctx) error {
	var input models.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	session, err := h.svc.Auth.Setup(c.UserContext(), &input, c.IP())
	if err != nil {
		return respondError(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(newAuthResponse(session, "Setup complete"))
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var input models.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	session, err := h.svc.Auth.Register(c.UserContext(), &input, c.IP())
	if err != nil {
		return respondError(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(newAuthResponse(session, "User created successfully"))
}

// Login authenticates a user and returns a bearer token
func (h *Handler) Login(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	session, err := h.svc.Auth.Login(c.UserContext(), input, c.IP())
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(newAuthResponse(session, "Login successful"))
}

// Logout revokes the token used for this request. It always succeeds.
func (h *Handler) Logout(c *fiber.Ctx) error {
	h.svc.Auth.Logout(c.UserContext(), middleware.GetUser(c), middleware.GetClaims(c), c.IP())
	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	return c.JSON(middleware.GetUser(c).ToResponse())
}
