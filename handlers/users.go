package handlers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/middleware"
	"taskflow/models"
)

const userNotFound = "User not found"

// ListUsers returns every user to superusers and only the caller otherwise
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.svc.Users.List(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, err, userNotFound)
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return c.JSON(responses)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, userNotFound)
	}

	user, err := h.svc.Users.Get(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.JSON(user.ToResponse())
}

// UpdateUser applies a partial update; account flags need a superuser
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, userNotFound)
	}

	var input models.UserUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user, err := h.svc.Users.Update(c.UserContext(), middleware.GetUser(c), id, input, c.IP())
	if err != nil {
		return respondError(c, err, userNotFound)
	}
	return c.JSON(user.ToResponse())
}
