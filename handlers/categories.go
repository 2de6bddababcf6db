package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskflow/middleware"
	"taskflow/models"
	"taskflow/repository"
)

const categoryNotFound = "Category not found"

// ListCategories returns the current user's categories
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	filter := repository.CategoryFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Ordering: splitList(c.Query("ordering")),
	}

	categories, err := h.svc.Categories.List(c.UserContext(), user, filter)
	if err != nil {
		return respondError(c, err, categoryNotFound)
	}

	responses := make([]models.CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = categories[i].ToResponse(user.Username)
	}
	return c.JSON(responses)
}

func (h *Handler) GetCategory(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, categoryNotFound)
	}

	user := middleware.GetUser(c)
	category, err := h.svc.Categories.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err, categoryNotFound)
	}
	return c.JSON(category.ToResponse(user.Username))
}

func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	var input models.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user := middleware.GetUser(c)
	category, err := h.svc.Categories.Create(c.UserContext(), user, input, c.IP())
	if err != nil {
		return respondError(c, err, categoryNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(category.ToResponse(user.Username))
}

// UpdateCategory serves both PUT and PATCH
func (h *Handler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, categoryNotFound)
	}

	var input models.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user := middleware.GetUser(c)
	category, err := h.svc.Categories.Update(c.UserContext(), user, id, input, writeMode(c), c.IP())
	if err != nil {
		return respondError(c, err, categoryNotFound)
	}
	return c.JSON(category.ToResponse(user.Username))
}

// DeleteCategory removes the category; its tasks become uncategorized
func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, categoryNotFound)
	}

	if err := h.svc.Categories.Delete(c.UserContext(), middleware.GetUser(c), id, c.IP()); err != nil {
		return respondError(c, err, categoryNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// splitList splits a comma separated query value, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
