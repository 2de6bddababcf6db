package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskflow/middleware"
	"taskflow/models"
	"taskflow/repository"
	"taskflow/services"
)

const taskNotFound = "Task not found"

// parseTaskQuery reads the list filters from the query string. Malformed
// exact-match values are validation errors; an unknown status_filter is
// ignored.
func parseTaskQuery(c *fiber.Ctx) (repository.TaskFilter, services.StatusFilter, error) {
	verr := &services.ValidationError{}
	filter := repository.TaskFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Ordering: splitList(c.Query("ordering")),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if status.Valid() {
			filter.Status = &status
		} else {
			verr.Add("status", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
		}
	}
	if raw := c.Query("priority"); raw != "" {
		n, err := strconv.Atoi(raw)
		priority := models.TaskPriority(n)
		if err == nil && priority.Valid() {
			filter.Priority = &priority
		} else {
			verr.Add("priority", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
		}
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err == nil {
			categoryID := uint(id)
			filter.CategoryID = &categoryID
		} else {
			verr.Add("category", "Enter a valid category id.")
		}
	}

	if err := verr.OrNil(); err != nil {
		return filter, "", err
	}
	return filter, services.StatusFilter(c.Query("status_filter")), nil
}

// ListTasks returns the current user's tasks, filtered and ordered
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	filter, window, err := parseTaskQuery(c)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}

	user := middleware.GetUser(c)
	tasks, err := h.svc.Tasks.List(c.UserContext(), user, filter, window)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(models.TaskResponses(tasks, user.Username, h.svc.Clock.Now()))
}

func (h *Handler) OverdueTasks(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	tasks, err := h.svc.Tasks.Overdue(c.UserContext(), user)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(models.TaskResponses(tasks, user.Username, h.svc.Clock.Now()))
}

func (h *Handler) TodayTasks(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	tasks, err := h.svc.Tasks.Today(c.UserContext(), user)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(models.TaskResponses(tasks, user.Username, h.svc.Clock.Now()))
}

func (h *Handler) TaskStatistics(c *fiber.Ctx) error {
	stats, err := h.svc.Stats.Statistics(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.JSON(stats)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, taskNotFound)
	}

	user := middleware.GetUser(c)
	task, err := h.svc.Tasks.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return h.renderTask(c, fiber.StatusOK, user, task)
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var input models.TaskInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user := middleware.GetUser(c)
	task, err := h.svc.Tasks.Create(c.UserContext(), user, input, c.IP())
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return h.renderTask(c, fiber.StatusCreated, user, task)
}

// UpdateTask serves both PUT and PATCH
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, taskNotFound)
	}

	var input models.TaskInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user := middleware.GetUser(c)
	task, err := h.svc.Tasks.Update(c.UserContext(), user, id, input, writeMode(c), c.IP())
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return h.renderTask(c, fiber.StatusOK, user, task)
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, taskNotFound)
	}

	if err := h.svc.Tasks.Delete(c.UserContext(), middleware.GetUser(c), id, c.IP()); err != nil {
		return respondError(c, err, taskNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) MarkTaskCompleted(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, taskNotFound)
	}

	user := middleware.GetUser(c)
	task, err := h.svc.Tasks.MarkCompleted(c.UserContext(), user, id, c.IP())
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return h.renderTask(c, fiber.StatusOK, user, task)
}

func (h *Handler) MarkTaskPending(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c, taskNotFound)
	}

	user := middleware.GetUser(c)
	task, err := h.svc.Tasks.MarkPending(c.UserContext(), user, id, c.IP())
	if err != nil {
		return respondError(c, err, taskNotFound)
	}
	return h.renderTask(c, fiber.StatusOK, user, task)
}

func (h *Handler) renderTask(c *fiber.Ctx, status int, user *models.User, task *models.Task) error {
	return c.Status(status).JSON(task.ToResponse(user.Username, h.svc.Clock.Now()))
}
