package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"taskflow/models"
	"taskflow/repository"
)

// ListAuditLogs returns one page of the audit trail (staff only)
func (h *Handler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	filter := repository.AuditFilter{
		Action: models.AuditAction(c.Query("action")),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		id := uint(userID)
		filter.UserID = &id
	}
	if targetID, err := strconv.ParseUint(c.Query("target_id"), 10, 32); err == nil {
		id := uint(targetID)
		filter.TargetID = &id
	}

	logs, total, err := h.svc.Audit.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err, "")
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetAuditActions returns available audit actions for filtering
func (h *Handler) GetAuditActions(c *fiber.Ctx) error {
	return c.JSON(models.AuditActions)
}
