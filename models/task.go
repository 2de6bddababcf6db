package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// OpenStatuses are the statuses a task can be overdue or upcoming in.
var OpenStatuses = []TaskStatus{StatusPending, StatusInProgress}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (s TaskStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

type TaskPriority int

const (
	PriorityLow    TaskPriority = 1
	PriorityMedium TaskPriority = 2
	PriorityHigh   TaskPriority = 3
)

func (p TaskPriority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func (p TaskPriority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	}
	return strconv.Itoa(int(p))
}

// Key is the statistics map key for the priority ("1", "2", "3").
func (p TaskPriority) Key() string {
	return strconv.Itoa(int(p))
}

type Task struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:200;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"size:20;not null;default:pending;index:idx_tasks_user_status,priority:2;index:idx_tasks_status_due,priority:1" json:"status"`
	Priority    TaskPriority `gorm:"not null;default:2;index:idx_tasks_user_priority,priority:2" json:"priority"`
	UserID      uint         `gorm:"not null;index:idx_tasks_user_status,priority:1;index:idx_tasks_user_priority,priority:1;index:idx_tasks_user_due,priority:1;index:idx_tasks_user_category,priority:1" json:"user_id"`
	CategoryID  *uint        `gorm:"index:idx_tasks_user_category,priority:2" json:"category_id"`
	Category    *Category    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	DueDate     *time.Time   `gorm:"index:idx_tasks_user_due,priority:2;index:idx_tasks_status_due,priority:2" json:"due_date"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

func (t *Task) SetOwner(userID uint) {
	t.UserID = userID
}

// SyncCompletion keeps CompletedAt set exactly while the task is completed.
// An existing completion time is never moved.
func (t *Task) SyncCompletion(now time.Time) {
	if t.Status == StatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}

// BeforeSave runs on every create and save, so the completion coupling is
// written in the same statement as the status change.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	t.SyncCompletion(tx.NowFunc())
	return nil
}

// IsOverdue is derived on read and never stored.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// TaskInput carries every writable task field. Which fields are required is
// decided by the write mode, not by the payload type.
type TaskInput struct {
	Title       *string             `json:"title" validate:"omitempty,max=200"`
	Description *string             `json:"description"`
	Status      *TaskStatus         `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *TaskPriority       `json:"priority" validate:"omitempty,min=1,max=3"`
	Category    Nullable[uint]      `json:"category"`
	DueDate     Nullable[time.Time] `json:"due_date"`
}

type TaskResponse struct {
	ID              uint         `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Status          TaskStatus   `json:"status"`
	StatusDisplay   string       `json:"status_display"`
	Priority        TaskPriority `json:"priority"`
	PriorityDisplay string       `json:"priority_display"`
	User            string       `json:"user"`
	Category        *uint        `json:"category"`
	CategoryName    *string      `json:"category_name"`
	DueDate         *time.Time   `json:"due_date"`
	IsOverdue       bool         `json:"is_overdue"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	CompletedAt     *time.Time   `json:"completed_at"`
}

// ToResponse renders the task for its owner. Category must be preloaded for
// category_name to be filled.
func (t *Task) ToResponse(owner string, now time.Time) TaskResponse {
	resp := TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		StatusDisplay:   t.Status.Label(),
		Priority:        t.Priority,
		PriorityDisplay: t.Priority.Label(),
		User:            owner,
		Category:        t.CategoryID,
		DueDate:         t.DueDate,
		IsOverdue:       t.IsOverdue(now),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}
	if t.Category != nil {
		name := t.Category.Name
		resp.CategoryName = &name
	}
	return resp
}

func TaskResponses(tasks []Task, owner string, now time.Time) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ToResponse(owner, now)
	}
	return out
}
