package services

import (
	"context"
	"errors"
	"strings"

	"taskflow/models"
	"taskflow/repository"
)

// StatusFilter names a due-date window relative to the current time.
type StatusFilter string

const (
	FilterOverdue  StatusFilter = "overdue"
	FilterToday    StatusFilter = "today"
	FilterThisWeek StatusFilter = "this_week"
)

const msgForeignCategory = "You can only assign tasks to your own categories"

type TaskService struct {
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
	audit      *AuditService
	clock      *Clock
}

func NewTaskService(tasks *repository.TaskRepository, categories *repository.CategoryRepository, audit *AuditService, clock *Clock) *TaskService {
	return &TaskService{tasks: tasks, categories: categories, audit: audit, clock: clock}
}

// List returns the user's tasks matching filter, narrowed further by window.
// An unknown window is ignored.
func (s *TaskService) List(ctx context.Context, user *models.User, filter repository.TaskFilter, window StatusFilter) ([]models.Task, error) {
	s.applyWindow(&filter, window)
	return s.tasks.List(ctx, user.ID, filter)
}

func (s *TaskService) applyWindow(filter *repository.TaskFilter, window StatusFilter) {
	switch window {
	case FilterOverdue:
		now := s.clock.Now()
		filter.DueBefore = &now
		filter.OpenOnly = true
	case FilterToday:
		start, end := s.clock.Today()
		filter.DueFrom = &start
		filter.DueBefore = &end
	case FilterThisWeek:
		start, _ := s.clock.Today()
		end := start.AddDate(0, 0, 8)
		filter.DueFrom = &start
		filter.DueBefore = &end
	}
}

func (s *TaskService) Overdue(ctx context.Context, user *models.User) ([]models.Task, error) {
	return s.List(ctx, user, repository.TaskFilter{}, FilterOverdue)
}

func (s *TaskService) Today(ctx context.Context, user *models.User) ([]models.Task, error) {
	return s.List(ctx, user, repository.TaskFilter{}, FilterToday)
}

func (s *TaskService) Get(ctx context.Context, user *models.User, id uint) (*models.Task, error) {
	return s.tasks.FindByID(ctx, user.ID, id)
}

func (s *TaskService) Create(ctx context.Context, user *models.User, input models.TaskInput, ip string) (*models.Task, error) {
	if err := s.validate(ctx, user.ID, &input, ModeCreate); err != nil {
		return nil, err
	}

	task := &models.Task{Status: models.StatusPending, Priority: models.PriorityMedium}
	applyTaskInput(task, &input)
	if err := s.tasks.Create(ctx, user.ID, task); err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionTaskCreate, &task.ID, task.Title, "", ip)
	return task, nil
}

// Update validates everything, including category ownership, before the
// write transaction starts.
func (s *TaskService) Update(ctx context.Context, user *models.User, id uint, input models.TaskInput, mode WriteMode, ip string) (*models.Task, error) {
	if _, err := s.tasks.FindByID(ctx, user.ID, id); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, user.ID, &input, mode); err != nil {
		return nil, err
	}

	task, err := s.tasks.Update(ctx, user.ID, id, func(t *models.Task) error {
		applyTaskInput(t, &input)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionTaskUpdate, &task.ID, task.Title, "", ip)
	return task, nil
}

// MarkCompleted is idempotent: an already completed task keeps its original
// completion time.
func (s *TaskService) MarkCompleted(ctx context.Context, user *models.User, id uint, ip string) (*models.Task, error) {
	task, err := s.setStatus(ctx, user, id, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionTaskComplete, &task.ID, task.Title, "", ip)
	return task, nil
}

func (s *TaskService) MarkPending(ctx context.Context, user *models.User, id uint, ip string) (*models.Task, error) {
	task, err := s.setStatus(ctx, user, id, models.StatusPending)
	if err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionTaskReopen, &task.ID, task.Title, "", ip)
	return task, nil
}

func (s *TaskService) setStatus(ctx context.Context, user *models.User, id uint, status models.TaskStatus) (*models.Task, error) {
	return s.tasks.Update(ctx, user.ID, id, func(t *models.Task) error {
		t.Status = status
		return nil
	})
}

func (s *TaskService) Delete(ctx context.Context, user *models.User, id uint, ip string) error {
	task, err := s.tasks.Delete(ctx, user.ID, id)
	if err != nil {
		return err
	}
	s.audit.LogUser(ctx, user, models.AuditActionTaskDelete, &task.ID, task.Title, "", ip)
	return nil
}

func (s *TaskService) validate(ctx context.Context, userID uint, input *models.TaskInput, mode WriteMode) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		input.Title = &title
	}

	verr := validateStruct(input)
	if !mode.partial() || input.Title != nil {
		requireText(verr, "title", input.Title)
	}

	if input.Category.Set && input.Category.Value != nil {
		_, err := s.categories.FindByID(ctx, userID, *input.Category.Value)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			verr.Add("category", msgForeignCategory)
		case err != nil:
			return err
		}
	}
	return verr.OrNil()
}

// applyTaskInput copies the fields present in input onto task. category and
// due_date may be cleared with an explicit null.
func applyTaskInput(task *models.Task, input *models.TaskInput) {
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category.Set {
		task.CategoryID = input.Category.Value
	}
	if input.DueDate.Set {
		if input.DueDate.Value == nil {
			task.DueDate = nil
		} else {
			due := input.DueDate.Value.UTC()
			task.DueDate = &due
		}
	}
}
