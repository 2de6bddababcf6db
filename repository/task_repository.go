package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/models"
)

// TaskRepository handles CRUD and aggregate queries for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

var taskOrderFields = map[string]string{
	"created_at": "tasks.created_at",
	"updated_at": "tasks.updated_at",
	"due_date":   "tasks.due_date",
	"priority":   "tasks.priority",
}

// TaskFilter composes with AND. Zero values mean "no constraint".
type TaskFilter struct {
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	CategoryID *uint
	Search     string
	// Ordering keys from taskOrderFields, "-" prefix for descending.
	Ordering []string

	DueFrom   *time.Time // inclusive
	DueBefore *time.Time // exclusive
	OpenOnly  bool       // pending or in_progress

	Limit int
}

func (r *TaskRepository) Create(ctx context.Context, userID uint, task *models.Task) error {
	task.Category = nil
	if err := createOwned(ctx, r.db.Omit(clause.Associations), userID, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return r.reload(r.db.WithContext(ctx), task)
}

func (r *TaskRepository) List(ctx context.Context, userID uint, filter TaskFilter) ([]models.Task, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Preload("Category").
		Scopes(ownedBy("tasks", userID), filter.apply)

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (f TaskFilter) apply(q *gorm.DB) *gorm.DB {
	q = f.where(q)

	ordered := false
	for _, key := range f.Ordering {
		desc := strings.HasPrefix(key, "-")
		name := strings.TrimPrefix(key, "-")
		column, ok := taskOrderFields[name]
		if !ok {
			continue
		}
		if name == "due_date" {
			q = q.Order("tasks.due_date IS NULL")
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: desc})
		ordered = true
	}
	if !ordered {
		q = q.Order("tasks.priority DESC").
			Order("tasks.due_date IS NULL").
			Order("tasks.due_date ASC").
			Order("tasks.created_at DESC")
	}
	q = q.Order("tasks.id DESC")

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, id uint) (*models.Task, error) {
	return r.find(r.db.WithContext(ctx), userID, id)
}

func (r *TaskRepository) find(db *gorm.DB, userID, id uint) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Category").
		Scopes(ownedBy("tasks", userID)).
		Where("tasks.id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, translate("find task", err)
	}
	return &task, nil
}

func (r *TaskRepository) reload(db *gorm.DB, task *models.Task) error {
	if err := db.Preload("Category").First(task, task.ID).Error; err != nil {
		return translate("reload task", err)
	}
	return nil
}

// Update loads the user's task, applies mutate and saves it in one
// transaction. The BeforeSave hook keeps completed_at in step with the
// status inside the same write. An error from mutate aborts without writing.
func (r *TaskRepository) Update(ctx context.Context, userID, id uint, mutate func(*models.Task) error) (*models.Task, error) {
	var updated *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := r.find(tx, userID, id)
		if err != nil {
			return err
		}
		if err := mutate(task); err != nil {
			return err
		}
		task.UserID = userID
		task.Category = nil
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := r.reload(tx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id uint) (*models.Task, error) {
	var deleted *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := r.find(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *TaskRepository) Count(ctx context.Context, userID uint, filter TaskFilter) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(ownedBy("tasks", userID), filter.where)
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// where applies only the row predicates of the filter, without ordering.
func (f TaskFilter) where(q *gorm.DB) *gorm.DB {
	if f.Status != nil {
		q = q.Where("tasks.status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("tasks.priority = ?", *f.Priority)
	}
	if f.CategoryID != nil {
		q = q.Where("tasks.category_id = ?", *f.CategoryID)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where("(LOWER(tasks.title) LIKE ? ESCAPE '\\' OR LOWER(tasks.description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if f.DueFrom != nil {
		q = q.Where("tasks.due_date >= ?", f.DueFrom.UTC())
	}
	if f.DueBefore != nil {
		q = q.Where("tasks.due_date < ?", f.DueBefore.UTC())
	}
	if f.OpenOnly {
		q = q.Where("tasks.status IN ?", models.OpenStatuses)
	}
	return q
}

// CountCompletedBetween counts tasks whose completed_at is in [from, to).
func (r *TaskRepository) CountCompletedBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(ownedBy("tasks", userID)).
		Where("tasks.completed_at >= ? AND tasks.completed_at < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return count, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

// CountByStatus maps each present status to its task count.
func (r *TaskRepository) CountByStatus(ctx context.Context, userID uint) (map[models.TaskStatus]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(ownedBy("tasks", userID)).
		Select("tasks.status AS group_key, COUNT(*) AS total").
		Group("tasks.status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	out := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		out[models.TaskStatus(row.GroupKey)] = row.Total
	}
	return out, nil
}

// CountByPriority maps each present priority to its task count.
func (r *TaskRepository) CountByPriority(ctx context.Context, userID uint) (map[models.TaskPriority]int64, error) {
	var rows []struct {
		Priority models.TaskPriority
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(ownedBy("tasks", userID)).
		Select("tasks.priority AS priority, COUNT(*) AS total").
		Group("tasks.priority").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks by priority: %w", err)
	}
	out := make(map[models.TaskPriority]int64, len(rows))
	for _, row := range rows {
		out[row.Priority] = row.Total
	}
	return out, nil
}

// CountByCategoryName maps category names to task counts, skipping
// uncategorized tasks.
func (r *TaskRepository) CountByCategoryName(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Scopes(ownedBy("tasks", userID)).
		Joins("JOIN categories ON categories.id = tasks.category_id").
		Select("categories.name AS group_key, COUNT(*) AS total").
		Group("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks by category: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.GroupKey] = row.Total
	}
	return out, nil
}
