package services

import (
	"context"
	"math"

	"taskflow/models"
	"taskflow/repository"
)

const dashboardListSize = 5

type Statistics struct {
	TotalTasks      int64            `json:"total_tasks"`
	PendingTasks    int64            `json:"pending_tasks"`
	InProgressTasks int64            `json:"in_progress_tasks"`
	CompletedTasks  int64            `json:"completed_tasks"`
	OverdueTasks    int64            `json:"overdue_tasks"`
	CompletionRate  float64          `json:"completion_rate"`
	TasksByPriority map[string]int64 `json:"tasks_by_priority"`
	TasksByCategory map[string]int64 `json:"tasks_by_category"`
}

type Dashboard struct {
	TotalTasks      int64                 `json:"total_tasks"`
	TotalCategories int64                 `json:"total_categories"`
	CompletedToday  int64                 `json:"completed_today"`
	OverdueCount    int64                 `json:"overdue_count"`
	RecentTasks     []models.TaskResponse `json:"recent_tasks"`
	UpcomingTasks   []models.TaskResponse `json:"upcoming_tasks"`
}

// StatsService computes read-only summaries. Nothing is cached; every call
// queries the store.
type StatsService struct {
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
	clock      *Clock
}

func NewStatsService(tasks *repository.TaskRepository, categories *repository.CategoryRepository, clock *Clock) *StatsService {
	return &StatsService{tasks: tasks, categories: categories, clock: clock}
}

func (s *StatsService) Statistics(ctx context.Context, user *models.User) (*Statistics, error) {
	byStatus, err := s.tasks.CountByStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.overdueCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.tasks.CountByPriority(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.tasks.CountByCategoryName(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		PendingTasks:    byStatus[models.StatusPending],
		InProgressTasks: byStatus[models.StatusInProgress],
		CompletedTasks:  byStatus[models.StatusCompleted],
		OverdueTasks:    overdue,
		TasksByPriority: make(map[string]int64, len(byPriority)),
		TasksByCategory: byCategory,
	}
	for _, n := range byStatus {
		stats.TotalTasks += n
	}
	for priority, n := range byPriority {
		stats.TasksByPriority[priority.Key()] = n
	}
	stats.CompletionRate = completionRate(stats.CompletedTasks, stats.TotalTasks)
	return stats, nil
}

// completionRate is completed/total as a percentage rounded to two decimals,
// and 0 for an empty task list.
func completionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*100) / 100
}

func (s *StatsService) Dashboard(ctx context.Context, user *models.User) (*Dashboard, error) {
	now := s.clock.Now()
	dayStart, dayEnd := s.clock.Today()

	total, err := s.tasks.Count(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.Count(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	completedToday, err := s.tasks.CountCompletedBetween(ctx, user.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	overdue, err := s.overdueCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	recent, err := s.tasks.List(ctx, user.ID, repository.TaskFilter{
		Ordering: []string{"-created_at"},
		Limit:    dashboardListSize,
	})
	if err != nil {
		return nil, err
	}
	upcoming, err := s.tasks.List(ctx, user.ID, repository.TaskFilter{
		DueFrom:  &now,
		OpenOnly: true,
		Ordering: []string{"due_date"},
		Limit:    dashboardListSize,
	})
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalTasks:      total,
		TotalCategories: categories,
		CompletedToday:  completedToday,
		OverdueCount:    overdue,
		RecentTasks:     models.TaskResponses(recent, user.Username, now),
		UpcomingTasks:   models.TaskResponses(upcoming, user.Username, now),
	}, nil
}

func (s *StatsService) overdueCount(ctx context.Context, userID uint) (int64, error) {
	now := s.clock.Now()
	return s.tasks.Count(ctx, userID, repository.TaskFilter{DueBefore: &now, OpenOnly: true})
}
