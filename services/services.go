// Package services holds the business rules between the HTTP handlers and
// the repositories: validation, ownership checks, token handling and
// aggregation.
package services

import (
	"time"

	"gorm.io/gorm"

	"taskflow/config"
	"taskflow/repository"
)

// Services bundles every service the handlers need.
type Services struct {
	Clock      *Clock
	Audit      *AuditService
	Auth       *AuthService
	Users      *UserService
	Categories *CategoryService
	Tasks      *TaskService
	Stats      *StatsService
}

// New builds the services on top of db. tokens may come from Redis; when nil
// revoked tokens are kept in db.
func New(cfg *config.Config, db *gorm.DB, tokens repository.RevocationStore) (*Services, error) {
	clock, err := NewClock(cfg.TimeZone)
	if err != nil {
		return nil, err
	}
	// Timestamps GORM writes (created_at, completed_at) follow the same clock
	// the windows and the dashboard read.
	db = db.Session(&gorm.Session{
		NewDB:   true,
		NowFunc: func() time.Time { return clock.Now().UTC() },
	})
	if tokens == nil {
		tokens = repository.NewSQLRevocationStore(db)
	}

	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	tasks := repository.NewTaskRepository(db)
	audit := NewAuditService(repository.NewAuditRepository(db))

	return &Services{
		Clock:      clock,
		Audit:      audit,
		Auth:       NewAuthService(cfg, users, tokens, audit, clock),
		Users:      NewUserService(users, audit),
		Categories: NewCategoryService(categories, audit),
		Tasks:      NewTaskService(tasks, categories, audit, clock),
		Stats:      NewStatsService(tasks, categories, clock),
	}, nil
}
