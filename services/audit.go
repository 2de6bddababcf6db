package services

import (
	"context"
	"log"

	"taskflow/models"
	"taskflow/repository"
)

type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. A failed write is logged and never fails the
// request that triggered it.
func (s *AuditService) Log(ctx context.Context, userID uint, username string, action models.AuditAction, targetID *uint, targetName, details, ipAddress string) {
	entry := models.AuditLog{
		UserID:     userID,
		Username:   username,
		Action:     action,
		TargetID:   targetID,
		TargetName: targetName,
		Details:    details,
		IPAddress:  ipAddress,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		log.Printf("audit: failed to record %s for user %d: %v", action, userID, err)
	}
}

// LogUser is Log for an authenticated actor.
func (s *AuditService) LogUser(ctx context.Context, actor *models.User, action models.AuditAction, targetID *uint, targetName, details, ipAddress string) {
	s.Log(ctx, actor.ID, actor.Username, action, targetID, targetName, details, ipAddress)
}

func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter)
}
