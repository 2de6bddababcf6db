package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/models"
)

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SQLRevocationStore keeps revoked ids in the revoked_tokens table.
type SQLRevocationStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLRevocationStore(db *gorm.DB) *SQLRevocationStore {
	return &SQLRevocationStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Revoke also drops entries that have expired, so the table stays small
// without a background sweeper.
func (s *SQLRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", s.now()).Delete(&models.RevokedToken{}).Error; err != nil {
			return fmt.Errorf("purge revoked tokens: %w", err)
		}
		row := models.RevokedToken{JTI: jti, ExpiresAt: expiresAt.UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		return nil
	})
}

func (s *SQLRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at >= ?", jti, s.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

const revokedKeyPrefix = "taskflow:revoked:"

// RedisRevocationStore stores one key per revoked id with a TTL matching
// the token's remaining lifetime.
type RedisRevocationStore struct {
	rdb *redis.Client
}

func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.rdb.Get(ctx, revokedKeyPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check revoked token: %w", err)
	}
}
