package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskflow/config"
	"taskflow/models"
)

var DB *gorm.DB

// Connect opens the configured database into DB and migrates it.
func Connect(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open uses Postgres when a DSN is configured and the sqlite file otherwise.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseDSN != "" {
		return open(postgres.Open(cfg.DatabaseDSN), logger.Warn)
	}
	return OpenSQLite(cfg.DatabasePath)
}

// OpenSQLite opens a sqlite database at path. ":memory:" gets a single
// connection so every query sees the same in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	memory := isMemoryDSN(path)
	if !memory {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}

	level := logger.Warn
	if memory {
		level = logger.Silent
	}
	db, err := open(sqlite.Open(path), level)
	if err != nil {
		return nil, err
	}
	if memory {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,

		// Stored timestamps are UTC so sqlite text comparisons stay ordered
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Task{},
		&models.AuditLog{},
		&models.RevokedToken{},
	)
	if err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func ensureDir(dsn string) error {
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// HasUsers reports whether initial setup has already happened.
func HasUsers(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
