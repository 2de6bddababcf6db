// Package repository is the storage layer. Every Category and Task method
// takes the acting user's id and never reads or writes outside that user.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound covers both missing rows and rows owned by someone else.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is a unique index violation, usually a concurrent insert that
// passed the same availability check first.
var ErrDuplicate = errors.New("duplicate key")

// Owned is implemented by every row that belongs to a user.
type Owned interface {
	SetOwner(userID uint)
}

// ownedBy restricts a query to rows of one user.
func ownedBy(table string, userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".user_id = ?", userID)
	}
}

// createOwned assigns the owner server-side before inserting, whatever the
// row carried before.
func createOwned(ctx context.Context, db *gorm.DB, userID uint, row Owned) error {
	row.SetOwner(userID)
	return db.WithContext(ctx).Create(row).Error
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
