package models

import (
	"time"

	"github.com/gosimple/slug"
)

const DefaultCategoryColor = "#3498db"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_category_name,priority:1" json:"user_id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_user_category_name,priority:2" json:"name"`
	Color     string    `gorm:"size:7;not null;default:#3498db" json:"color"` // Hex color for UI
	CreatedAt time.Time `json:"created_at"`

	// Filled by listing queries only
	TaskCount int64 `gorm:"->;-:migration" json:"task_count"`
}

func (c *Category) SetOwner(userID uint) {
	c.UserID = userID
}

// CategoryInput is used for creating/updating categories. Pointers tell an
// omitted field apart from an empty one on partial updates.
type CategoryInput struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Color *string `json:"color" validate:"omitempty,hexcolor,max=7"`
}

type CategoryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"`
	User      string    `json:"user"`
	TaskCount int64     `json:"task_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse renders the category for its owner.
func (c *Category) ToResponse(owner string) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      slug.Make(c.Name),
		Color:     c.Color,
		User:      owner,
		TaskCount: c.TaskCount,
		CreatedAt: c.CreatedAt,
	}
}
