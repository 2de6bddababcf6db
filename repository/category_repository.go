package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflow/models"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryTaskCount = "(SELECT COUNT(*) FROM tasks WHERE tasks.category_id = categories.id) AS task_count"

var categoryOrderFields = map[string]string{
	"name":       "categories.name",
	"created_at": "categories.created_at",
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	Search   string
	Ordering []string
}

func (r *CategoryRepository) Create(ctx context.Context, userID uint, category *models.Category) error {
	if err := createOwned(ctx, r.db, userID, category); err != nil {
		return translate("create category", err)
	}
	return nil
}

func (r *CategoryRepository) List(ctx context.Context, userID uint, filter CategoryFilter) ([]models.Category, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Scopes(ownedBy("categories", userID)).
		Select("categories.*, " + categoryTaskCount)

	if filter.Search != "" {
		q = q.Where("LOWER(categories.name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}

	ordered := false
	for _, key := range filter.Ordering {
		desc := strings.HasPrefix(key, "-")
		column, ok := categoryOrderFields[strings.TrimPrefix(key, "-")]
		if !ok {
			continue
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: desc})
		ordered = true
	}
	if !ordered {
		q = q.Order("categories.created_at DESC")
	}
	q = q.Order("categories.id DESC")

	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, userID, id uint) (*models.Category, error) {
	return r.find(r.db.WithContext(ctx), userID, id)
}

func (r *CategoryRepository) find(db *gorm.DB, userID, id uint) (*models.Category, error) {
	var category models.Category
	err := db.Model(&models.Category{}).
		Scopes(ownedBy("categories", userID)).
		Select("categories.*, "+categoryTaskCount).
		Where("categories.id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, translate("find category", err)
	}
	return &category, nil
}

// Update loads the user's category, applies mutate and saves it in one
// transaction. An error from mutate aborts without writing.
func (r *CategoryRepository) Update(ctx context.Context, userID, id uint, mutate func(*models.Category) error) (*models.Category, error) {
	var updated *models.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := r.find(tx, userID, id)
		if err != nil {
			return err
		}
		if err := mutate(category); err != nil {
			return err
		}
		category.UserID = userID
		if err := tx.Select("name", "color").Updates(category).Error; err != nil {
			return translate("update category", err)
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the category and detaches its tasks (category_id = NULL).
func (r *CategoryRepository) Delete(ctx context.Context, userID, id uint) (*models.Category, error) {
	var deleted *models.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := r.find(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("category_id = ?", category.ID).Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("detach tasks: %w", err)
		}
		if err := tx.Delete(&models.Category{}, category.ID).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		deleted = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// NameTaken ignores the category with excludeID (0 for none).
func (r *CategoryRepository) NameTaken(ctx context.Context, userID uint, name string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Category{}).
		Scopes(ownedBy("categories", userID)).
		Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

func (r *CategoryRepository) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Scopes(ownedBy("categories", userID)).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}

// likePattern lowercases s and escapes LIKE wildcards for a substring match.
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
