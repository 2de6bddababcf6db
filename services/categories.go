package services

import (
	"context"
	"errors"
	"strings"

	"taskflow/models"
	"taskflow/repository"
)

// WriteMode selects which fields a write must carry. It is resolved once per
// request from the HTTP method.
type WriteMode int

const (
	ModeCreate WriteMode = iota
	ModeUpdate
	ModePartialUpdate
)

func (m WriteMode) partial() bool {
	return m == ModePartialUpdate
}

type CategoryService struct {
	categories *repository.CategoryRepository
	audit      *AuditService
}

func NewCategoryService(categories *repository.CategoryRepository, audit *AuditService) *CategoryService {
	return &CategoryService{categories: categories, audit: audit}
}

func (s *CategoryService) List(ctx context.Context, user *models.User, filter repository.CategoryFilter) ([]models.Category, error) {
	return s.categories.List(ctx, user.ID, filter)
}

func (s *CategoryService) Get(ctx context.Context, user *models.User, id uint) (*models.Category, error) {
	return s.categories.FindByID(ctx, user.ID, id)
}

func (s *CategoryService) Create(ctx context.Context, user *models.User, input models.CategoryInput, ip string) (*models.Category, error) {
	if err := s.validate(ctx, user.ID, 0, &input, ModeCreate); err != nil {
		return nil, err
	}

	category := &models.Category{Name: *input.Name, Color: models.DefaultCategoryColor}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if err := s.categories.Create(ctx, user.ID, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("name", msgCategoryTaken)
		}
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionCategoryCreate, &category.ID, category.Name, "", ip)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, user *models.User, id uint, input models.CategoryInput, mode WriteMode, ip string) (*models.Category, error) {
	if _, err := s.categories.FindByID(ctx, user.ID, id); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, user.ID, id, &input, mode); err != nil {
		return nil, err
	}

	category, err := s.categories.Update(ctx, user.ID, id, func(c *models.Category) error {
		if input.Name != nil {
			c.Name = *input.Name
		}
		if input.Color != nil {
			c.Color = *input.Color
		}
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fieldError("name", msgCategoryTaken)
	}
	if err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionCategoryUpdate, &category.ID, category.Name, "", ip)
	return category, nil
}

// Delete removes the category. Its tasks survive, uncategorized.
func (s *CategoryService) Delete(ctx context.Context, user *models.User, id uint, ip string) error {
	category, err := s.categories.Delete(ctx, user.ID, id)
	if err != nil {
		return err
	}
	s.audit.LogUser(ctx, user, models.AuditActionCategoryDelete, &category.ID, category.Name, "", ip)
	return nil
}

func (s *CategoryService) validate(ctx context.Context, userID, id uint, input *models.CategoryInput, mode WriteMode) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}

	verr := validateStruct(input)
	if !mode.partial() || input.Name != nil {
		requireText(verr, "name", input.Name)
	}
	if input.Name != nil && !verr.Has("name") {
		taken, err := s.categories.NameTaken(ctx, userID, *input.Name, id)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("name", msgCategoryTaken)
		}
	}
	return verr.OrNil()
}
