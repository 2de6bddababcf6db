package services

import (
	"context"
	"errors"
	"strings"

	"taskflow/models"
	"taskflow/repository"
)

// UserService serves the user directory. Superusers see every account,
// everyone else only their own.
type UserService struct {
	users *repository.UserRepository
	audit *AuditService
}

func NewUserService(users *repository.UserRepository, audit *AuditService) *UserService {
	return &UserService{users: users, audit: audit}
}

func (s *UserService) List(ctx context.Context, caller *models.User) ([]models.User, error) {
	return s.users.ListVisible(ctx, caller.ID, caller.IsSuperuser)
}

func (s *UserService) Get(ctx context.Context, caller *models.User, id uint) (*models.User, error) {
	if !caller.IsSuperuser && caller.ID != id {
		return nil, ErrNotFound
	}
	return s.users.FindByID(ctx, id)
}

// Update applies a partial profile change. The account flags are only
// honoured when a superuser makes the change.
func (s *UserService) Update(ctx context.Context, caller *models.User, id uint, input models.UserUpdateInput, ip string) (*models.User, error) {
	user, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	verr := validateStruct(input)
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		input.Email = &email
		if email == "" {
			verr.Add("email", msgBlank)
		}
		if !verr.Has("email") {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				verr.Add("email", msgEmailTaken)
			}
		}
	}
	if caller.IsSuperuser && caller.ID == user.ID && input.IsActive != nil && !*input.IsActive {
		verr.Add("is_active", "You cannot deactivate your own account.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if caller.IsSuperuser {
		if input.IsActive != nil {
			user.IsActive = *input.IsActive
		}
		if input.IsStaff != nil {
			user.IsStaff = *input.IsStaff
		}
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("email", msgEmailTaken)
		}
		return nil, err
	}
	s.audit.LogUser(ctx, caller, models.AuditActionUserUpdate, &user.ID, user.Username, "", ip)
	return user, nil
}
