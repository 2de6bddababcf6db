package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskflow/config"
	"taskflow/models"
	"taskflow/repository"
)

type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Session is what registration, setup and login hand back to the client.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	cfg    *config.Config
	users  *repository.UserRepository
	tokens repository.RevocationStore
	audit  *AuditService
	clock  *Clock
}

func NewAuthService(cfg *config.Config, users *repository.UserRepository, tokens repository.RevocationStore, audit *AuditService, clock *Clock) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens, audit: audit, clock: clock}
}

// Register creates an active regular user and signs them in.
func (s *AuthService) Register(ctx context.Context, input *models.RegisterInput, ip string) (*Session, error) {
	user, err := s.createUser(ctx, input, false)
	if err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionRegister, &user.ID, user.Username, "", ip)
	return s.newSession(user)
}

// SetupRequired reports whether no user exists yet.
func (s *AuthService) SetupRequired(ctx context.Context) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Setup creates the first account as a superuser. It only works on an
// empty user table.
func (s *AuthService) Setup(ctx context.Context, input *models.RegisterInput, ip string) (*Session, error) {
	required, err := s.SetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, ErrSetupComplete
	}

	user, err := s.createUser(ctx, input, true)
	if err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionSetup, &user.ID, user.Username, "Created initial superuser", ip)
	return s.newSession(user)
}

func (s *AuthService) createUser(ctx context.Context, input *models.RegisterInput, superuser bool) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := s.validateRegistration(ctx, input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fieldError("password", "Ensure this field has no more than 72 bytes.")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	input.Password = ""
	input.PasswordConfirm = ""

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.duplicateUser(ctx, user)
		}
		return nil, err
	}
	return user, nil
}

// duplicateUser reports which field another registration took between the
// availability check and the insert.
func (s *AuthService) duplicateUser(ctx context.Context, user *models.User) error {
	verr := &ValidationError{}
	taken, err := s.users.UsernameTaken(ctx, user.Username, 0)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("username", msgUsernameTaken)
	}
	taken, err = s.users.EmailTaken(ctx, user.Email, 0)
	if err != nil {
		return err
	}
	if taken || len(verr.Fields) == 0 {
		verr.Add("email", msgEmailTaken)
	}
	return verr
}

func (s *AuthService) validateRegistration(ctx context.Context, input *models.RegisterInput) error {
	verr := validateStruct(input)

	if input.Password != "" && len(input.Password) < s.cfg.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", s.cfg.MinPasswordLength))
	}
	if input.Password != "" && input.PasswordConfirm != "" && input.Password != input.PasswordConfirm {
		verr.Add("password_confirm", "Passwords do not match")
	}

	if input.Username != "" && !verr.Has("username") {
		taken, err := s.users.UsernameTaken(ctx, input.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", msgUsernameTaken)
		}
	}
	if input.Email != "" && !verr.Has("email") {
		taken, err := s.users.EmailTaken(ctx, input.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", msgEmailTaken)
		}
	}
	return verr.OrNil()
}

// Login checks the credentials and signs the user in. A disabled account is
// reported separately from a wrong password.
func (s *AuthService) Login(ctx context.Context, input models.LoginInput, ip string) (*Session, error) {
	verr := &ValidationError{}
	if input.Username == "" {
		verr.Add("username", msgRequired)
	}
	if input.Password == "" {
		verr.Add("password", msgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, input.Username)
	if errors.Is(err, repository.ErrNotFound) {
		s.audit.Log(ctx, 0, input.Username, models.AuditActionLoginFailed, nil, "", "Unknown username", ip)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.audit.LogUser(ctx, user, models.AuditActionLoginFailed, &user.ID, user.Username, "Wrong password", ip)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.audit.LogUser(ctx, user, models.AuditActionLoginFailed, &user.ID, user.Username, "Account disabled", ip)
		return nil, ErrAccountDisabled
	}

	if err := s.users.TouchLastLogin(ctx, user, s.clock.Now().UTC()); err != nil {
		return nil, err
	}
	s.audit.LogUser(ctx, user, models.AuditActionLogin, &user.ID, user.Username, "", ip)
	return s.newSession(user)
}

// Logout revokes the token the request was made with. Revocation failures
// are logged and swallowed; logging out always succeeds for the caller.
func (s *AuthService) Logout(ctx context.Context, user *models.User, claims *Claims, ip string) {
	if claims != nil && claims.ID != "" {
		expires := s.clock.Now().Add(time.Duration(s.cfg.SessionHours()) * time.Hour)
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		if err := s.tokens.Revoke(ctx, claims.ID, expires); err != nil {
			log.Printf("logout: failed to revoke token for user %d: %v", user.ID, err)
		}
	}
	s.audit.LogUser(ctx, user, models.AuditActionLogout, &user.ID, user.Username, "", ip)
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	token, expires, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// IssueToken signs an HS256 token for user, valid for the configured
// session duration.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.clock.Now()
	expires := now.Add(time.Duration(s.cfg.SessionHours()) * time.Hour)

	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Authenticate resolves a raw bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, nil, ErrInvalidToken
	}

	if claims.ID != "" {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrInvalidToken
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	return user, claims, nil
}
