package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validation"
)

const msgInvalidCredentials = "These credentials do not match our records."

// RegisterInput is a self-service account request.
type RegisterInput struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=8"`
	Department *string `json:"department" validate:"omitempty,max=255"`
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	tokenMgr    *auth.TokenManager
	revocations auth.RevocationStore
	bcryptCost  int
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		tokenMgr:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		revocations: deps.Revocations,
		bcryptCost:  cfg.BcryptCost,
	}
}

// Register creates an employee account. Other roles are only provisioned
// by seeding.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Department != nil {
		dept := strings.TrimSpace(*input.Department)
		if dept == "" {
			input.Department = nil
		} else {
			input.Department = &dept
		}
	}
	if err := validation.ValidateStruct(input, nil); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewFieldError("email", "The email has already been taken.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleEmployee,
		Department:   input.Department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	return s.issue(user)
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revocations == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}
