package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name       string  `json:"name" form:"name"`
	Email      string  `json:"email" form:"email"`
	Password   string  `json:"password" form:"password"`
	Department *string `json:"department" form:"department"`
}

// ToInput converts the request into service input.
func (r UserRegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		Name:       r.Name,
		Email:      r.Email,
		Password:   r.Password,
		Department: r.Department,
	}
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the authenticated user's profile.
type UserResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Department *string     `json:"department"`
}

// NewUserResponse converts a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

// SessionResponse is returned on register and login.
type SessionResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// NewSessionResponse converts a session.
func NewSessionResponse(s *service.Session) SessionResponse {
	return SessionResponse{
		User: NewUserResponse(s.User),
		Auth: AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt},
	}
}
