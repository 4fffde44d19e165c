package domain

import "time"

// Role enumerates helpdesk account roles.
type Role string

const (
	RoleEmployee  Role = "employee"
	RoleITStaff   Role = "it_staff"
	RoleITManager Role = "it_manager"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleITStaff, RoleITManager:
		return true
	default:
		return false
	}
}

// User is an account in the helpdesk directory.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Viewer returns the identity used for access decisions.
func (u *User) Viewer() Viewer {
	return Viewer{ID: u.ID, Role: u.Role, Department: u.Department}
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the projection of a user embedded in tickets.
type UserSummary struct {
	ID    string
	Name  string
	Email string
}

// Viewer is the authenticated caller of a request.
type Viewer struct {
	ID         string
	Role       Role
	Department *string
}
