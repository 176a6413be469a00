package core

import (
	"context"
	"time"
)

// Role is a user's access level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAnalyst  Role = "analyst"
	RoleOperator Role = "operator"
	RoleManager  Role = "manager"
	RoleViewer   Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleOperator, RoleManager, RoleViewer:
		return true
	}
	return false
}

// CanExecutePlans reports whether the role may run acquisition plans and manage users.
func (r Role) CanExecutePlans() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is a system account. PasswordHash is never serialized.
type User struct {
	ID           int        `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	TaxID        string     `json:"tax_id"`
	Role         Role       `json:"role"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	FailedLogins int        `json:"failed_logins"`
	LockedUntil  *time.Time `json:"locked_until,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedBy    *int       `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewUser is the input to UserService.Create. Password is plain text and hashed before storage.
type NewUser struct {
	FirstName string     `json:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" validate:"required,max=100"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	TaxID     string     `json:"tax_id" validate:"required"`
	Role      Role       `json:"role" validate:"required"`
	Email     string     `json:"email" validate:"required"`
	Password  string     `json:"password" validate:"required"`
	CreatedBy *int       `json:"-"`
}

// UserService manages accounts and authentication.
type UserService interface {
	// Create validates, hashes the password and stores the user.
	Create(ctx context.Context, in NewUser) (*User, error)

	// Authenticate checks credentials and updates the failed-login counter or last-login time.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	GetByID(ctx context.Context, userID int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, userID int) error
}
