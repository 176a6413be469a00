package app

import (
	"time"

	"supply-agent/internal/core"
)

// CreateUserRequest is the input for creating an account.
// CreatedBy is the ID of the authenticated caller, nil for bootstrap accounts.
type CreateUserRequest struct {
	FirstName string
	LastName  string
	BirthDate *time.Time
	TaxID     string
	Role      core.Role
	Email     string
	Password  string
	CreatedBy *int
}

func (r CreateUserRequest) toNewUser() core.NewUser {
	return core.NewUser{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		BirthDate: r.BirthDate,
		TaxID:     r.TaxID,
		Role:      r.Role,
		Email:     r.Email,
		Password:  r.Password,
		CreatedBy: r.CreatedBy,
	}
}
