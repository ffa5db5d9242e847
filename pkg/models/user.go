package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User roles. Authorization is an explicit role check on each route group,
// not a permission table.
const (
	RoleStudent   = "student"
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never expose password hash
	Role         string    `bun:",nullzero" json:"role"`
	RollNumber   *string   `json:"roll_number,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	IsActive     bool      `json:"is_active"`
}

// IsStaff reports whether the user may perform librarian operations.
func (u *User) IsStaff() bool {
	return u.Role == RoleLibrarian || u.Role == RoleAdmin
}
