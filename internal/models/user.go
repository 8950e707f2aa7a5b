// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleUser   Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleUser:
		return true
	}
	return false
}

// User represents an account with its credentials and optional 2FA state.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never serialize the hash
	Role         Role      `db:"role" json:"role"`
	TOTPSecret   *string   `db:"totp_secret" json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `db:"totp_enabled" json:"totp_enabled"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanSell returns true for roles allowed to manage the catalog.
func (u *User) CanSell() bool {
	return u.Role == RoleSeller || u.Role == RoleAdmin
}

// RequiresOTP returns true once the user has completed 2FA enrollment.
// Login must then present a valid TOTP code.
func (u *User) RequiresOTP() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}
