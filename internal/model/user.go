package model

import "time"

// User represents an account, either a shop administrator or a customer.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// IsAdmin reports whether a role grants access to admin-only operations.
// Signup never assigns RoleAdmin; admin accounts are created at database
// init or by an existing admin.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}
