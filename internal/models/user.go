package models

import (
	"fmt"
	"time"
)

// Role is the closed set of privilege levels an account can hold.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// DefaultRole is assigned at registration.
const DefaultRole = RoleUser

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized, neither to clients nor to the cache
	Confirmed    bool      `json:"confirmed"`
	Avatar       *string   `json:"avatar"`
	Role         Role      `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserInput is the sign-up payload.
type NewUserInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}
