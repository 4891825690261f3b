// Package model defines the persisted entities the security pipeline
// works with.
package model

import (
	"strings"
	"time"
)

// Role is a closed set of user roles. Raw role strings from storage are
// parsed once at the repository boundary instead of being compared as
// free text all over the handlers.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "usuario"

	// RoleUnknown is assigned when storage holds a role outside the known
	// set. It never satisfies a role requirement.
	RoleUnknown Role = ""
)

// ParseRole normalizes a raw role string into the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return RoleUnknown, false
}

func (r Role) String() string { return string(r) }

// User is an identity plus credentials. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"rol" db:"rol"`
	Active       bool      `json:"activo" db:"activo"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
