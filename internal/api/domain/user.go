package domain

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Role is the closed set of authorization roles. Authorization is a flat
// capability check, not a hierarchy: ADMIN does not implicitly contain USER.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// RoleAllowed is the authorization predicate: it reports whether actual is one
// of the required roles.
func RoleAllowed(required []Role, actual Role) bool {
	return slices.Contains(required, actual)
}

type User struct {
	ID           string
	Name         string
	Email        string // stored lowercased; uniqueness is case-insensitive
	PasswordHash string // bcrypt encoded, never serialized outward
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrInvalidName     = errors.New("name must be between 2 and 100 characters")
	ErrInvalidEmail    = errors.New("email must be a valid address")
	ErrInvalidPassword = errors.New("password must be at least 6 characters")
	ErrInvalidRole     = errors.New("role must be ADMIN or USER")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName checks the display-name length constraint.
func ValidateName(name string) error {
	n := len(strings.TrimSpace(name))
	if n < 2 || n > 100 {
		return ErrInvalidName
	}
	return nil
}

// ValidateEmail checks the address shape after normalization.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(NormalizeEmail(email)) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrInvalidPassword
	}
	return nil
}
