package model

import "time"

// Roles a user account can hold. Signup only ever assigns RoleUser or
// RoleGuide; the elevated roles are granted through the admin user routes.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRole reports whether s is one of the closed set of role names.
func ValidRole(s string) bool {
	switch s {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents an account record as stored in the `users` table.
// The password hash and the reset-token fields never leave the server:
// their json tags hide them from every response body.
//
// PasswordChangedAt drives the token staleness rule: a session token whose
// issued-at is not strictly after this timestamp is rejected. The reset
// fields hold only the SHA-256 digest of the one-time reset secret plus its
// expiry; the plaintext secret is never persisted.
type User struct {
	ID                uint64     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	Photo             string     `json:"photo"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	IsActive          bool       `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
