package models

import (
	"strings"
	"time"
)

// UserStatus is the lifecycle state of a directory user.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User represents a user account in the credential directory.
// Entries are immutable once loaded; the PasswordHash is a self-describing
// hash string (algorithm prefix + parameters + salt + digest) and must
// never be logged or serialized into responses.
type User struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	Roles        []string   `json:"roles,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at,omitempty"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// AuthenticationRequest carries a plaintext credential pair. Ephemeral:
// never persisted, never logged.
type AuthenticationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticationResult is the outcome of a Basic-Auth check.
type AuthenticationResult struct {
	Allowed  bool     `json:"allowed"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Authentication failure reasons. "Invalid credentials" deliberately merges
// unknown-user and wrong-password; "Account disabled" is distinct, matching
// the upstream product decision.
const (
	ReasonInvalidCredentials = "Invalid credentials"
	ReasonAccountDisabled    = "Account disabled"
)

// NormalizeID canonicalizes usernames and client ids before any lookup or
// comparison: trim surrounding whitespace, lowercase.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
