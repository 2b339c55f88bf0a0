package domain

import (
	"time"

	"github.com/aussiebroadwan/accountd/pkg/idx"
)

// User is the full persisted account record. The password hash never leaves
// the store/service boundary; API responses are built from Profile or
// Summary instead.
type User struct {
	ID           idx.ID
	Username     string
	Email        string
	PasswordHash string // bcrypt encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time // nil until the first successful login
}

// Profile is the hash-free view of an account returned to its owner.
type Profile struct {
	ID        idx.ID     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Summary is the row shape for the user listing.
type Summary struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Credentials is what the login path needs to verify a password.
type Credentials struct {
	ID           idx.ID
	PasswordHash string
}
