package entities

import (
	"strings"
	"time"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// DefaultLanguage is assigned to users that register without a preference.
const DefaultLanguage = "pt_BR"

// User is an account able to submit progress and appear on leaderboards.
type User struct {
	ID                 string    `json:"user_id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	Role               Role      `json:"role"`
	IsActive           bool      `json:"is_active"`
	LanguagePreference string    `json:"language_preference"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an address so that lookups and the
// uniqueness claim agree on a single spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
