package domain

import "time"

// Role is the platform-wide role attached to an identity. Authorization
// decisions belong to the calling subsystems; auth only resolves and
// reports the role.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// User is the identity record owned by the credential store. This core
// treats it as read-only except for PasswordHash, which the password
// reset flow overwrites.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // argon2id, PHC encoded
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public projection of a User returned after a completed
// authentication. It never carries the password hash.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// NewProfile projects a User into its public shape.
func NewProfile(u User) Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
