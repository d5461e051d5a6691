package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the authenticated subject carried by an access token.
type Identity struct {
	ID       int64
	Username string
	Role     Role
}

func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
