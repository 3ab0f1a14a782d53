package model

import "time"

// User roles, least privileged last.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleBase     = "base"
)

// ValidRole reports whether role is one of the allowed roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOperator || role == RoleBase
}

// User is a model of the persistency layer
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}
