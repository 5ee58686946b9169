package models

import "fmt"

// Role identifies what a channel connection is allowed to send and receive.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleGuest   Role = "guest"
	RoleDisplay Role = "display"
)

// Roles lists every role, in a stable order.
var Roles = []Role{RoleAdmin, RoleGuest, RoleDisplay}

// ParseRole converts a query value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleGuest, RoleDisplay:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}
