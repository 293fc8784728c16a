package auth

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// NormalizeRole lowercases and trims a raw role string, falling back to
// student for anything unknown.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleStudent
	}
}

func ValidRole(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleAdmin), string(RoleStudent):
		return true
	}
	return false
}

func IsAdmin(role Role) bool {
	return role == RoleAdmin
}
