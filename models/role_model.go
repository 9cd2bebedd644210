package models

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTutor   Role = "TUTOR"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole validates a caller role at the transport boundary so the rest of
// the service never compares raw strings.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTutor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}
