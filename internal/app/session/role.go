package session

import "strings"

// Role is the authorization tag derived from a profile record.
type Role string

const (
	// RoleNone is the terminal "no role" value. It is a legitimate resolution
	// result, not an error state.
	RoleNone       Role = ""
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleTeacher    Role = "TEACHER"
	RoleStudent    Role = "STUDENT"
)

const (
	// LandingPath is the public landing location.
	LandingPath = "/"
	// FallbackSignInPath is where a sign-in lands when no role could be resolved.
	FallbackSignInPath = "/dashboard/student"
)

// AllRoles lists the known roles, most privileged first.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent}

// ParseRole maps a raw profile value to a Role. Anything outside the four
// known tags becomes RoleNone.
func ParseRole(raw string) Role {
	switch Role(strings.TrimSpace(raw)) {
	case RoleSuperAdmin:
		return RoleSuperAdmin
	case RoleAdmin:
		return RoleAdmin
	case RoleTeacher:
		return RoleTeacher
	case RoleStudent:
		return RoleStudent
	default:
		return RoleNone
	}
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return ParseRole(string(r)) != RoleNone
}

// Slug returns the path form of the role: lower-cased with underscores
// replaced by hyphens (SUPER_ADMIN -> super-admin).
func (r Role) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(r)), "_", "-")
}

// In reports whether r is contained in roles.
func (r Role) In(roles []Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// DashboardPath returns the default landing location for a role, or the public
// landing location when the role is none.
func DashboardPath(r Role) string {
	if !r.Valid() {
		return LandingPath
	}
	return "/dashboard/" + r.Slug()
}
