package session

import "github.com/pkg/errors"

// Role is the closed set of access tags a logged-in user can carry.
// Anything outside this set never matches a route's allowed roles.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

var (
	ErrUnknownRole = errors.New("unknown role")

	// AllRoles lists every valid Role, in display order.
	AllRoles = []Role{RoleStudent, RoleInstructor, RoleAdmin}
)

// ParseRole maps a raw tag to a Role; unknown tags are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleInstructor:
		return RoleInstructor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", errors.Wrap(ErrUnknownRole, s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// DashboardPath returns the landing route for the role's portal.
// Unknown roles land home.
func (r Role) DashboardPath() string {
	switch r {
	case RoleStudent:
		return "/student-dashboard"
	case RoleInstructor:
		return "/instructor-dashboard"
	case RoleAdmin:
		return "/admin-dashboard"
	}
	return "/"
}

// In reports whether r is a member of the given set.
func (r Role) In(roles []Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleInfo is the API representation of a Role.
type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// Roles is the role listing served to clients (eg. registration forms).
var Roles = []RoleInfo{
	{Name: "Student", Value: RoleStudent},
	{Name: "Instructor", Value: RoleInstructor},
	{Name: "Admin", Value: RoleAdmin},
}
