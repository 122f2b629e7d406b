package session

import (
	"errors"
	"strings"
)

// ErrUnknownView is returned when a path matches no registered view.
var ErrUnknownView = errors.New("unknown view")

// View is a named location with the roles allowed to see it.
type View struct {
	Path      string `json:"path"`
	Permitted []Role `json:"permitted,omitempty"`
	Public    bool   `json:"public"`
}

// Views is the table of known view paths. Patterns may contain ":name"
// segments that match any single non-empty segment.
type Views struct {
	views []View
}

var (
	superAdminOnly = []Role{RoleSuperAdmin}
	adminAndUp     = []Role{RoleAdmin, RoleSuperAdmin}
	teacherAndUp   = []Role{RoleTeacher, RoleAdmin, RoleSuperAdmin}
	everyRole      = []Role{RoleStudent, RoleTeacher, RoleAdmin, RoleSuperAdmin}
)

// DefaultViews returns the ERP's view table.
func DefaultViews() *Views {
	v := &Views{}

	v.public("/", "/auth/super-admin", "/auth/admin", "/auth/teacher", "/auth/student")

	v.protect(superAdminOnly,
		"/dashboard/super-admin",
		"/profile/super-admin",
		"/erp/add-teacher",
		"/erp/add-student",
		"/erp/manage-users",
		"/erp/edit-user/:userId",
		"/erp/manage-departments",
		"/erp/manage-courses",
		"/erp/fees/admin",
		"/erp/fees-records",
		"/erp/od/approve",
		"/erp/attendance/all",
		"/erp/marks/all",
	)

	v.protect(adminAndUp,
		"/dashboard/admin",
		"/profile/admin",
		"/erp/attendance/mark",
	)

	v.protect(teacherAndUp,
		"/dashboard/teacher",
		"/profile/teacher",
		"/erp/marks/upload",
		"/erp/teacher/classes",
		"/erp/teacher/student-profiles",
		"/erp/chat/teacher",
	)

	v.protect(everyRole,
		"/dashboard/student",
		"/profile/student",
		"/erp/attendance/student",
		"/erp/marks/student",
		"/erp/fees/student",
		"/erp/od/request",
		"/erp/chat/student",
	)

	return v
}

func (v *Views) public(paths ...string) {
	for _, p := range paths {
		v.views = append(v.views, View{Path: p, Public: true})
	}
}

func (v *Views) protect(roles []Role, paths ...string) {
	for _, p := range paths {
		v.views = append(v.views, View{Path: p, Permitted: roles})
	}
}

// All returns every registered view.
func (v *Views) All() []View {
	out := make([]View, len(v.views))
	copy(out, v.views)
	return out
}

// Match finds the view registered for path.
func (v *Views) Match(path string) (View, bool) {
	path = normalizePath(path)
	for _, view := range v.views {
		if matchPattern(view.Path, path) {
			return view, true
		}
	}
	return View{}, false
}

// MustPermitted returns the permitted roles of a registered view pattern and
// panics if it is not registered. It is meant for wiring routes at startup.
func (v *Views) MustPermitted(pattern string) []Role {
	for _, view := range v.views {
		if view.Path == pattern {
			return view.Permitted
		}
	}
	panic("session: view not registered: " + pattern)
}

// Check runs the guard for path against state. Public views always allow.
func (v *Views) Check(state State, path string) (Verdict, error) {
	view, ok := v.Match(path)
	if !ok {
		return Verdict{}, ErrUnknownView
	}
	if view.Public {
		return Verdict{Decision: DecisionAllow}, nil
	}
	return Decide(state, view.Permitted), nil
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func matchPattern(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
