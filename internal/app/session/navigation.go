package session

// MenuItem is one sidebar entry.
type MenuItem struct {
	Name    string  `json:"name"`
	Href    string  `json:"href"`
	Verdict Verdict `json:"verdict"`
}

type menuEntry struct {
	name string
	href string
}

var menus = map[Role][]menuEntry{
	RoleSuperAdmin: {
		{"Dashboard", "/dashboard/super-admin"},
		{"My Profile", "/profile/super-admin"},
		{"Manage Users", "/erp/manage-users"},
		{"Add Teacher", "/erp/add-teacher"},
		{"Add Student", "/erp/add-student"},
		{"Manage Departments", "/erp/manage-departments"},
		{"Manage Courses", "/erp/manage-courses"},
		{"Fees Records", "/erp/fees-records"},
		{"Approve OD Requests", "/erp/od/approve"},
	},
	RoleAdmin: {
		{"Dashboard", "/dashboard/admin"},
		{"My Profile", "/profile/admin"},
		{"Add Teacher", "/erp/add-teacher"},
		{"Add Student", "/erp/add-student"},
		{"Mark Attendance", "/erp/attendance/mark"},
		{"View All Attendance", "/erp/attendance/all"},
		{"View All Marks", "/erp/marks/all"},
		{"Update Fee Status", "/erp/fees/admin"},
		{"Approve OD Requests", "/erp/od/approve"},
	},
	RoleTeacher: {
		{"Dashboard", "/dashboard/teacher"},
		{"My Profile", "/profile/teacher"},
		{"Mark Attendance", "/erp/attendance/mark"},
		{"Upload Marks", "/erp/marks/upload"},
		{"View My Classes", "/erp/teacher/classes"},
		{"View Student Profiles", "/erp/teacher/student-profiles"},
		{"Approve OD Requests", "/erp/od/approve"},
		{"Class Chat", "/erp/chat/teacher"},
	},
	RoleStudent: {
		{"Dashboard", "/dashboard/student"},
		{"My Profile", "/profile/student"},
		{"View Attendance", "/erp/attendance/student"},
		{"View Marks", "/erp/marks/student"},
		{"View Fee Status", "/erp/fees/student"},
		{"Request OD", "/erp/od/request"},
		{"Class Chat", "/erp/chat/student"},
	},
}

// Menu returns the sidebar of the state's role, each entry carrying the
// guard's verdict for that state. Loading states and role none get no menu.
func (v *Views) Menu(state State) []MenuItem {
	if state.Loading || !state.Role.Valid() {
		return nil
	}
	entries := menus[state.Role]
	items := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		verdict, err := v.Check(state, e.href)
		if err != nil {
			continue
		}
		items = append(items, MenuItem{Name: e.name, Href: e.href, Verdict: verdict})
	}
	return items
}
