package enums

// ChangeType is the kind of row change carried by a realtime event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Table names that publish change events.
const (
	TableProfiles    = "profiles"
	TableDepartments = "departments"
	TableCourses     = "courses"
	TableAttendance  = "attendance"
	TableMarks       = "marks"
	TableFees        = "fees"
	TableODRequests  = "od_requests"
	TableChats       = "chats"
)
