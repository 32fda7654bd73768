package access

// Role is the coarse account kind stored on a user record; it governs
// default access to each portal.
type Role string

const (
	RoleSuperAdmin  Role = "SUPERADMIN"
	RoleSchoolAdmin Role = "SCHOOLADMIN"
	RoleTeacher     Role = "TEACHER"
	RoleStudent     Role = "STUDENT"
)

var (
	// AdminRoles bypass the feature allow-list entirely.
	AdminRoles = []Role{RoleSuperAdmin, RoleSchoolAdmin}
	AllRoles   = []Role{RoleSuperAdmin, RoleSchoolAdmin, RoleTeacher, RoleStudent}

	// TeacherCreatableRoles are the only account kinds a teacher may create.
	// Parent accounts are student-portal accounts linked via User.StudentID,
	// not a role of their own.
	TeacherCreatableRoles = []Role{RoleStudent}

	rolePriorities = map[Role]int{
		RoleSuperAdmin:  40,
		RoleSchoolAdmin: 30,
		RoleTeacher:     20,
		RoleStudent:     10,
	}

	// RoleChoices is the wire-visible vocabulary served to admin UIs.
	RoleChoices = []RoleChoice{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "School Admin", Value: RoleSchoolAdmin},
		{Name: "Super Admin", Value: RoleSuperAdmin},
	}
)

type RoleChoice struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleSchoolAdmin
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

func roleIn(role Role, roles []Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
