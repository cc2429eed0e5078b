package entity

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// 领导职位的管理范围
const (
	BreadthDivision   = "division"
	BreadthOffice     = "office"
	BreadthDepartment = "department"
)

// Actor is the authenticated caller as supplied by the auth layer.
type Actor struct {
	UserID       string
	Role         string
	Position     string
	Breadth      string
	DepartmentID string
	OfficeID     string
	DivisionID   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsLeader reports whether the actor holds a leadership position with an
// assigned unit matching its breadth.
func (a Actor) IsLeader() bool {
	switch a.Breadth {
	case BreadthDivision:
		return a.DivisionID != ""
	case BreadthOffice:
		return a.OfficeID != ""
	case BreadthDepartment:
		return a.DepartmentID != ""
	}
	return false
}

// Placement is the organizational position of an entity.
type Placement struct {
	DepartmentID string
	OfficeID     string
	DivisionID   string
}

// Placement of the actor itself.
func (a Actor) Placement() Placement {
	return Placement{DepartmentID: a.DepartmentID, OfficeID: a.OfficeID, DivisionID: a.DivisionID}
}
