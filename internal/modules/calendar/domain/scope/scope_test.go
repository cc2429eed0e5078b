package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OrgCalendar/internal/modules/user/domain/entity"
)

var (
	inDept     = Subject{CreatorID: "u9", Placement: entity.Placement{DepartmentID: "d1", OfficeID: "o1", DivisionID: "v1"}}
	inOffice   = Subject{CreatorID: "u9", Placement: entity.Placement{DepartmentID: "d2", OfficeID: "o1", DivisionID: "v1"}}
	inDivision = Subject{CreatorID: "u9", Placement: entity.Placement{DepartmentID: "d3", OfficeID: "o2", DivisionID: "v1"}}
	elsewhere  = Subject{CreatorID: "u9", Placement: entity.Placement{DepartmentID: "d4", OfficeID: "o3", DivisionID: "v2"}}
)

func member() entity.Actor {
	return entity.Actor{UserID: "u1", Role: entity.RoleUser, Position: "engineer", DepartmentID: "d1", OfficeID: "o1", DivisionID: "v1"}
}

func TestOfPrecedence(t *testing.T) {
	a := member()
	a.Role = entity.RoleAdmin
	a.Breadth = entity.BreadthDivision
	assert.True(t, Of(a).All)

	a = member()
	a.Breadth = entity.BreadthDivision
	assert.Equal(t, Filter{Column: ColumnDivision, Value: "v1"}, Of(a))

	a.Breadth = entity.BreadthOffice
	assert.Equal(t, Filter{Column: ColumnOffice, Value: "o1"}, Of(a))

	// office breadth without an office falls through to the department rule
	a.OfficeID = ""
	assert.Equal(t, Filter{Column: ColumnDepartment, Value: "d1"}, Of(a))

	assert.Equal(t, Filter{Column: ColumnCreator, Value: "u2"}, Of(entity.Actor{UserID: "u2"}))
}

// Broader breadth never sees less than a narrower one inside the same unit.
func TestScopeMonotonic(t *testing.T) {
	dept := member()
	office := member()
	office.Breadth = entity.BreadthOffice
	division := member()
	division.Breadth = entity.BreadthDivision
	admin := member()
	admin.Role = entity.RoleAdmin

	ladder := []entity.Actor{dept, office, division, admin}
	subjects := []Subject{inDept, inOffice, inDivision, elsewhere}
	for i := 1; i < len(ladder); i++ {
		for _, s := range subjects {
			if Of(ladder[i-1]).Matches(s) {
				assert.True(t, Of(ladder[i]).Matches(s), "step %d lost %+v", i, s)
			}
		}
	}
	assert.False(t, Of(dept).Matches(inOffice))
	assert.True(t, Of(office).Matches(inOffice))
	assert.False(t, Of(office).Matches(inDivision))
	assert.True(t, Of(division).Matches(inDivision))
	assert.True(t, Of(admin).Matches(elsewhere))
}

func TestSharingIsAdditive(t *testing.T) {
	a := member()
	shares := []Target{{OfficeID: "o3"}}
	assert.False(t, CanView(a, elsewhere, nil))

	a.OfficeID = "o3"
	a.DepartmentID = "d9"
	assert.True(t, CanView(a, elsewhere, shares))

	// sharing never narrows what the owning unit already allows
	assert.True(t, CanView(member(), inDept, []Target{{OfficeID: "o7"}}))
}

func TestShareMatchRestrictions(t *testing.T) {
	m := ShareMatch{OfficeID: "o1", DepartmentID: "d1", Position: "engineer"}
	assert.True(t, m.Matches(Target{OfficeID: "o1"}))
	assert.True(t, m.Matches(Target{OfficeID: "o1", DepartmentID: "d1"}))
	assert.False(t, m.Matches(Target{OfficeID: "o1", DepartmentID: "d2"}))
	assert.True(t, m.Matches(Target{OfficeID: "o1", Positions: []string{"manager", "engineer"}}))
	assert.False(t, m.Matches(Target{OfficeID: "o1", Positions: []string{"manager"}}))
	assert.False(t, m.Matches(Target{OfficeID: "o2"}))
	assert.False(t, ShareMatch{}.Matches(Target{}))
}

func TestCanEdit(t *testing.T) {
	a := member()
	assert.False(t, CanEdit(a, inDept), "ordinary member edits only own entities")
	assert.True(t, CanEdit(a, Subject{CreatorID: "u1", Placement: elsewhere.Placement}))

	a.Breadth = entity.BreadthDepartment
	assert.True(t, CanEdit(a, inDept))
	assert.False(t, CanEdit(a, inOffice))

	a.Breadth = entity.BreadthOffice
	assert.True(t, CanEdit(a, inOffice))

	// shared visibility does not grant edit
	shared := member()
	shared.OfficeID = "o3"
	assert.True(t, CanView(shared, elsewhere, []Target{{OfficeID: "o3"}}))
	assert.False(t, CanEdit(shared, elsewhere))

	a = member()
	a.Role = entity.RoleAdmin
	assert.True(t, CanEdit(a, elsewhere))
}
