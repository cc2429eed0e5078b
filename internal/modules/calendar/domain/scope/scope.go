// Package scope decides which calendar entities an actor may see and edit.
package scope

import (
	"OrgCalendar/internal/modules/user/domain/entity"
)

const (
	ColumnDivision   = "division_id"
	ColumnOffice     = "office_id"
	ColumnDepartment = "department_id"
	ColumnCreator    = "creator_id"
)

// Subject is the part of an entity that visibility rules look at.
type Subject struct {
	CreatorID string
	Placement entity.Placement
}

// Filter is the owning-unit visibility of an actor. All means no restriction;
// otherwise Column must equal Value.
type Filter struct {
	All    bool
	Column string
	Value  string
}

// Of returns the visibility filter of the actor. Rules are evaluated top to
// bottom and the first one that applies wins.
func Of(a entity.Actor) Filter {
	switch {
	case a.IsAdmin():
		return Filter{All: true}
	case a.Breadth == entity.BreadthDivision && a.DivisionID != "":
		return Filter{Column: ColumnDivision, Value: a.DivisionID}
	case a.Breadth == entity.BreadthOffice && a.OfficeID != "":
		return Filter{Column: ColumnOffice, Value: a.OfficeID}
	case a.DepartmentID != "":
		return Filter{Column: ColumnDepartment, Value: a.DepartmentID}
	default:
		return Filter{Column: ColumnCreator, Value: a.UserID}
	}
}

// Matches reports whether the subject passes the filter.
func (f Filter) Matches(s Subject) bool {
	if f.All {
		return true
	}
	if f.Value == "" {
		return false
	}
	switch f.Column {
	case ColumnDivision:
		return s.Placement.DivisionID == f.Value
	case ColumnOffice:
		return s.Placement.OfficeID == f.Value
	case ColumnDepartment:
		return s.Placement.DepartmentID == f.Value
	case ColumnCreator:
		return s.CreatorID == f.Value
	}
	return false
}

// Target is one sharing row. Empty DepartmentID or Positions means any.
type Target struct {
	OfficeID     string
	DepartmentID string
	Positions    []string
}

// ShareMatch is what a sharing row must satisfy to include an actor.
type ShareMatch struct {
	OfficeID     string
	DepartmentID string
	Position     string
}

// SharedWith describes the actor from the sharing side.
func SharedWith(a entity.Actor) ShareMatch {
	return ShareMatch{OfficeID: a.OfficeID, DepartmentID: a.DepartmentID, Position: a.Position}
}

func (m ShareMatch) Matches(t Target) bool {
	if m.OfficeID == "" || t.OfficeID != m.OfficeID {
		return false
	}
	if t.DepartmentID != "" && t.DepartmentID != m.DepartmentID {
		return false
	}
	if len(t.Positions) == 0 {
		return true
	}
	for _, p := range t.Positions {
		if p == m.Position {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any of the sharing rows includes the actor.
func (m ShareMatch) MatchesAny(targets []Target) bool {
	for _, t := range targets {
		if m.Matches(t) {
			return true
		}
	}
	return false
}

// CanView is the owning-unit filter widened by sharing.
func CanView(a entity.Actor, s Subject, shares []Target) bool {
	if Of(a).Matches(s) {
		return true
	}
	return SharedWith(a).MatchesAny(shares)
}

// CanEdit is narrower than CanView: sharing never grants it, and an actor
// without leadership only edits what they created.
func CanEdit(a entity.Actor, s Subject) bool {
	if a.IsAdmin() || (a.UserID != "" && s.CreatorID == a.UserID) {
		return true
	}
	switch a.Breadth {
	case entity.BreadthDivision:
		return a.DivisionID != "" && s.Placement.DivisionID == a.DivisionID
	case entity.BreadthOffice:
		return a.OfficeID != "" && s.Placement.OfficeID == a.OfficeID
	case entity.BreadthDepartment:
		return a.DepartmentID != "" && s.Placement.DepartmentID == a.DepartmentID
	}
	return false
}
