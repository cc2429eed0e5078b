package entity

import (
	"gorm.io/datatypes"

	"OrgCalendar/internal/modules/calendar/domain/scope"
)

const (
	SharedEntityEvent  = "event"
	SharedEntitySeries = "series"
)

// SharedTarget 跨部门共享, 同一实体的多行之间为 OR
type SharedTarget struct {
	Id           int64                       `gorm:"column:id;primaryKey;autoIncrement"`
	EntityType   string                      `gorm:"column:entity_type;type:varchar(10);not null;index:idx_shared_entity"`
	EntityID     string                      `gorm:"column:entity_id;type:char(36);not null;index:idx_shared_entity"`
	OfficeId     string                      `gorm:"column:office_id;type:varchar(36);not null;index"`
	DepartmentId string                      `gorm:"column:department_id;type:varchar(36)"` // 为空表示整个办公室
	Positions    datatypes.JSONSlice[string] `gorm:"column:positions"`                      // 为空表示不限职位
}

func (SharedTarget) TableName() string {
	return "calendar_shared_target"
}

func (t SharedTarget) Target() scope.Target {
	return scope.Target{OfficeID: t.OfficeId, DepartmentID: t.DepartmentId, Positions: t.Positions}
}

func Targets(rows []SharedTarget) []scope.Target {
	out := make([]scope.Target, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Target())
	}
	return out
}
