package entity

import (
	"time"

	"gorm.io/datatypes"

	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
)

// 事件状态, OVERDUE 只在读取时派生, 不落库
const (
	StatusPending = "PENDING"
	StatusDone    = "DONE"
	StatusOverdue = "OVERDUE"
)

// 优先级
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Event 一次性事件, 也用于系列中被单独修改/完成的实例
type Event struct {
	Id               string                   `gorm:"column:id;type:char(36);primaryKey"`
	Title            string                   `gorm:"column:title;type:varchar(200);not null"`
	Content          string                   `gorm:"column:content;type:text"`
	StartTime        time.Time                `gorm:"column:start_time;not null;index"` // 本地时间, 不带时区
	EndTime          time.Time                `gorm:"column:end_time;not null;index"`
	Status           string                   `gorm:"column:status;type:varchar(16);not null;default:PENDING;index"`
	CompletedAt      *time.Time               `gorm:"column:completed_at"`
	Priority         string                   `gorm:"column:priority;type:varchar(16);not null;default:normal"`
	AlertEnabled     bool                     `gorm:"column:alert_enabled;not null"`
	RemindOffsets    datatypes.JSONSlice[int] `gorm:"column:remind_offsets"` // 覆盖默认提醒分钟数
	CreatorId        string                   `gorm:"column:creator_id;type:char(36);not null;index"`
	DepartmentId     string                   `gorm:"column:department_id;type:varchar(36);index"`
	OfficeId         string                   `gorm:"column:office_id;type:varchar(36);index"`
	DivisionId       string                   `gorm:"column:division_id;type:varchar(36);index"`
	SeriesId         *string                  `gorm:"column:series_id;type:char(36);index"`
	IsException      bool                     `gorm:"column:is_exception;not null;default:false"`
	OriginalSeriesId *string                  `gorm:"column:original_series_id;type:char(36);index"`
	OriginalDate     *datatypes.Date          `gorm:"column:original_date"` // 被替换的系列实例日期
	CreatedAt        time.Time                `gorm:"column:created_at"`
	UpdatedAt        time.Time                `gorm:"column:updated_at"`

	SharedTargets []SharedTarget `gorm:"polymorphic:Entity;polymorphicValue:event"`
}

func (Event) TableName() string {
	return "calendar_event"
}

func (e *Event) Ref() occurrence.Ref {
	return occurrence.EventRef(e.Id)
}

// OccurrenceRef 物化实例对应的系列实例引用, 普通事件返回 false
func (e *Event) OccurrenceRef() (occurrence.Ref, bool) {
	if e.OriginalSeriesId == nil || e.OriginalDate == nil {
		return occurrence.Ref{}, false
	}
	return occurrence.OccurrenceRef(*e.OriginalSeriesId, time.Time(*e.OriginalDate)), true
}

func (e *Event) Placement() userEntity.Placement {
	return userEntity.Placement{DepartmentID: e.DepartmentId, OfficeID: e.OfficeId, DivisionID: e.DivisionId}
}

func (e *Event) Subject() scope.Subject {
	return scope.Subject{CreatorID: e.CreatorId, Placement: e.Placement()}
}

func (e *Event) Shares() []scope.Target {
	return Targets(e.SharedTargets)
}

func (e *Event) IsDone() bool {
	return e.Status == StatusDone
}
