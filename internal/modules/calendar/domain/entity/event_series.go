package entity

import (
	"time"

	"gorm.io/datatypes"

	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
)

// EventSeries 重复事件模板, 实例在读取时展开
type EventSeries struct {
	Id                  string                   `gorm:"column:id;type:char(36);primaryKey"`
	Title               string                   `gorm:"column:title;type:varchar(200);not null"`
	Content             string                   `gorm:"column:content;type:text"`
	RecurrenceUnit      string                   `gorm:"column:recurrence_unit;type:varchar(10);not null"` // day/week/month
	RecurrenceInterval  int                      `gorm:"column:recurrence_interval;not null;default:1"`
	RecurrenceEndDate   *datatypes.Date          `gorm:"column:recurrence_end_date"`
	StartClock          int                      `gorm:"column:start_clock;not null"` // 零点后的分钟数
	EndClock            int                      `gorm:"column:end_clock;not null"`
	DurationDays        int                      `gorm:"column:duration_days;not null;default:0"`
	FirstOccurrenceDate datatypes.Date           `gorm:"column:first_occurrence_date;not null;index"`
	Status              string                   `gorm:"column:status;type:varchar(16);not null;default:PENDING;index"`
	CompletedAt         *time.Time               `gorm:"column:completed_at"`
	Priority            string                   `gorm:"column:priority;type:varchar(16);not null;default:normal"`
	AlertEnabled        bool                     `gorm:"column:alert_enabled;not null"`
	RemindOffsets       datatypes.JSONSlice[int] `gorm:"column:remind_offsets"`
	CreatorId           string                   `gorm:"column:creator_id;type:char(36);not null;index"`
	DepartmentId        string                   `gorm:"column:department_id;type:varchar(36);index"`
	OfficeId            string                   `gorm:"column:office_id;type:varchar(36);index"`
	DivisionId          string                   `gorm:"column:division_id;type:varchar(36);index"`
	CreatedAt           time.Time                `gorm:"column:created_at"`
	UpdatedAt           time.Time                `gorm:"column:updated_at"`

	SharedTargets []SharedTarget `gorm:"polymorphic:Entity;polymorphicValue:series"`
}

func (EventSeries) TableName() string {
	return "calendar_event_series"
}

// Recurrence 转换为展开器使用的模板
func (s *EventSeries) Recurrence() occurrence.Series {
	r := occurrence.Series{
		ID:           s.Id,
		Unit:         occurrence.Unit(s.RecurrenceUnit),
		Interval:     s.RecurrenceInterval,
		FirstDate:    time.Time(s.FirstOccurrenceDate),
		StartClock:   time.Duration(s.StartClock) * time.Minute,
		EndClock:     time.Duration(s.EndClock) * time.Minute,
		DurationDays: s.DurationDays,
	}
	if s.RecurrenceEndDate != nil {
		end := time.Time(*s.RecurrenceEndDate)
		r.EndDate = &end
	}
	return r
}

func (s *EventSeries) Ref() occurrence.Ref {
	return occurrence.SeriesRef(s.Id)
}

func (s *EventSeries) Placement() userEntity.Placement {
	return userEntity.Placement{DepartmentID: s.DepartmentId, OfficeID: s.OfficeId, DivisionID: s.DivisionId}
}

func (s *EventSeries) Subject() scope.Subject {
	return scope.Subject{CreatorID: s.CreatorId, Placement: s.Placement()}
}

func (s *EventSeries) Shares() []scope.Target {
	return Targets(s.SharedTargets)
}

func (s *EventSeries) IsDone() bool {
	return s.Status == StatusDone
}
