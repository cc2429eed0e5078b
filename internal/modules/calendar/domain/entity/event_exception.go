package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 例外原因
const (
	ExceptionSkipped   = "skipped"   // 单次删除
	ExceptionCompleted = "completed" // 单次完成
	ExceptionEdited    = "edited"    // 单次修改
)

// EventException 系列中被排除的日期, 同一系列同一天只有一条
type EventException struct {
	Id            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	SeriesId      string         `gorm:"column:series_id;type:char(36);not null;uniqueIndex:uk_series_date"`
	ExceptionDate datatypes.Date `gorm:"column:exception_date;not null;uniqueIndex:uk_series_date"`
	Reason        string         `gorm:"column:reason;type:varchar(16);not null"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
}

func (EventException) TableName() string {
	return "calendar_event_exception"
}
