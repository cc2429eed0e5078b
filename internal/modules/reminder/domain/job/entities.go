package job

import (
	"strconv"
	"time"

	"gorm.io/datatypes"

	"OrgCalendar/internal/modules/calendar/domain/occurrence"
)

// 触发类型
const (
	TriggerReminder = "REMINDER" // 开始前
	TriggerDueSoon  = "DUE_SOON" // 结束前
	TriggerOverdue  = "OVERDUE"  // 结束时
)

// 任务状态
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusFired   = "fired"
	StatusFailed  = "failed"
)

// 目标类型
const (
	TargetEvent      = "event"
	TargetOccurrence = "occurrence"
)

// ReminderJob 持久化的提醒任务, job_key 唯一, 已触发的行保留到取消或过期清理
type ReminderJob struct {
	Id                   int64           `gorm:"column:id;primaryKey;autoIncrement"`
	JobKey               string          `gorm:"column:job_key;type:varchar(191);uniqueIndex;not null"`
	TargetKind           string          `gorm:"column:target_kind;type:varchar(16);not null"`
	EventId              string          `gorm:"column:event_id;type:char(36);index"`
	SeriesId             string          `gorm:"column:series_id;type:char(36);index"`
	OccurrenceDate       *datatypes.Date `gorm:"column:occurrence_date"`
	TriggerType          string          `gorm:"column:trigger_type;type:varchar(16);not null"`
	TriggerOffsetMinutes int             `gorm:"column:trigger_offset_minutes;not null;default:0"`
	TargetStart          time.Time       `gorm:"column:target_start;not null"` // 调度时目标的开始时间(本地), 执行时用于判断是否过期
	TargetEnd            time.Time       `gorm:"column:target_end;not null"`
	ScheduledAt          time.Time       `gorm:"column:scheduled_at;not null;index:idx_status_scheduled"` // UTC
	Status               string          `gorm:"column:status;type:varchar(16);not null;default:pending;index:idx_status_scheduled"`
	RetryCount           int             `gorm:"column:retry_count;not null;default:0"`
	LastError            string          `gorm:"column:last_error;type:varchar(255)"`
	ClaimedAt            *time.Time      `gorm:"column:claimed_at"`
	FinishedAt           *time.Time      `gorm:"column:finished_at;index"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
}

func (ReminderJob) TableName() string {
	return "reminder_job"
}

// Key 幂等键 <ref>|<trigger>|<offset>
func Key(ref occurrence.Ref, trigger string, offsetMinutes int) string {
	return ref.String() + "|" + trigger + "|" + strconv.Itoa(offsetMinutes)
}

// Ref 任务指向的实体
func (j *ReminderJob) Ref() occurrence.Ref {
	if j.TargetKind == TargetOccurrence && j.OccurrenceDate != nil {
		return occurrence.OccurrenceRef(j.SeriesId, time.Time(*j.OccurrenceDate))
	}
	return occurrence.EventRef(j.EventId)
}

// TimeKey 通知去重用的时间键, 目标时间变化后会得到不同的键
func (j *ReminderJob) TimeKey() string {
	at := j.TargetStart
	if j.TriggerType != TriggerReminder {
		at = j.TargetEnd
	}
	return j.JobKey + "@" + at.Format("2006-01-02T15:04")
}
