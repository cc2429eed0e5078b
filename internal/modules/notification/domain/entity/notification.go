package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 通知类型
const (
	TypeEventCreated     = "event_created"
	TypeEventUpdated     = "event_updated"
	TypeEventDeleted     = "event_deleted"
	TypeEventCompleted   = "event_completed"
	TypeEventUncompleted = "event_uncompleted"
	TypeSeriesCreated    = "series_created"
	TypeSeriesUpdated    = "series_updated"
	TypeSeriesDeleted    = "series_deleted"
	TypeSeriesCompleted  = "series_completed"
	TypeReminder         = "reminder"
	TypeDueSoon          = "due_soon"
	TypeOverdue          = "overdue"
)

// ReminderTypes 由提醒任务产生的通知类型, 取消提醒时会一并清理
var ReminderTypes = []string{TypeReminder, TypeDueSoon, TypeOverdue}

// Notification 每个接收人一条
type Notification struct {
	Id             int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserId         string            `gorm:"column:user_id;type:char(36);not null;index:idx_user_read"`
	Type           string            `gorm:"column:type;type:varchar(30);not null"`
	Title          string            `gorm:"column:title;type:varchar(255)"`
	Message        string            `gorm:"column:message;type:text"`
	RelatedEventId string            `gorm:"column:related_event_id;type:varchar(100);index"` // 实体引用 event:<id> / series:<id>:<date>
	TimeKey        string            `gorm:"column:time_key;type:varchar(100)"`               // 去重用
	Metadata       datatypes.JSONMap `gorm:"column:metadata"`
	IsRead         bool              `gorm:"column:is_read;not null;default:false;index:idx_user_read"`
	ReadAt         *time.Time        `gorm:"column:read_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;index"`
}

func (Notification) TableName() string {
	return "notification"
}
