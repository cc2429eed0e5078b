// Package effect lists the side effects of a calendar mutation. Services return
// them after the transaction commits and a dispatcher drains them; a failed
// effect never fails the mutation.
package effect

import (
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
)

// 实时推送的变更类型
const (
	ChangeEventCreated        = "event.created"
	ChangeEventUpdated        = "event.updated"
	ChangeEventDeleted        = "event.deleted"
	ChangeEventCompleted      = "event.completed"
	ChangeSeriesCreated       = "series.created"
	ChangeSeriesUpdated       = "series.updated"
	ChangeSeriesDeleted       = "series.deleted"
	ChangeSeriesCompleted     = "series.completed"
	ChangeOccurrenceUpdated   = "occurrence.updated"
	ChangeOccurrenceDeleted   = "occurrence.deleted"
	ChangeOccurrenceCompleted = "occurrence.completed"
	ChangeNotificationCreated = "notification.created"
)

type Effect interface {
	Kind() string
}

// ScheduleReminders 为实体写入提醒任务, 系列会扫描前瞻窗口内的全部实例
type ScheduleReminders struct {
	Ref occurrence.Ref
}

// CancelReminders 删除实体的提醒任务和刚发出的未读提醒
type CancelReminders struct {
	Ref occurrence.Ref
}

type Notify struct {
	Request notificationService.Request
}

// Broadcast 通知在线客户端重新拉取
type Broadcast struct {
	ChangeType  string
	Payload     any
	ExcludeUser string
}

func (ScheduleReminders) Kind() string { return "schedule" }
func (CancelReminders) Kind() string   { return "cancel" }
func (Notify) Kind() string            { return "notify" }
func (Broadcast) Kind() string         { return "broadcast" }

// Reschedule 时间或提醒设置变化后先取消再重新调度
func Reschedule(ref occurrence.Ref) []Effect {
	return []Effect{CancelReminders{Ref: ref}, ScheduleReminders{Ref: ref}}
}
