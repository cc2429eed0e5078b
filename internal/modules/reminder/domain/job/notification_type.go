package job

import (
	notificationEntity "OrgCalendar/internal/modules/notification/domain/entity"
)

// NotificationType 触发类型对应的通知类型
func NotificationType(trigger string) string {
	switch trigger {
	case TriggerDueSoon:
		return notificationEntity.TypeDueSoon
	case TriggerOverdue:
		return notificationEntity.TypeOverdue
	default:
		return notificationEntity.TypeReminder
	}
}
