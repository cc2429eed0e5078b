package repository

import (
	"context"
	"time"

	"OrgCalendar/internal/modules/notification/domain/entity"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, list []*entity.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead 只会更新属于 userID 的通知
	MarkRead(ctx context.Context, userID string, ids []int64, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	// ExistsSince 去重窗口内是否已有相同通知
	ExistsSince(ctx context.Context, userID, typ, timeKey string, since time.Time) (bool, error)
	// DeleteRecentUnread 删除窗口内未读的指定类型通知并返回被删除的行, relatedPattern 为 LIKE 模式
	DeleteRecentUnread(ctx context.Context, relatedPattern string, types []string, since time.Time) ([]*entity.Notification, error)
}
