package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"OrgCalendar/internal/modules/notification/domain/entity"
	"OrgCalendar/internal/modules/notification/domain/repository"
)

type notificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepositoryImpl{db: db}
}

func (r *notificationRepositoryImpl) CreateBatch(ctx context.Context, list []*entity.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&list).Error
}

func (r *notificationRepositoryImpl) ListByUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]*entity.Notification, int64, error) {
	var (
		list  []*entity.Notification
		total int64
	)
	db := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	return list, total, err
}

func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, userID string, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND id IN ? AND is_read = ?", userID, ids, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *notificationRepositoryImpl) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *notificationRepositoryImpl) ExistsSince(ctx context.Context, userID, typ, timeKey string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND type = ? AND time_key = ? AND created_at >= ?", userID, typ, timeKey, since).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepositoryImpl) DeleteRecentUnread(ctx context.Context, relatedPattern string, types []string, since time.Time) ([]*entity.Notification, error) {
	var removed []*entity.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "user_id", "type", "time_key").
			Where("related_event_id LIKE ? AND type IN ? AND is_read = ? AND created_at >= ?",
				relatedPattern, types, false, since).
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(removed))
		for _, n := range removed {
			ids = append(ids, n.Id)
		}
		// 期间被标记为已读的行保留
		res := tx.Where("id IN ? AND is_read = ?", ids, false).Delete(&entity.Notification{})
		return res.Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
