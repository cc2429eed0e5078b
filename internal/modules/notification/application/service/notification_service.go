package service

import (
	"context"

	"go.uber.org/zap"

	"OrgCalendar/internal/modules/notification/application/dto/request"
	"OrgCalendar/internal/modules/notification/application/dto/respond"
	"OrgCalendar/internal/modules/notification/domain/repository"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NotificationService 当前用户的站内通知
type NotificationService interface {
	List(ctx context.Context, userID string, req request.ListNotificationRequest) (*respond.NotificationListRespond, error)
	Read(ctx context.Context, userID string, req request.ReadNotificationRequest) (*respond.ReadRespond, error)
	ReadAll(ctx context.Context, userID string) (*respond.ReadRespond, error)
	UnreadCount(ctx context.Context, userID string) (*respond.UnreadCountRespond, error)
}

type notificationServiceImpl struct {
	repo  repository.NotificationRepository
	clock *storetime.Clock
}

func NewNotificationService(repo repository.NotificationRepository, clock *storetime.Clock) NotificationService {
	return &notificationServiceImpl{repo: repo, clock: clock}
}

func (s *notificationServiceImpl) List(ctx context.Context, userID string, req request.ListNotificationRequest) (*respond.NotificationListRespond, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	list, total, err := s.repo.ListByUser(ctx, userID, req.UnreadOnly, page, size)
	if err != nil {
		zlog.Error("list notifications failed", zap.String("user", userID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	items := make([]respond.NotificationItem, 0, len(list))
	for _, n := range list {
		items = append(items, respond.NotificationItem{
			Id:         n.Id,
			Type:       n.Type,
			Title:      n.Title,
			Message:    n.Message,
			RelatedRef: n.RelatedEventId,
			Metadata:   n.Metadata,
			IsRead:     n.IsRead,
			ReadAt:     n.ReadAt,
			CreatedAt:  n.CreatedAt,
		})
	}
	return &respond.NotificationListRespond{List: items, Total: total, Page: page, PageSize: size}, nil
}

func (s *notificationServiceImpl) Read(ctx context.Context, userID string, req request.ReadNotificationRequest) (*respond.ReadRespond, error) {
	n, err := s.repo.MarkRead(ctx, userID, req.Ids, s.clock.Now())
	if err != nil {
		zlog.Error("mark notifications read failed", zap.String("user", userID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &respond.ReadRespond{Updated: n}, nil
}

func (s *notificationServiceImpl) ReadAll(ctx context.Context, userID string) (*respond.ReadRespond, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.clock.Now())
	if err != nil {
		zlog.Error("mark all notifications read failed", zap.String("user", userID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &respond.ReadRespond{Updated: n}, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID string) (*respond.UnreadCountRespond, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		zlog.Error("count unread notifications failed", zap.String("user", userID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &respond.UnreadCountRespond{Count: n}, nil
}
