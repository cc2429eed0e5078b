package repository

import (
	"context"
	"time"

	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/scope"
)

// ListQuery 按时间窗口查询, 时间均为库内本地时间
type ListQuery struct {
	Scope scope.Filter
	// ShareOfficeID 非空时把共享给该办公室的实体也查出来, 最终由 scope.CanView 判定
	ShareOfficeID string
	From          time.Time
	To            time.Time
}

type SearchQuery struct {
	Scope         scope.Filter
	ShareOfficeID string
	Keyword       string
	Limit         int
}

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
	// Save 更新除共享目标外的全部字段
	Save(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id string) error
	// GetByID 不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	// GetByOccurrence 查询替换了某个系列实例的物化事件
	GetByOccurrence(ctx context.Context, seriesID string, date time.Time) (*entity.Event, error)
	ListInRange(ctx context.Context, q ListQuery) ([]*entity.Event, error)
	Search(ctx context.Context, q SearchQuery) ([]*entity.Event, error)
	ListByOriginalSeries(ctx context.Context, seriesID string) ([]*entity.Event, error)
	DeleteByOriginalSeries(ctx context.Context, seriesID string) error
	MarkDoneByOriginalSeries(ctx context.Context, seriesID string, at time.Time) error

	// 提醒回填
	ListPendingStartingBetween(ctx context.Context, from, to time.Time) ([]*entity.Event, error)
	ListPendingStartedEndingAfter(ctx context.Context, now, endAfter time.Time) ([]*entity.Event, error)
}
